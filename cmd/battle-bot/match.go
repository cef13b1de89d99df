package main

import (
	"fmt"

	cli "github.com/spf13/cobra"
	"jordanella.com/card-battle-go/internal/cv"
)

var matchCmd = &cli.Command{
	Use:   "match <image> <template>...",
	Short: "Match templates against an image",
	Long:  "Run the template matcher on a saved screenshot and write annotated results.",
	Args:  cli.MinimumNArgs(2),
	RunE:  Match,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64P("threshold", "t", 0, "Confidence threshold. Zero keeps the configured value.")
	matchCmd.Flags().Float64("min-scale", 0, "Smallest template scale. Zero keeps the configured value.")
	matchCmd.Flags().Float64("max-scale", 0, "Largest template scale. Zero keeps the configured value.")
	matchCmd.Flags().StringP("output", "o", "", "Directory for annotated results. Defaults to the results directory.")
	matchCmd.Flags().Bool("save", true, "Write an annotated image for every match.")
}

func Match(cmd *cli.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(settings)

	frame, err := cv.LoadFrame(args[0])
	if err != nil {
		return err
	}

	registry, err := loadRegistry(settings, logger)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = settings.ResultsDir
	}

	capturer := cv.CapturerFunc(func() (*cv.Frame, error) { return frame, nil })
	vision := cv.NewService(capturer, registry, logger).
		WithDefaults(settings.Match).
		WithResults(output, settings.SaveResults)

	defaults := vision.Defaults()
	logger.Debugf("matching with threshold %.2f over scales %.2f-%.2f", defaults.Threshold, defaults.MinScale, defaults.MaxScale)

	save, _ := cmd.Flags().GetBool("save")
	opts := []cv.Option{cv.WithSaveResult(save)}
	if t, _ := cmd.Flags().GetFloat64("threshold"); t > 0 {
		opts = append(opts, cv.WithThreshold(t))
	}
	minScale, _ := cmd.Flags().GetFloat64("min-scale")
	maxScale, _ := cmd.Flags().GetFloat64("max-scale")
	if minScale > 0 && maxScale > 0 {
		opts = append(opts, cv.WithScaleRange(minScale, maxScale))
	}

	for _, name := range args[1:] {
		result, err := vision.FindInFrame(frame, name, opts...)
		switch {
		case err != nil:
			fmt.Printf("%-20s error: %v\n", name, err)
		case result == nil:
			fmt.Printf("%-20s not found\n", name)
		default:
			x, y := result.Center()
			fmt.Printf("%-20s center (%d, %d) box %dx%d scale %.3f confidence %.3f\n",
				name, x, y, result.Width, result.Height, result.Scale, result.Confidence)
		}
	}
	return nil
}
