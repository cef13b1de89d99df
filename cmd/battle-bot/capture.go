package main

import (
	"fmt"

	cli "github.com/spf13/cobra"
)

var captureCmd = &cli.Command{
	Use:   "capture",
	Short: "Take a screenshot",
	Long:  "Capture one screenshot from the device into the configured screenshot path.",
	RunE:  Capture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
}

func Capture(cmd *cli.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(settings)

	device, err := connectDevice(settings, logger)
	if err != nil {
		return err
	}
	defer device.Controller().Disconnect()

	frame, err := device.CaptureFrame()
	if err != nil {
		return err
	}

	fmt.Printf("saved %dx%d screenshot to %s\n", frame.Width(), frame.Height(), settings.Device.ScreenshotPath)
	return nil
}
