// Command battle-bot plays card battles on an Android emulator over ADB.
package main

import (
	"log"
	"os"
	"path/filepath"

	cli "github.com/spf13/cobra"
	"jordanella.com/card-battle-go/internal/adb"
	"jordanella.com/card-battle-go/internal/bot"
	"jordanella.com/card-battle-go/internal/config"
	"jordanella.com/card-battle-go/internal/logging"
	"jordanella.com/card-battle-go/pkg/templates"
)

var rootCmd = &cli.Command{
	Use:           "battle-bot",
	Short:         "Card battle automation for an Android emulator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "Settings.ini", "Path to the settings file.")
	rootCmd.PersistentFlags().StringP("mode", "m", "", "Battle mode: single, double or defense. Overrides the settings file.")
	rootCmd.PersistentFlags().String("serial", "", "Device serial, or auto for the only attached device. Overrides the settings file.")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Log at DEBUG level.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln("ERROR:", err)
	}
}

// loadSettings reads the settings file named by --config. A missing file
// falls back to the defaults of the requested mode.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	mode, _ := cmd.Flags().GetString("mode")
	serial, _ := cmd.Flags().GetString("serial")

	settings, err := config.LoadFromINI(path, mode)
	if err != nil {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			return nil, err
		}
		log.Printf("Warning: %s not found, using defaults", path)
		parsed := bot.ModeSingle
		if mode != "" {
			if parsed, err = bot.ParseMode(mode); err != nil {
				return nil, err
			}
		}
		settings = config.NewDefaultSettings(parsed)
	}

	if serial != "" {
		settings.Device.Serial = serial
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		settings.LogLevel = string(logging.LogLevelDebug)
	}
	return settings, nil
}

func newLogger(settings *config.Settings) *logging.Logger {
	return logging.NewLogger("Main").SetMinLevel(logging.ParseLevel(settings.LogLevel))
}

// connectDevice locates adb, connects to the configured serial and wraps it
// as a capture and tap device
func connectDevice(settings *config.Settings, logger *logging.Logger) (*adb.Device, error) {
	ctrl, err := adb.ConnectADB(settings.Device.ADBPath, settings.Device.Serial)
	if err != nil {
		return nil, err
	}
	logger.Infof("connected to %s", ctrl.Serial())
	return adb.NewDevice(ctrl, settings.Device.RemotePath, settings.Device.ScreenshotPath, logger), nil
}

// loadRegistry creates the template registry for the assets directory and
// applies the optional YAML definitions found there
func loadRegistry(settings *config.Settings, logger *logging.Logger) (*templates.TemplateRegistry, error) {
	registry := templates.NewTemplateRegistry(settings.AssetsDir)
	if settings.TemplatesFile == "" {
		return registry, nil
	}

	path := settings.TemplatesFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(settings.AssetsDir, path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debugf("no template definitions at %s, using %s/<name>%s", path, settings.AssetsDir, templates.DefaultImageExt)
		return registry, nil
	}

	if err := registry.LoadFromFile(path); err != nil {
		return nil, err
	}
	logger.Infof("loaded %d template definitions from %s", len(registry.List()), path)
	return registry, nil
}
