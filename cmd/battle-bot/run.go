package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/cobra"
	"jordanella.com/card-battle-go/internal/actions"
	"jordanella.com/card-battle-go/internal/adb"
	"jordanella.com/card-battle-go/internal/bot"
	"jordanella.com/card-battle-go/internal/config"
	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/internal/database"
	"jordanella.com/card-battle-go/internal/logging"
)

var runCmd = &cli.Command{
	Use:   "run",
	Short: "Run battles",
	Long:  "Play battles in the configured mode until interrupted, the battle limit is reached or the game gets stuck.",
	RunE:  Run,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("battles", "n", -1, "Successful battles to play, 0 for no limit. Overrides the settings file.")
	runCmd.Flags().String("journal", "", "SQLite battle journal path. Overrides the settings file.")
}

func Run(cmd *cli.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("battles"); n >= 0 {
		settings.MaxBattles = n
	}
	if path, _ := cmd.Flags().GetString("journal"); path != "" {
		settings.JournalPath = path
	}

	logger := newLogger(settings)
	if f, err := logger.OpenLogFile(settings.LogDir); err != nil {
		logger.Warnf("file logging disabled: %v", err)
	} else {
		defer f.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device, err := connectDevice(settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Controller().Disconnect(); err != nil {
			logger.Warnf("disconnect failed: %v", err)
		}
	}()

	registry, err := loadRegistry(settings, logger)
	if err != nil {
		return err
	}

	vision := cv.NewService(device, registry, logger).
		WithDefaults(settings.Match).
		WithResults(settings.ResultsDir, settings.SaveResults)
	if err := vision.ResetResults(); err != nil {
		logger.Warnf("could not clear %s: %v", settings.ResultsDir, err)
	}

	reporter := logging.NewErrorReporter(logger)
	controller := actions.NewController(device, vision, logger).WithErrorReporter(reporter)

	b, err := bot.New(settings.Bot, controller, logger)
	if err != nil {
		return err
	}
	b.WithErrorReporter(reporter).WithTranslator(resolveTranslator(settings, device, logger))

	var journal *database.Journal
	var db *database.DB
	if settings.JournalPath != "" {
		db, err = openJournalDB(settings.JournalPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		journal = database.NewJournal(db)
		if err := journal.StartRun(string(settings.Bot.Mode)); err != nil {
			return fmt.Errorf("failed to start journal run: %w", err)
		}
		b.WithJournal(journal)
		reporter.OnReport(func(r *logging.ErrorReport) {
			if err := journal.LogError(string(r.Category), r.Component, r.Message, r.Error, r.Recoverable); err != nil {
				logger.Warnf("journal error log failed: %v", err)
			}
		})
		logger.Infof("journal run %s in %s", journal.RunID(), settings.JournalPath)
	}

	logger.InfoWithContext("starting", map[string]interface{}{
		"mode":        settings.Bot.Mode,
		"max_battles": settings.MaxBattles,
		"threshold":   settings.Match.Threshold,
	})
	runErr := b.Run(ctx, settings.MaxBattles)

	summary := b.Session().Summary()
	logger.Info(summary.String())
	if categories, counts := reporter.Counts(); len(categories) > 0 {
		for _, c := range categories {
			logger.Infof("errors %s: %d", c, counts[c])
		}
	}

	if journal != nil {
		if err := journal.FinishRun(summary.Battles, summary.SuccessfulBattles, summary.TotalCards, stopReason(runErr)); err != nil {
			logger.Warnf("failed to finish journal run: %v", err)
		} else if report, err := db.Report(journal.RunID(), 5); err != nil {
			logger.Warnf("failed to read journal run: %v", err)
		} else {
			printReport(os.Stdout, report)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func stopReason(err error) string {
	switch {
	case err == nil:
		return "battle_limit"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, bot.ErrRecoveryExhausted):
		return "recovery_exhausted"
	default:
		return "error"
	}
}

func openJournalDB(path string, logger *logging.Logger) (*database.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	db.WithLogger(logger)
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// resolveTranslator scales the reference layout to the device screen. The
// detected `wm size` resolution wins, then the configured profile. Without
// either the layout is used as is.
func resolveTranslator(settings *config.Settings, device *adb.Device, logger *logging.Logger) *bot.CoordinateTranslator {
	target := bot.CoordinateConfig{
		SourceWidth:  settings.Bot.ReferenceWidth,
		SourceHeight: settings.Bot.ReferenceHeight,
	}

	if settings.DetectResolution {
		w, h, err := device.ScreenSize()
		if err == nil {
			target.TargetWidth, target.TargetHeight = w, h
			return bot.NewCoordinateTranslator(target)
		}
		logger.Warnf("resolution detection failed: %v", err)
	}

	if profile, ok := bot.LookupProfile(settings.Profile); ok {
		target.TargetWidth, target.TargetHeight = profile.Width, profile.Height
		return bot.NewCoordinateTranslator(target)
	}

	return bot.IdentityTranslator()
}
