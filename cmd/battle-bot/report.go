package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	cli "github.com/spf13/cobra"
	"jordanella.com/card-battle-go/internal/database"
)

var reportCmd = &cli.Command{
	Use:   "report [run-id]",
	Short: "Show a run from the battle journal",
	Long:  "Print the battles, recoveries and errors the journal recorded for a run. Without a run ID the latest run is shown.",
	Args:  cli.MaximumNArgs(1),
	RunE:  Report,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("journal", "", "SQLite battle journal path. Overrides the settings file.")
	reportCmd.Flags().Int("errors", 10, "Recent errors to list.")
}

func Report(cmd *cli.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("journal"); path != "" {
		settings.JournalPath = path
	}
	if settings.JournalPath == "" {
		return fmt.Errorf("no journal configured, set journalPath or --journal")
	}
	if _, err := os.Stat(settings.JournalPath); err != nil {
		return fmt.Errorf("journal %s: %w", settings.JournalPath, err)
	}

	db, err := openJournalDB(settings.JournalPath, newLogger(settings))
	if err != nil {
		return err
	}
	defer db.Close()

	var runID string
	if len(args) > 0 {
		runID = args[0]
	}
	limit, _ := cmd.Flags().GetInt("errors")

	report, err := db.Report(runID, limit)
	if err != nil {
		return fmt.Errorf("%s: %w", db.Path(), err)
	}
	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, r *database.RunReport) {
	run := r.Run
	fmt.Fprintf(w, "run %s (%s) started %s\n", run.ID, run.Mode, run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		reason := "unknown"
		if run.StopReason != nil {
			reason = *run.StopReason
		}
		fmt.Fprintf(w, "  finished %s after %v: %s\n",
			run.FinishedAt.Format("2006-01-02 15:04:05"), run.FinishedAt.Sub(run.StartedAt).Round(time.Second), reason)
	}

	s := r.Stats
	fmt.Fprintf(w, "  battles: %d, successful: %d, cards played: %d\n", s.Battles, s.SuccessfulBattles, s.CardsPlayed)
	fmt.Fprintf(w, "  ended by marker: %d, by card limit: %d, recoveries: %d\n", s.EndedByMarker, s.EndedByCardLimit, s.Recoveries)

	for _, b := range r.Battles {
		fmt.Fprintf(w, "  #%-4d deck %d  %-11s cards %-3d %v\n", b.BattleNumber, b.DeckIndex+1, b.EndReason, b.CardsPlayed, b.Duration().Round(time.Second))
	}

	if len(r.ErrorCounts) > 0 {
		categories := make([]string, 0, len(r.ErrorCounts))
		for c := range r.ErrorCounts {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Fprintf(w, "  errors %s: %d\n", c, r.ErrorCounts[c])
		}
	}
	for _, e := range r.RecentErrors {
		line := e.Message
		if e.ErrorMessage != nil {
			line += ": " + *e.ErrorMessage
		}
		fmt.Fprintf(w, "  %s [%s] %s\n", e.OccurredAt.Format("15:04:05"), e.Category, line)
	}

	fmt.Fprintf(w, "journal schema v%d: %d runs, %d battles, %d recoveries, %d errors\n", r.SchemaVersion,
		r.TableCounts["runs"], r.TableCounts["battles"], r.TableCounts["recoveries"], r.TableCounts["error_log"])
}
