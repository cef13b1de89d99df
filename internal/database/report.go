package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRuns means the journal holds no run yet
var ErrNoRuns = errors.New("journal has no runs")

// RunReport is everything the journal knows about one run
type RunReport struct {
	Run           *Run
	Stats         *RunStats
	Battles       []*BattleRecord
	ErrorCounts   map[string]int
	RecentErrors  []*ErrorLog // newest first
	TableCounts   map[string]int64
	SchemaVersion int
}

// LatestRunID returns the ID of the most recently started run
func (db *DB) LatestRunID() (string, error) {
	var id string
	err := db.conn.QueryRow(`
		SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", fmt.Errorf("failed to find latest run: %w", err)
	}
	return id, nil
}

// Report collects the run row, its battle aggregates and its errors. An
// empty runID selects the latest run.
func (db *DB) Report(runID string, recentErrors int) (*RunReport, error) {
	if runID == "" {
		latest, err := db.LatestRunID()
		if err != nil {
			return nil, err
		}
		runID = latest
	}

	report := &RunReport{}
	var err error

	if report.Run, err = db.GetRun(runID); err != nil {
		return nil, err
	}
	if report.Stats, err = db.GetRunStats(runID); err != nil {
		return nil, err
	}
	if report.Battles, err = db.ListBattles(runID); err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	if report.ErrorCounts, err = db.CountErrorsByCategory(runID); err != nil {
		return nil, fmt.Errorf("failed to count errors: %w", err)
	}
	if report.RecentErrors, err = db.GetRecentErrors(runID, recentErrors); err != nil {
		return nil, fmt.Errorf("failed to read errors: %w", err)
	}
	if report.TableCounts, err = db.GetStats(); err != nil {
		return nil, err
	}
	if report.SchemaVersion, err = db.GetVersion(); err != nil {
		return nil, err
	}

	return report, nil
}
