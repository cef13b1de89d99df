package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Journal appends the battles of one run. Counters are never read back into
// a running session.
type Journal struct {
	db    *DB
	runID string
}

// NewJournal creates a journal with a fresh run ID
func NewJournal(db *DB) *Journal {
	return &Journal{
		db:    db,
		runID: uuid.NewString(),
	}
}

// RunID returns the ID stamped on every row of this run
func (j *Journal) RunID() string {
	return j.runID
}

// StartRun inserts the run row
func (j *Journal) StartRun(mode string) error {
	_, err := j.db.conn.Exec(`
		INSERT INTO runs (id, mode, started_at)
		VALUES (?, ?, ?)
	`, j.runID, mode, time.Now())
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of the run
func (j *Journal) FinishRun(battles, successful, cards int, reason string) error {
	_, err := j.db.conn.Exec(`
		UPDATE runs
		SET finished_at = ?, battles = ?, successful_battles = ?, cards_played = ?, stop_reason = ?
		WHERE id = ?
	`, time.Now(), battles, successful, cards, reason, j.runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecordBattle appends a battle attempt
func (j *Journal) RecordBattle(rec BattleRecord) error {
	rec.RunID = j.runID
	return j.db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO battles (
				run_id, battle_number, mode, deck_index, check_end_after,
				cards_played, end_reason, success, started_at, finished_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.RunID, rec.BattleNumber, rec.Mode, rec.DeckIndex, rec.CheckEndAfter,
			rec.CardsPlayed, rec.EndReason, rec.Success, rec.StartedAt, rec.FinishedAt)
		if err != nil {
			return fmt.Errorf("failed to insert battle: %w", err)
		}
		return nil
	})
}

// RecordRecovery appends a recovery pass. An empty template means nothing
// matched.
func (j *Journal) RecordRecovery(template string, recovered bool) error {
	var name *string
	if template != "" {
		name = &template
	}

	_, err := j.db.conn.Exec(`
		INSERT INTO recoveries (run_id, template_name, recovered, occurred_at)
		VALUES (?, ?, ?, ?)
	`, j.runID, name, recovered, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert recovery: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(runID string) (*Run, error) {
	run := &Run{}
	err := db.conn.QueryRow(`
		SELECT id, mode, started_at, finished_at, battles, successful_battles, cards_played, stop_reason
		FROM runs
		WHERE id = ?
	`, runID).Scan(
		&run.ID, &run.Mode, &run.StartedAt, &run.FinishedAt,
		&run.Battles, &run.SuccessfulBattles, &run.CardsPlayed, &run.StopReason,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListBattles returns the battles of a run in order
func (db *DB) ListBattles(runID string) ([]*BattleRecord, error) {
	rows, err := db.conn.Query(`
		SELECT
			id, run_id, battle_number, mode, deck_index, check_end_after,
			cards_played, end_reason, success, started_at, finished_at
		FROM battles
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	battles := []*BattleRecord{}
	for rows.Next() {
		b := &BattleRecord{}
		err := rows.Scan(
			&b.ID, &b.RunID, &b.BattleNumber, &b.Mode, &b.DeckIndex, &b.CheckEndAfter,
			&b.CardsPlayed, &b.EndReason, &b.Success, &b.StartedAt, &b.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		battles = append(battles, b)
	}

	return battles, rows.Err()
}

// GetRunStats aggregates the battles and recoveries of a run
func (db *DB) GetRunStats(runID string) (*RunStats, error) {
	stats := &RunStats{}
	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success THEN cards_played ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN end_reason = 'marker' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN end_reason = 'card_limit' THEN 1 ELSE 0 END), 0)
		FROM battles
		WHERE run_id = ?
	`, runID).Scan(
		&stats.Battles, &stats.SuccessfulBattles, &stats.CardsPlayed,
		&stats.EndedByMarker, &stats.EndedByCardLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate battles: %w", err)
	}

	err = db.conn.QueryRow(`
		SELECT COUNT(*) FROM recoveries WHERE run_id = ? AND recovered
	`, runID).Scan(&stats.Recoveries)
	if err != nil {
		return nil, fmt.Errorf("failed to count recoveries: %w", err)
	}

	return stats, nil
}
