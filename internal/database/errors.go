package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Error logging operations

// LogError appends a reported failure to the run
func (j *Journal) LogError(category, component, message string, cause error, recoverable bool) error {
	var errMsg *string
	if cause != nil {
		s := cause.Error()
		errMsg = &s
	}
	var comp *string
	if component != "" {
		comp = &component
	}

	return j.db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO error_log (
				run_id, category, component, message, error_message, recoverable, occurred_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, j.runID, category, comp, message, errMsg, recoverable, time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert error log: %w", err)
		}
		return nil
	})
}

// GetRecentErrors returns the latest errors of a run, newest first
func (db *DB) GetRecentErrors(runID string, limit int) ([]*ErrorLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, run_id, category, component, message, error_message, recoverable, occurred_at
		FROM error_log
		WHERE run_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errors := []*ErrorLog{}
	for rows.Next() {
		e := &ErrorLog{}
		err := rows.Scan(
			&e.ID, &e.RunID, &e.Category, &e.Component, &e.Message,
			&e.ErrorMessage, &e.Recoverable, &e.OccurredAt,
		)
		if err != nil {
			return nil, err
		}
		errors = append(errors, e)
	}

	return errors, rows.Err()
}

// CountErrorsByCategory returns error counts of a run keyed by category
func (db *DB) CountErrorsByCategory(runID string) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT category, COUNT(*)
		FROM error_log
		WHERE run_id = ?
		GROUP BY category
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}
