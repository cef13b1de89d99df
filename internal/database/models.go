package database

import (
	"time"
)

// Run is one process run of the bot
type Run struct {
	ID                string     `db:"id"`
	Mode              string     `db:"mode"`
	StartedAt         time.Time  `db:"started_at"`
	FinishedAt        *time.Time `db:"finished_at"`
	Battles           int        `db:"battles"`
	SuccessfulBattles int        `db:"successful_battles"`
	CardsPlayed       int        `db:"cards_played"`
	StopReason        *string    `db:"stop_reason"`
}

// BattleRecord is one battle attempt
type BattleRecord struct {
	ID            int64     `db:"id"`
	RunID         string    `db:"run_id"`
	BattleNumber  int       `db:"battle_number"`
	Mode          string    `db:"mode"`
	DeckIndex     int       `db:"deck_index"`
	CheckEndAfter int       `db:"check_end_after"`
	CardsPlayed   int       `db:"cards_played"`
	EndReason     string    `db:"end_reason"`
	Success       bool      `db:"success"`
	StartedAt     time.Time `db:"started_at"`
	FinishedAt    time.Time `db:"finished_at"`
}

// Duration returns how long the attempt took
func (b BattleRecord) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

// RecoveryRecord is one pass over the recovery templates
type RecoveryRecord struct {
	ID           int64     `db:"id"`
	RunID        string    `db:"run_id"`
	TemplateName *string   `db:"template_name"` // nil when nothing matched
	Recovered    bool      `db:"recovered"`
	OccurredAt   time.Time `db:"occurred_at"`
}

// ErrorLog is a reported failure
type ErrorLog struct {
	ID           int64     `db:"id"`
	RunID        string    `db:"run_id"`
	Category     string    `db:"category"`
	Component    *string   `db:"component"`
	Message      string    `db:"message"`
	ErrorMessage *string   `db:"error_message"`
	Recoverable  bool      `db:"recoverable"`
	OccurredAt   time.Time `db:"occurred_at"`
}

// RunStats aggregates the battles of a run
type RunStats struct {
	Battles           int
	SuccessfulBattles int
	CardsPlayed       int
	EndedByMarker     int
	EndedByCardLimit  int
	Recoveries        int
}
