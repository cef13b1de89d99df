package bot

import (
	"fmt"
	"time"
)

// BattleState is a step of the battle loop
type BattleState int

const (
	StateIdle BattleState = iota
	StateMatching
	StateMatchmakingWait // double mode only
	StateBattleWaitStart
	StateBattleActing
	StateBattleEndProbe
	StateBattleEnded
	StateDeckRotation
	StateRecovering
	StateStopped
)

// String returns human-readable state name
func (s BattleState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMatching:
		return "Matching"
	case StateMatchmakingWait:
		return "MatchmakingWait"
	case StateBattleWaitStart:
		return "BattleWaitStart"
	case StateBattleActing:
		return "BattleActing"
	case StateBattleEndProbe:
		return "BattleEndProbe"
	case StateBattleEnded:
		return "BattleEnded"
	case StateDeckRotation:
		return "DeckRotation"
	case StateRecovering:
		return "Recovering"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// EndReason records how a battle loop finished
type EndReason string

const (
	EndByMarker    EndReason = "marker"
	EndByCardLimit EndReason = "card_limit"
	EndInterrupted EndReason = "interrupted"
	EndNotStarted  EndReason = "not_started"
)

// Session holds the counters of one process run. It is only touched by the
// control goroutine and is never restored across runs.
type Session struct {
	CardsThisBattle   int
	SuccessfulBattles int
	TotalCardsPlayed  int
	DeckIndex         int
	BattlesWithDeck   int
	Attempts          int // battle cycles started, finished or not
	StartTime         time.Time
}

// NewSession starts a session now
func NewSession() *Session {
	return &Session{StartTime: time.Now()}
}

// AverageCards returns cards played per successful battle, 0 without data
func (s *Session) AverageCards() float64 {
	if s.SuccessfulBattles == 0 {
		return 0
	}
	return float64(s.TotalCardsPlayed) / float64(s.SuccessfulBattles)
}

// NextCheckEndAfter returns the card count after which the next battle
// starts probing for its end: ratio of the average, at least minimum, or
// fallback while no battle has succeeded.
func (s *Session) NextCheckEndAfter(ratio float64, minimum, fallback int) int {
	if s.SuccessfulBattles == 0 {
		return fallback
	}
	return max(minimum, int(s.AverageCards()*ratio))
}

// RecordSuccess folds a finished battle into the counters
func (s *Session) RecordSuccess() {
	s.SuccessfulBattles++
	s.TotalCardsPlayed += s.CardsThisBattle
	s.BattlesWithDeck++
}

// RotateDeck advances to the next of deckCount decks
func (s *Session) RotateDeck(deckCount int) int {
	s.DeckIndex = (s.DeckIndex + 1) % deckCount
	s.BattlesWithDeck = 0
	return s.DeckIndex
}

// Summary is the end-of-run report
type Summary struct {
	Battles           int
	SuccessfulBattles int
	TotalCards        int
	AverageCards      float64
	Elapsed           time.Duration
}

// Summary reads the counters
func (s *Session) Summary() Summary {
	return Summary{
		Battles:           s.Attempts,
		SuccessfulBattles: s.SuccessfulBattles,
		TotalCards:        s.TotalCardsPlayed,
		AverageCards:      s.AverageCards(),
		Elapsed:           time.Since(s.StartTime),
	}
}

// String formats the summary with the elapsed time in h/m/s
func (s Summary) String() string {
	total := int(s.Elapsed.Seconds())
	h, m, sec := total/3600, (total%3600)/60, total%60
	return fmt.Sprintf("battles: %d, successful: %d, cards played: %d, average cards per battle: %.2f, elapsed: %dh %dm %ds",
		s.Battles, s.SuccessfulBattles, s.TotalCards, s.AverageCards, h, m, sec)
}
