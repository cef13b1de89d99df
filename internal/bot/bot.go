package bot

import (
	"errors"
	"fmt"

	"jordanella.com/card-battle-go/internal/actions"
	"jordanella.com/card-battle-go/internal/database"
	"jordanella.com/card-battle-go/internal/logging"
)

// ErrRecoveryExhausted means a battle failed to start and no recovery
// template matched. It ends the run.
var ErrRecoveryExhausted = errors.New("no recovery template matched")

// Journal receives an audit trail of the run. *database.Journal satisfies it.
type Journal interface {
	RecordBattle(rec database.BattleRecord) error
	RecordRecovery(template string, recovered bool) error
}

// Bot drives battles on one device
type Bot struct {
	config     *Config
	layout     Layout // device coordinates
	translator *CoordinateTranslator
	actions    *actions.Controller
	session    *Session
	state      BattleState
	journal    Journal
	logger     *logging.Logger
	reporter   *logging.ErrorReporter
}

// New creates a bot. The layout is used unscaled until WithTranslator is
// called.
func New(config *Config, controller *actions.Controller, logger *logging.Logger) (*Bot, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}

	b := &Bot{
		config:     config,
		translator: IdentityTranslator(),
		actions:    controller,
		session:    NewSession(),
		state:      StateIdle,
		logger:     logger.Component("Bot"),
	}
	b.layout = config.Layout
	return b, nil
}

// WithTranslator scales the layout to the device screen
func (b *Bot) WithTranslator(translator *CoordinateTranslator) *Bot {
	b.translator = translator
	b.layout = translator.TranslateLayout(b.config.Layout)
	b.logger.Infof("coordinates: %s", translator)
	return b
}

// WithJournal enables the battle journal
func (b *Bot) WithJournal(journal Journal) *Bot {
	b.journal = journal
	return b
}

// WithErrorReporter enables error categorization
func (b *Bot) WithErrorReporter(reporter *logging.ErrorReporter) *Bot {
	b.reporter = reporter
	return b
}

// Session returns the run counters
func (b *Bot) Session() *Session {
	return b.session
}

// State returns the current loop state
func (b *Bot) State() BattleState {
	return b.state
}

// Config returns the bot configuration
func (b *Bot) Config() *Config {
	return b.config
}

// Layout returns the tap targets in device coordinates
func (b *Bot) Layout() Layout {
	return b.layout
}

func (b *Bot) setState(state BattleState) {
	if state == b.state {
		return
	}
	b.logger.Debugf("state %s -> %s", b.state, state)
	b.state = state
}

// radius scales a configured jitter radius to the device
func (b *Bot) radius(r int) int {
	return b.translator.TranslateRadius(r)
}

// templateTap returns the options for a single fresh template tap
func (b *Bot) templateTap() actions.TapOptions {
	opts := actions.DefaultTapOptions()
	opts.JitterRadius = b.radius(b.config.TemplateRadius)
	return opts
}

func (b *Bot) recordBattle(rec database.BattleRecord) {
	if b.journal == nil {
		return
	}
	if err := b.journal.RecordBattle(rec); err != nil {
		b.reportJournal(err)
	}
}

func (b *Bot) recordRecovery(template string, recovered bool) {
	if b.journal == nil {
		return
	}
	if err := b.journal.RecordRecovery(template, recovered); err != nil {
		b.reportJournal(err)
	}
}

func (b *Bot) reportJournal(err error) {
	if b.reporter != nil {
		b.reporter.ReportError(logging.ErrorCategoryJournal, "Bot", "journal write failed", err)
		return
	}
	b.logger.Error("journal write failed", err)
}
