package bot

import (
	"context"
	"time"

	"jordanella.com/card-battle-go/internal/cv"
	"jordanella.com/card-battle-go/pkg/templates"
)

// BattleParams are the inputs of one battle cycle
type BattleParams struct {
	Mode          Mode
	WaitTime      time.Duration
	MaxCards      int
	CheckEndAfter int // card actions before probing for the end marker
}

// Params returns the battle parameters of the configured mode
func (b *Bot) Params(checkEndAfter int) BattleParams {
	return BattleParams{
		Mode:          b.config.Mode,
		WaitTime:      b.config.WaitTime,
		MaxCards:      b.config.MaxCards,
		CheckEndAfter: checkEndAfter,
	}
}

// RunBattleCycle enters a battle, plays cards until an end marker appears or
// MaxCards actions were made, and reports whether the battle ran. Reaching
// MaxCards without a marker counts as a finished battle. Only a battle that
// could not be entered, or an interruption, returns false.
func (b *Bot) RunBattleCycle(ctx context.Context, params BattleParams) bool {
	ok, _ := b.runBattleCycle(ctx, params)
	return ok
}

func (b *Bot) runBattleCycle(ctx context.Context, params BattleParams) (bool, EndReason) {
	b.session.CardsThisBattle = 0

	b.setState(StateMatching)
	if !b.actions.TapTemplate(ctx, templates.Combat, b.templateTap()) {
		b.logger.Warn("could not tap the combat button")
		b.setState(StateIdle)
		return false, EndNotStarted
	}

	if params.Mode == ModeDouble {
		b.setState(StateMatchmakingWait)
		if !b.actions.TapTemplate(ctx, templates.QuickMatching, b.templateTap()) {
			b.logger.Warn("could not tap quick matching")
			b.setState(StateIdle)
			return false, EndNotStarted
		}
		if b.pause(ctx, b.config.QuickMatchSettle) != nil {
			return false, EndInterrupted
		}
	}

	b.setState(StateBattleWaitStart)
	b.logger.Infof("waiting %v for the battle to start", params.WaitTime)
	if b.pause(ctx, params.WaitTime) != nil {
		return false, EndInterrupted
	}

	pacing, dropZone := b.modeSettings(params.Mode)
	reason := EndByCardLimit

	for i := 0; i < params.MaxCards; i++ {
		if ctx.Err() != nil {
			return false, EndInterrupted
		}

		if i >= params.CheckEndAfter {
			b.setState(StateBattleEndProbe)
			if b.lookForEnd(ctx, params.Mode) {
				reason = EndByMarker
				break
			}
		}

		b.setState(StateBattleActing)
		b.logger.Debugf("playing card %d", i+1)
		if !b.playCard(ctx, dropZone) {
			if ctx.Err() != nil {
				return false, EndInterrupted
			}
			b.logger.Warnf("card %d could not be played", i+1)
			continue
		}
		b.session.CardsThisBattle = i + 1

		if b.pause(ctx, pacing.Next(b.actions.Rand())) != nil {
			return false, EndInterrupted
		}
	}

	b.setState(StateBattleEnded)
	if reason == EndByMarker {
		b.logger.Infof("battle end marker found after %d cards", b.session.CardsThisBattle)
	} else {
		b.logger.Infof("played %d card actions, battle loop done", params.MaxCards)
	}

	// An interrupted settle still leaves a finished battle
	b.pause(ctx, b.config.BattleEndSettle)
	return true, reason
}

// lookForEnd looks for the end-of-battle marker and taps it
func (b *Bot) lookForEnd(ctx context.Context, mode Mode) bool {
	opts := b.templateTap()
	if mode == ModeDouble {
		return b.actions.TapTemplate(ctx, templates.Exit, opts) ||
			b.actions.TapTemplate(ctx, templates.Confirm2, opts.Reuse())
	}
	return b.actions.TapTemplate(ctx, templates.Confirm, opts)
}

// playCard drags a random card into a random point of the drop zone
func (b *Bot) playCard(ctx context.Context, dropZone cv.Region) bool {
	rng := b.actions.Rand()

	slot := b.layout.CardSlots[rng.Intn(len(b.layout.CardSlots))]
	if err := b.actions.Tap(slot.X, slot.Y, b.radius(b.config.CardRadius)); err != nil {
		return false
	}
	if b.pause(ctx, b.config.CardSelectDelay) != nil {
		return false
	}

	drop := dropZone.RandomPoint(rng)
	if err := b.actions.Tap(drop.X, drop.Y, b.radius(b.config.DropRadius)); err != nil {
		return false
	}

	b.logger.InfoWithContext("card played", map[string]interface{}{
		"card_x": slot.X,
		"card_y": slot.Y,
		"drop_x": drop.X,
		"drop_y": drop.Y,
	})
	return true
}

// modeSettings returns the pacing and the device drop zone for mode
func (b *Bot) modeSettings(mode Mode) (Pacing, cv.Region) {
	if mode == b.config.Mode {
		return b.config.Pacing, b.layout.DropZone
	}
	return DefaultPacing(mode), b.translator.TranslateRegion(DefaultLayout(mode).DropZone)
}

func (b *Bot) pause(ctx context.Context, d time.Duration) error {
	return b.actions.Sleep(ctx, d)
}
