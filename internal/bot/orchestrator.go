package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jordanella.com/card-battle-go/internal/actions"
	"jordanella.com/card-battle-go/internal/database"
	"jordanella.com/card-battle-go/internal/logging"
	"jordanella.com/card-battle-go/pkg/templates"
)

// Run plays battles until ctx is cancelled, maxBattles successful battles
// were played (0 means no limit), or recovery fails. It returns ctx.Err()
// on interruption, ErrRecoveryExhausted when the game is stuck, and nil
// when the battle limit was reached.
func (b *Bot) Run(ctx context.Context, maxBattles int) error {
	defer b.setState(StateStopped)

	for {
		if err := ctx.Err(); err != nil {
			b.logger.Info("interrupted, stopping")
			return err
		}
		if maxBattles > 0 && b.session.SuccessfulBattles >= maxBattles {
			b.logger.Infof("played %d battles, stopping", maxBattles)
			return nil
		}

		if b.session.BattlesWithDeck >= b.config.BattlesPerDeck {
			if err := b.RotateDeck(ctx); err != nil {
				return err
			}
		}

		b.logger.Info(strings.Repeat("=", 50))
		b.logger.Infof("deck %d, battle %d with this deck (battle #%d)",
			b.session.DeckIndex+1, b.session.BattlesWithDeck+1, b.session.Attempts+1)

		if b.config.Mode == ModeSingle {
			b.actions.TapTemplate(ctx, templates.BattleInterface3, b.templateTap())
			if b.pause(ctx, b.config.HomeSettle) != nil {
				continue
			}
		}

		checkEndAfter := b.session.NextCheckEndAfter(
			b.config.CheckEndRatio, b.config.MinCheckEndAfter, b.config.DefaultCheckEndAfter)
		if b.session.SuccessfulBattles > 0 {
			b.logger.Infof("checking for the battle end after %d cards", checkEndAfter)
		}

		started := time.Now()
		params := b.Params(checkEndAfter)
		b.session.Attempts++
		ok, reason := b.runBattleCycle(ctx, params)
		b.recordBattle(database.BattleRecord{
			BattleNumber:  b.session.Attempts,
			Mode:          string(params.Mode),
			DeckIndex:     b.session.DeckIndex,
			CheckEndAfter: checkEndAfter,
			CardsPlayed:   b.session.CardsThisBattle,
			EndReason:     string(reason),
			Success:       ok,
			StartedAt:     started,
			FinishedAt:    time.Now(),
		})

		// A battle that finished counts even when the run is interrupted
		// during the settle that follows it
		if ok {
			b.session.RecordSuccess()
			b.logger.InfoWithContext("battle finished", map[string]interface{}{
				"cards":         b.session.CardsThisBattle,
				"average_cards": fmt.Sprintf("%.2f", b.session.AverageCards()),
				"successful":    b.session.SuccessfulBattles,
			})
		}

		if ctx.Err() != nil {
			continue
		}

		if ok {
			b.setState(StateIdle)
			b.logger.Infof("next battle in %v", b.config.Cooldown)
			b.pause(ctx, b.config.Cooldown)
			continue
		}

		if _, err := b.returnHome(ctx); err != nil {
			if errors.Is(err, ErrRecoveryExhausted) {
				b.reportFatal(err)
			}
			return err
		}
	}
}

// RotateDeck opens the deck menu, selects the next of the five decks and
// confirms. The deck counter resets even if the taps miss.
func (b *Bot) RotateDeck(ctx context.Context) error {
	b.setState(StateDeckRotation)
	b.logger.Infof("%d battles with deck %d, switching deck", b.session.BattlesWithDeck, b.session.DeckIndex+1)

	menu := actions.TapOptions{JitterRadius: b.radius(b.config.MenuRadius), DelayAfter: b.config.DeckMenuSettle}
	if err := b.actions.TapPoint(ctx, b.layout.DeckMenu.X, b.layout.DeckMenu.Y, menu); err != nil {
		return err
	}
	if err := b.pause(ctx, b.config.DeckMenuSettle); err != nil {
		return err
	}

	index := b.session.RotateDeck(DeckCount)
	slot := b.layout.DeckSlots[index]
	b.logger.Infof("switching to deck %d at (%d, %d)", index+1, slot.X, slot.Y)

	pick := actions.TapOptions{JitterRadius: b.radius(b.config.MenuRadius), DelayAfter: b.config.DeckSlotSettle}
	if err := b.actions.TapPoint(ctx, slot.X, slot.Y, pick); err != nil {
		return err
	}
	if err := b.pause(ctx, b.config.DeckSlotSettle); err != nil {
		return err
	}

	confirm := actions.TapOptions{JitterRadius: b.radius(b.config.MenuRadius), DelayAfter: b.config.DeckConfirmDelay}
	if err := b.actions.TapPoint(ctx, b.layout.DeckConfirm.X, b.layout.DeckConfirm.Y, confirm); err != nil {
		return err
	}

	b.setState(StateIdle)
	return nil
}

func (b *Bot) reportFatal(err error) {
	if b.reporter != nil {
		b.reporter.ReportCriticalError(logging.ErrorCategoryRecovery, "Bot", "could not return to the home screen", err, map[string]interface{}{
			"battle": b.session.Attempts,
		})
		return
	}
	b.logger.Error("could not return to the home screen", err)
}
