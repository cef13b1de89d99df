package bot

import (
	"context"

	"jordanella.com/card-battle-go/internal/actions"
	"jordanella.com/card-battle-go/pkg/templates"
)

// RecoveryStep is one "back to the home screen" marker and how to tap it
type RecoveryStep struct {
	Template string
	Options  actions.TapOptions
}

// RecoverySteps returns the markers tried after a battle fails to start, in
// priority order. Only the first step captures a new frame; the rest match
// against that same capture.
func (b *Bot) RecoverySteps() []RecoveryStep {
	fresh := b.templateTap()
	reuse := fresh.Reuse()

	reward := reuse
	reward.ClickCount = b.config.RewardClicks
	reward.DelayAfter = b.config.RecoveryClickDelay

	returnToGame := reuse
	returnToGame.DelayAfter = b.config.RecoveryClickDelay

	return []RecoveryStep{
		{Template: templates.BattleInterface, Options: fresh},
		{Template: templates.BattleInterface2, Options: reuse},
		{Template: templates.Reward, Options: reward},
		{Template: templates.ReturnToGame, Options: returnToGame},
		{Template: templates.Close, Options: reuse},
		{Template: templates.Confirm2, Options: reuse},
	}
}

// returnHome taps the first recovery marker on screen. It returns the tapped
// template, or ErrRecoveryExhausted when none matched.
func (b *Bot) returnHome(ctx context.Context) (string, error) {
	b.setState(StateRecovering)
	b.logger.Warn("battle did not start, trying to return to the home screen")

	for _, step := range b.RecoverySteps() {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if b.actions.TapTemplate(ctx, step.Template, step.Options) {
			b.logger.Infof("tapped %s, back to the home screen", step.Template)
			b.recordRecovery(step.Template, true)
			b.setState(StateIdle)
			return step.Template, nil
		}
	}

	b.recordRecovery("", false)
	return "", ErrRecoveryExhausted
}
