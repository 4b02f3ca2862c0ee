package textinject

import (
	"context"
	"errors"

	"github.com/dictaflow/textinject/internal/clip"
	"github.com/dictaflow/textinject/internal/plan"
	"github.com/dictaflow/textinject/internal/synth"
)

// recoveryStep is one rung of the bounded fallback chain. Steps run in
// order with early exit on success, so every terminal outcome is
// enumerable.
type recoveryStep struct {
	name    string
	applies func(failed plan.Method, cause error) bool
	run     func(ctx context.Context, text string, p plan.Plan) Outcome
}

// recover walks the fallback chain after the selected method failed. The
// chain always terminates in a user-visible outcome: at worst the text
// lands on the clipboard for a manual paste.
func (c *coordinator) recover(ctx context.Context, text string, p plan.Plan, cause error) (Outcome, error) {
	steps := []recoveryStep{
		{
			name: "paste-fallback",
			applies: func(failed plan.Method, cause error) bool {
				return failed == plan.MethodKeystroke && errors.Is(cause, synth.ErrEventConstruction)
			},
			run: func(ctx context.Context, text string, p plan.Plan) Outcome {
				err := c.arbiter.Paste(ctx, text, clip.PasteParams{RestoreDelay: p.RestoreDelay})
				if err != nil {
					c.log.Warn().Err(err).Msg("paste fallback failed")
					return Outcome{}
				}
				return Outcome{Status: StatusDeliveredViaClipboardFallback, Method: MethodPaste}
			},
		},
		{
			name:    "copy-to-clipboard",
			applies: func(plan.Method, error) bool { return true },
			run: func(_ context.Context, text string, _ plan.Plan) Outcome {
				if err := c.arbiter.CopyOnly(text); err != nil {
					c.log.Error().Err(err).Msg("final clipboard hand-off failed")
					return Outcome{}
				}
				return Outcome{Status: StatusCopiedToClipboardOnly}
			},
		},
	}

	for _, step := range steps {
		if !step.applies(p.Method, cause) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		out := step.run(ctx, text, p)
		if out.Status != StatusRejected {
			c.log.Info().Str("step", step.name).Str("status", out.Status.String()).Msg("recovered")
			return out, nil
		}
	}

	// Even the clipboard refused the text; surface the original cause.
	return rejected(cause)
}
