package textinject

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dictaflow/textinject/internal/clip"
	"github.com/dictaflow/textinject/internal/compat"
	"github.com/dictaflow/textinject/internal/focus"
	"github.com/dictaflow/textinject/internal/keymap"
	"github.com/dictaflow/textinject/internal/plan"
	"github.com/dictaflow/textinject/internal/synth"
)

// coordState tracks one request through the coordinator. Transitions only
// move forward; Failed and Done are terminal.
type coordState int

const (
	stateIdle coordState = iota
	stateTargetResolved
	stateMethodSelected
	stateInjecting
	stateDone
	stateFailed
)

func (s coordState) String() string {
	switch s {
	case stateTargetResolved:
		return "target-resolved"
	case stateMethodSelected:
		return "method-selected"
	case stateInjecting:
		return "injecting"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// coordinator executes one injection request at a time. The queue in
// Injector guarantees run is never entered concurrently.
type coordinator struct {
	authorized func() bool
	inspector  focus.Inspector
	typer      *synth.Typer
	arbiter    *clip.Arbiter
	table      *compat.Table
	plans      *plan.Cache
	log        zerolog.Logger
}

func (c *coordinator) run(ctx context.Context, req Request) (Outcome, error) {
	st := stateIdle
	log := c.log.With().Int("chars", len([]rune(req.Text))).Logger()

	// The capability gate guards the Idle -> TargetResolved transition: a
	// closed gate means no events are dispatched and no clipboard is
	// touched.
	if !c.authorized() {
		st = stateFailed
		log.Warn().Stringer("state", st).Msg("input synthesis not authorized")
		return rejected(ErrUnauthorized)
	}

	target, err := c.inspector.CurrentTarget()
	if err != nil {
		log.Debug().Err(err).Msg("focus inspection failed")
	}
	if !focus.Accepts(target) {
		st = stateFailed
		log.Info().Stringer("state", st).Msg("no editable target focused")
		return rejected(ErrNoEditableTarget)
	}
	st = stateTargetResolved

	appID := req.AppHint
	if appID == "" {
		appID = target.AppID
	}

	p := c.plans.For(req.Text, toPlanMethod(req.Method), appID)

	// Oversized grapheme clusters cannot be typed event by event; route the
	// whole text through the clipboard, recovered locally without
	// surfacing to the caller.
	if p.Method == plan.MethodKeystroke {
		if _, err := keymap.Sequence(req.Text); err != nil {
			log.Debug().Err(err).Msg("text not typable, switching to paste")
			p.Method = plan.MethodPaste
		}
	}
	st = stateMethodSelected
	log.Debug().Stringer("state", st).Str("app", appID).Str("method", p.Method.String()).Msg("plan selected")

	// A pre-hook failure is an injection failure: nothing has been
	// dispatched yet, so the recovery chain still guarantees the text
	// lands somewhere.
	if err := c.runHook(ctx, p.PreHook); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Outcome{}, err
		}
		log.Warn().Err(err).Str("hook", p.PreHook).Msg("pre-hook failed, entering recovery chain")
		return c.recover(ctx, req.Text, p, err)
	}
	if err := sleepCtx(ctx, p.PreDelay); err != nil {
		return Outcome{}, err
	}

	st = stateInjecting
	err = c.execute(ctx, req.Text, p)
	if err == nil {
		// The text is already in the target; a post-hook or post-delay
		// failure must not mask the delivery, or the caller would
		// re-inject and double the text.
		if herr := c.runHook(ctx, p.PostHook); herr != nil {
			log.Warn().Err(herr).Str("hook", p.PostHook).Msg("post-hook failed after delivery")
		} else if herr := sleepCtx(ctx, p.PostDelay); herr != nil {
			log.Debug().Err(herr).Msg("post-delay cut short")
		}
		st = stateDone
		log.Info().Stringer("state", st).Str("method", p.Method.String()).Msg("text injected")
		return Outcome{Status: StatusDelivered, Method: fromPlanMethod(p.Method)}, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{}, err
	}

	// The selected method failed; no same-method retry, hand off to the
	// recovery chain.
	log.Warn().Err(err).Str("method", p.Method.String()).Msg("injection failed, entering recovery chain")
	return c.recover(ctx, req.Text, p, err)
}

func (c *coordinator) execute(ctx context.Context, text string, p plan.Plan) error {
	switch p.Method {
	case plan.MethodKeystroke:
		return c.typer.Type(ctx, text, p.InterKeyDelay)
	default:
		return c.arbiter.Paste(ctx, text, clip.PasteParams{
			RestoreDelay:      p.RestoreDelay,
			ExplicitModifiers: p.Method == plan.MethodPasteExplicit,
		})
	}
}

func (c *coordinator) runHook(ctx context.Context, name string) error {
	hook, ok := c.table.Hook(name)
	if !ok {
		return nil
	}
	return hook(ctx)
}

func rejected(reason error) (Outcome, error) {
	return Outcome{Status: StatusRejected, Reason: reason}, reason
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
