package clip

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ComboDispatcher sends the paste key-combo through the low-level event
// path shared with synthetic typing.
type ComboDispatcher interface {
	PasteCombo(ctx context.Context, explicit bool) error
}

// settleDelay lets the OS settle a fresh clipboard write before the paste
// combo references it.
const settleDelay = 10 * time.Millisecond

// PasteParams are the timing knobs for one paste operation, derived
// upstream from the injection plan.
type PasteParams struct {
	// RestoreDelay is how long the target application gets to consume the
	// paste before the clipboard is restored, already scaled with text
	// length by the planner.
	RestoreDelay time.Duration
	// ExplicitModifiers selects the discrete-modifier-event combo variant.
	ExplicitModifiers bool
}

// Arbiter owns the save/write/paste/restore cycle. Callers must serialize
// operations; the clipboard is a shared mutable resource and a concurrent
// write during the restore window corrupts both requests.
type Arbiter struct {
	cb    Clipboard
	combo ComboDispatcher
	log   zerolog.Logger

	sleep func(context.Context, time.Duration) error
}

// NewArbiter creates an Arbiter over the given clipboard and combo path.
func NewArbiter(cb Clipboard, combo ComboDispatcher, log zerolog.Logger) *Arbiter {
	return &Arbiter{cb: cb, combo: combo, log: log, sleep: sleepCtx}
}

// Paste injects text by overwriting the clipboard and dispatching the paste
// combo, then restores the prior clipboard contents. Once the clipboard has
// been overwritten the restore step runs even if ctx is cancelled, so the
// user's clipboard is never leaked. An external clipboard write during the
// operation skips restoration (correctness over tidiness) and is not a
// failure.
func (a *Arbiter) Paste(ctx context.Context, text string, p PasteParams) error {
	// Before the first write, cancellation is side-effect free.
	if err := ctx.Err(); err != nil {
		return err
	}

	saved, err := Save(a.cb)
	if err != nil {
		return fmt.Errorf("save clipboard: %w", err)
	}

	if err := a.cb.WriteText(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	// From here on the user's clipboard holds our text; restore is
	// guaranteed, conflict check included.
	defer func() {
		if rerr := saved.Restore(a.cb); rerr != nil {
			if rerr == ErrConflict {
				a.log.Debug().Msg("clipboard changed externally, leaving it alone")
			} else {
				a.log.Warn().Err(rerr).Msg("clipboard restore failed")
			}
		}
	}()

	if err := a.sleep(ctx, settleDelay); err != nil {
		return err
	}

	if err := a.combo.PasteCombo(ctx, p.ExplicitModifiers); err != nil {
		return fmt.Errorf("paste combo: %w", err)
	}

	// Larger pastes take targets longer to consume; restoring early races
	// the target's clipboard read. On cancellation we skip the wait and
	// restore immediately.
	if err := a.sleep(ctx, p.RestoreDelay); err != nil {
		return err
	}

	a.log.Debug().Int("chars", len([]rune(text))).Dur("restore_delay", p.RestoreDelay).Msg("pasted text")
	return nil
}

// CopyOnly writes the text to the clipboard with no paste simulation and no
// restore. Final fallback: the caller reports "delivered to clipboard, not
// injected" so the user can paste manually.
func (a *Arbiter) CopyOnly(text string) error {
	if err := a.cb.WriteText(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
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
