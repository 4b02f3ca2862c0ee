// Package synth types text by dispatching low-level keyboard press/release
// pairs into the OS input stream, one grapheme at a time.
package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dictaflow/textinject/internal/keymap"
)

// ErrEventConstruction reports that the OS refused to construct a keyboard
// event (resource exhaustion). Not retried here; the caller decides whether
// to fall back to the clipboard.
var ErrEventConstruction = errors.New("synth: event construction failed")

// Poster dispatches one key event into the OS input stream. Fire and
// forget: the OS gives no acknowledgment.
type Poster interface {
	Post(ks keymap.Keystroke, pressed bool) error
}

// QueueProber is optionally implemented by posters that can tell whether
// the input queue has drained since the last event. Used for adaptive
// pacing under system load.
type QueueProber interface {
	Drained() bool
}

// Pacing faster than ~0.3-0.5ms causes silent event coalescing in the OS
// input queue; adaptive backoff never exceeds the cap.
const adaptiveDelayCap = 50 * time.Millisecond

// Typer injects text as synthetic keystrokes.
type Typer struct {
	poster Poster
	log    zerolog.Logger

	sleep func(context.Context, time.Duration) error
}

// NewTyper creates a Typer posting through p.
func NewTyper(p Poster, log zerolog.Logger) *Typer {
	return &Typer{poster: p, log: log, sleep: sleepCtx}
}

// Type maps text to keystrokes and dispatches a press/release pair per
// grapheme cluster, suspending for interKey between characters. The delay
// is a scheduling yield, not a busy wait. If the poster reports an
// undrained input queue the delay doubles, capped, and resets once the
// queue catches up.
func (t *Typer) Type(ctx context.Context, text string, interKey time.Duration) error {
	seq, err := keymap.Sequence(text)
	if err != nil {
		return err
	}

	prober, _ := t.poster.(QueueProber)
	delay := interKey

	for i, ks := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.poster.Post(ks, true); err != nil {
			return fmt.Errorf("press %d/%d: %w", i+1, len(seq), err)
		}
		if err := t.poster.Post(ks, false); err != nil {
			return fmt.Errorf("release %d/%d: %w", i+1, len(seq), err)
		}
		if i == len(seq)-1 {
			break
		}

		if prober != nil {
			if !prober.Drained() {
				delay *= 2
				if delay > adaptiveDelayCap {
					delay = adaptiveDelayCap
				}
			} else {
				delay = interKey
			}
		}
		if err := t.sleep(ctx, delay); err != nil {
			return err
		}
	}

	t.log.Debug().Int("keystrokes", len(seq)).Dur("inter_key", interKey).Msg("typed text")
	return nil
}

// PasteCombo dispatches the paste key-combo through the same event path.
// The plain variant posts the paste key carrying the modifier flag; the
// explicit variant brackets it with discrete modifier press/release events,
// which some applications require before they honor the combo.
func (t *Typer) PasteCombo(ctx context.Context, explicit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paste := keymap.PasteKey()
	if !explicit {
		if err := t.poster.Post(paste, true); err != nil {
			return err
		}
		return t.poster.Post(paste, false)
	}

	mod := keymap.ModifierKey(keymap.ModCommand)
	if err := t.poster.Post(mod, true); err != nil {
		return err
	}
	if err := t.poster.Post(paste, true); err != nil {
		return err
	}
	if err := t.poster.Post(paste, false); err != nil {
		return err
	}
	return t.poster.Post(mod, false)
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
