// Package plan decides how a given text reaches a given application:
// which injection method and with what timing.
package plan

import (
	"time"

	"github.com/dictaflow/textinject/internal/compat"
)

// Method is the selected injection mechanism.
type Method int

const (
	// MethodAuto is the unset request value; Select resolves it.
	MethodAuto Method = iota
	MethodKeystroke
	MethodPaste
	MethodPasteExplicit
)

func (m Method) String() string {
	switch m {
	case MethodKeystroke:
		return "keystroke"
	case MethodPaste:
		return "paste"
	case MethodPasteExplicit:
		return "paste-explicit"
	default:
		return "auto"
	}
}

// LengthThreshold is the character count above which keystroke injection
// is slower and flakier than a single paste.
const LengthThreshold = 64

// Default timings. Inter-key pacing under ~0.3-0.5ms risks silent event
// coalescing; the restore delay scales with text length because larger
// pastes take targets longer to consume.
const (
	DefaultInterKeyDelay = 2 * time.Millisecond
	restoreDelayBase     = 100 * time.Millisecond
	restoreDelayPerChar  = time.Millisecond
	restoreDelayCap      = 2 * time.Second
)

// Plan is everything the coordinator needs to execute one injection:
// derived from the request and the compat table, pure in its inputs.
type Plan struct {
	Method Method

	InterKeyDelay time.Duration
	PreDelay      time.Duration
	PostDelay     time.Duration
	RestoreDelay  time.Duration

	PreHook  string
	PostHook string
}

// Select resolves the injection method. Decision order: an explicit user
// override wins unconditionally; a per-application override from the compat
// table wins next, because those entries encode empirical knowledge the
// generic heuristic must not shadow; otherwise long or non-ASCII text goes
// through the clipboard and everything else is typed.
func Select(text string, forced Method, entry compat.Entry, haveEntry bool) Method {
	if forced != MethodAuto {
		return forced
	}
	if haveEntry && entry.Method != compat.MethodNone {
		return fromOverride(entry.Method)
	}
	if len([]rune(text)) > LengthThreshold {
		return MethodPaste
	}
	if !isASCII(text) {
		return MethodPaste
	}
	return MethodKeystroke
}

// For derives the full plan for injecting text into the application.
func For(text string, forced Method, appID string, table *compat.Table) Plan {
	entry, ok := table.Lookup(appID)

	p := Plan{
		Method:        Select(text, forced, entry, ok),
		InterKeyDelay: DefaultInterKeyDelay,
		RestoreDelay:  restoreDelay(len([]rune(text))),
	}

	if ok {
		if entry.InterKeyDelayMS > 0 {
			p.InterKeyDelay = time.Duration(entry.InterKeyDelayMS) * time.Millisecond
		}
		if entry.PreDelayMS > 0 {
			p.PreDelay = time.Duration(entry.PreDelayMS) * time.Millisecond
		}
		if entry.PostDelayMS > 0 {
			p.PostDelay = time.Duration(entry.PostDelayMS) * time.Millisecond
		}
		if entry.RestoreDelayMS > 0 {
			p.RestoreDelay = time.Duration(entry.RestoreDelayMS) * time.Millisecond
		}
		p.PreHook = entry.PreHook
		p.PostHook = entry.PostHook
	}

	return p
}

func restoreDelay(chars int) time.Duration {
	d := restoreDelayBase + time.Duration(chars)*restoreDelayPerChar
	if d > restoreDelayCap {
		return restoreDelayCap
	}
	return d
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

func fromOverride(m compat.MethodOverride) Method {
	switch m {
	case compat.MethodKeystroke:
		return MethodKeystroke
	case compat.MethodPasteExplicit:
		return MethodPasteExplicit
	default:
		return MethodPaste
	}
}
