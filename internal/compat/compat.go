// Package compat holds per-application injection workarounds: method
// overrides and timing adjustments learned from real-world injection
// failures. The table is data, not code, so new entries land without
// touching the coordination flow.
package compat

import (
	"context"
	"sync"
	"time"
)

// MethodOverride forces one injection method for an application. Empty
// means no override; the generic heuristic decides.
type MethodOverride string

const (
	MethodNone          MethodOverride = ""
	MethodKeystroke     MethodOverride = "keystroke"
	MethodPaste         MethodOverride = "paste"
	MethodPasteExplicit MethodOverride = "paste-explicit"
)

// Entry is one application's workaround record. Zero timing fields fall
// back to the plan defaults.
type Entry struct {
	Method MethodOverride `toml:"method"`

	InterKeyDelayMS int `toml:"inter_key_delay_ms"`
	PreDelayMS      int `toml:"pre_delay_ms"`
	PostDelayMS     int `toml:"post_delay_ms"`
	RestoreDelayMS  int `toml:"restore_delay_ms"`

	PreHook  string `toml:"pre_hook"`
	PostHook string `toml:"post_hook"`
}

// Hook is a short app-specific side-effecting adjustment run before or
// after injection.
type Hook func(ctx context.Context) error

// Table maps application identifiers to entries. A loaded overlay shadows
// the builtin entries and is replaced wholesale on reload. Safe for
// concurrent lookup and reload.
type Table struct {
	mu       sync.RWMutex
	builtin  map[string]Entry
	overlay  map[string]Entry
	hooks    map[string]Hook
	onChange []func()
}

// Builtin returns the table of entries accumulated against applications
// known to mistreat one injection path or the other.
func Builtin() *Table {
	t := &Table{
		builtin: map[string]Entry{
			// iTerm2's custom input view silently drops synthetic key
			// events regardless of text properties.
			"com.googlecode.iterm2": {Method: MethodPaste},
			// Terminal honors the paste combo only with discrete modifier
			// events; bracketed paste then keeps multi-line text intact.
			"com.apple.Terminal": {Method: MethodPasteExplicit},
			// Excel cells drop the first events while entering edit mode.
			"com.microsoft.Excel": {PreHook: "settle-long"},
			// Slack's preview pane lags the paste; give it a beat before
			// restoring the clipboard.
			"com.tinyspeck.slackmacgap": {PostHook: "settle-short", RestoreDelayMS: 400},
			// Electron text fields coalesce fast synthetic events.
			"com.microsoft.VSCode": {InterKeyDelayMS: 4},
		},
		hooks: map[string]Hook{
			"settle-short": settleHook(25 * time.Millisecond),
			"settle-long":  settleHook(120 * time.Millisecond),
		},
	}
	return t
}

// Lookup returns the entry for an application identifier.
func (t *Table) Lookup(appID string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.overlay[appID]; ok {
		return e, true
	}
	e, ok := t.builtin[appID]
	return e, ok
}

// Hook resolves a hook identifier named by an entry.
func (t *Table) Hook(name string) (Hook, bool) {
	if name == "" {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.hooks[name]
	return h, ok
}

// RegisterHook makes a hook available to table entries under name.
func (t *Table) RegisterHook(name string, h Hook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks[name] = h
}

// OnChange registers a callback invoked after every table reload, used to
// invalidate derived plan caches. Callbacks accumulate; each registered one
// fires on every reload.
func (t *Table) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = append(t.onChange, fn)
}

func (t *Table) replaceOverlay(entries map[string]Entry) {
	t.mu.Lock()
	t.overlay = entries
	fns := make([]func(), len(t.onChange))
	copy(fns, t.onChange)
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func settleHook(d time.Duration) Hook {
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}
