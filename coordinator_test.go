package textinject

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dictaflow/textinject/internal/clip"
	"github.com/dictaflow/textinject/internal/compat"
	"github.com/dictaflow/textinject/internal/focus"
	"github.com/dictaflow/textinject/internal/keymap"
	"github.com/dictaflow/textinject/internal/plan"
	"github.com/dictaflow/textinject/internal/synth"
)

// Fakes for the OS-facing seams: event poster, clipboard, focus inspector.

type postedEvent struct {
	ks      keymap.Keystroke
	pressed bool
}

type fakePoster struct {
	mu       sync.Mutex
	events   []postedEvent
	failNext int // fail this many Post calls before succeeding
}

func (f *fakePoster) Post(ks keymap.Keystroke, pressed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return synth.ErrEventConstruction
	}
	f.events = append(f.events, postedEvent{ks: ks, pressed: pressed})
	return nil
}

func (f *fakePoster) snapshot() []postedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]postedEvent, len(f.events))
	copy(out, f.events)
	return out
}

type memClipboard struct {
	mu    sync.Mutex
	items []clip.Item
	count int64
}

func textItem(s string) clip.Item {
	return clip.Item{Formats: []clip.FormatData{{Format: "text/plain;charset=utf-8", Data: []byte(s)}}}
}

func (m *memClipboard) Items() ([]clip.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]clip.Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memClipboard) ChangeCount() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

func (m *memClipboard) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = []clip.Item{textItem(text)}
	m.count++
	return nil
}

func (m *memClipboard) Write(items []clip.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	m.count++
	return nil
}

func (m *memClipboard) text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 || len(m.items[0].Formats) == 0 {
		return ""
	}
	return string(m.items[0].Formats[0].Data)
}

type fakeInspector struct {
	target *focus.Target
	err    error
}

func (f *fakeInspector) CurrentTarget() (*focus.Target, error) {
	return f.target, f.err
}

func editorTarget() *focus.Target {
	return &focus.Target{
		AppID:    "com.example.editor",
		AppName:  "Example Editor",
		Role:     focus.RoleTextArea,
		Editable: true,
	}
}

type fixture struct {
	coord     *coordinator
	poster    *fakePoster
	clipboard *memClipboard
	inspector *fakeInspector
	table     *compat.Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	poster := &fakePoster{}
	cb := &memClipboard{items: []clip.Item{textItem("previous clipboard")}, count: 1}
	inspector := &fakeInspector{target: editorTarget()}
	table := compat.Builtin()

	typer := synth.NewTyper(poster, zerolog.Nop())
	f := &fixture{
		poster:    poster,
		clipboard: cb,
		inspector: inspector,
		table:     table,
		coord: &coordinator{
			authorized: func() bool { return true },
			inspector:  inspector,
			typer:      typer,
			arbiter:    clip.NewArbiter(cb, typer, zerolog.Nop()),
			table:      table,
			plans:      plan.NewCache(table),
			log:        zerolog.Nop(),
		},
	}
	return f
}

func TestShortASCIIGoesThroughKeystrokes(t *testing.T) {
	f := newFixture(t)
	text := "fix the login bug"

	out, err := f.coord.run(context.Background(), Request{Text: text})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, MethodKeystroke, out.Method)

	// One press/release pair per character, clipboard untouched.
	events := f.poster.snapshot()
	assert.Len(t, events, 2*utf8.RuneCountInString(text))
	assert.Equal(t, int64(1), mustCount(t, f.clipboard))
	assert.Equal(t, "previous clipboard", f.clipboard.text())
}

func TestLongASCIIGoesThroughClipboard(t *testing.T) {
	f := newFixture(t)
	text := strings.Repeat("the quick brown fox ", 25) // 500 chars

	out, err := f.coord.run(context.Background(), Request{Text: text})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, MethodPaste, out.Method)

	// Paste combo dispatched once, then the original contents restored.
	events := f.poster.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, keymap.KeyV, events[0].ks.Code)
	assert.Equal(t, "previous clipboard", f.clipboard.text())
	// save-state write + restore write
	assert.Equal(t, int64(3), mustCount(t, f.clipboard))
}

func TestNonASCIIGoesThroughClipboardRegardlessOfLength(t *testing.T) {
	f := newFixture(t)

	out, err := f.coord.run(context.Background(), Request{Text: "café ☕"})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, MethodPaste, out.Method)

	events := f.poster.snapshot()
	require.Len(t, events, 2, "only the paste combo, no per-character events")
}

func TestClosedGateRejectsWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	f.coord.authorized = func() bool { return false }

	out, err := f.coord.run(context.Background(), Request{Text: "hello"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, StatusRejected, out.Status)
	assert.ErrorIs(t, out.Reason, ErrUnauthorized)

	assert.Empty(t, f.poster.snapshot())
	assert.Equal(t, int64(1), mustCount(t, f.clipboard))
}

func TestNoEditableTargetRejects(t *testing.T) {
	f := newFixture(t)
	f.inspector.target = nil

	out, err := f.coord.run(context.Background(), Request{Text: "hello"})
	assert.ErrorIs(t, err, ErrNoEditableTarget)
	assert.Equal(t, StatusRejected, out.Status)
	assert.Equal(t, int64(1), mustCount(t, f.clipboard))
}

func TestNonTextRoleRejects(t *testing.T) {
	f := newFixture(t)
	f.inspector.target = &focus.Target{AppID: "com.example.viewer", Role: focus.RoleUnknown}

	_, err := f.coord.run(context.Background(), Request{Text: "hello"})
	assert.ErrorIs(t, err, ErrNoEditableTarget)
}

func TestAppOverrideForcesPaste(t *testing.T) {
	f := newFixture(t)
	f.inspector.target = &focus.Target{
		AppID:    "com.googlecode.iterm2",
		Role:     focus.RoleTextArea,
		Editable: true,
	}

	out, err := f.coord.run(context.Background(), Request{Text: "ls -la"})
	require.NoError(t, err)
	assert.Equal(t, MethodPaste, out.Method, "terminal override wins over the short-ASCII heuristic")
}

func TestUserOverrideWinsOverAppOverride(t *testing.T) {
	f := newFixture(t)
	f.inspector.target.AppID = "com.googlecode.iterm2"

	out, err := f.coord.run(context.Background(), Request{Text: "echo hi", Method: MethodKeystroke})
	require.NoError(t, err)
	assert.Equal(t, MethodKeystroke, out.Method)
}

func TestExplicitModifierOverrideUsesDiscreteModifierEvents(t *testing.T) {
	f := newFixture(t)
	f.inspector.target.AppID = "com.apple.Terminal"

	out, err := f.coord.run(context.Background(), Request{Text: "cat notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, MethodPasteExplicit, out.Method)

	events := f.poster.snapshot()
	require.Len(t, events, 4)
	assert.Equal(t, keymap.KeyCmd, events[0].ks.Code)
	assert.Equal(t, keymap.KeyV, events[1].ks.Code)
}

func TestOversizedGraphemeRoutedToClipboard(t *testing.T) {
	f := newFixture(t)
	// The user forces keystrokes, but the ZWJ chain cannot be carried in
	// one event; the coordinator recovers locally by pasting.
	text := "ok 👨‍👩‍👧‍👦‍👨‍👩‍👧‍👦"

	out, err := f.coord.run(context.Background(), Request{Text: text, Method: MethodKeystroke})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, MethodPaste, out.Method)
}

func TestEventConstructionFailureFallsBackToClipboard(t *testing.T) {
	f := newFixture(t)
	f.poster.failNext = 1 // first press fails, combo events succeed

	out, err := f.coord.run(context.Background(), Request{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, StatusDeliveredViaClipboardFallback, out.Status)
	assert.Equal(t, MethodPaste, out.Method)
	assert.Equal(t, "previous clipboard", f.clipboard.text(), "fallback paste still restores")
}

func TestTotalEventFailureEndsInCopyOnly(t *testing.T) {
	f := newFixture(t)
	f.poster.failNext = 1 << 20 // nothing posts, paste combos included

	out, err := f.coord.run(context.Background(), Request{Text: "do not lose me"})
	require.NoError(t, err)
	assert.Equal(t, StatusCopiedToClipboardOnly, out.Status)
	assert.Equal(t, "do not lose me", f.clipboard.text(), "text is never silently dropped")
}

func TestPrimaryPasteFailureSkipsToCopyOnly(t *testing.T) {
	f := newFixture(t)
	f.poster.failNext = 1 << 20
	text := strings.Repeat("a", 100) // paste selected by length

	out, err := f.coord.run(context.Background(), Request{Text: text})
	require.NoError(t, err)
	assert.Equal(t, StatusCopiedToClipboardOnly, out.Status)
	assert.Equal(t, text, f.clipboard.text())
}

func TestHooksFromTableRun(t *testing.T) {
	f := newFixture(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "compat.toml")
	content := "[apps.\"com.example.editor\"]\npost_hook = \"probe\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, f.table.LoadFile(path))

	probed := false
	f.table.RegisterHook("probe", func(ctx context.Context) error {
		probed = true
		return nil
	})

	_, err := f.coord.run(context.Background(), Request{Text: "hi"})
	require.NoError(t, err)
	assert.True(t, probed)
}

// registerOverlayHook points an overlay entry for the fixture's editor at a
// hook under the given name.
func registerOverlayHook(t *testing.T, f *fixture, key, name string, hook func(context.Context) error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "compat.toml")
	content := "[apps.\"com.example.editor\"]\n" + key + " = \"" + name + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, f.table.LoadFile(path))
	f.table.RegisterHook(name, hook)
}

func TestFailingPreHookStillLandsTextOnClipboard(t *testing.T) {
	f := newFixture(t)
	registerOverlayHook(t, f, "pre_hook", "flaky", func(context.Context) error {
		return errors.New("hook refused")
	})

	out, err := f.coord.run(context.Background(), Request{Text: "do not lose me"})
	require.NoError(t, err)
	assert.Equal(t, StatusCopiedToClipboardOnly, out.Status)
	assert.Equal(t, "do not lose me", f.clipboard.text(), "text is never silently dropped")
	assert.Empty(t, f.poster.snapshot(), "nothing dispatched after a failed pre-hook")
}

func TestFailingPostHookDoesNotMaskDelivery(t *testing.T) {
	f := newFixture(t)
	registerOverlayHook(t, f, "post_hook", "flaky", func(context.Context) error {
		return errors.New("hook refused")
	})

	out, err := f.coord.run(context.Background(), Request{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, out.Status, "the text reached the target before the hook ran")
	assert.Equal(t, MethodKeystroke, out.Method)
	assert.NotEmpty(t, f.poster.snapshot())
}

func TestAppHintSkipsTargetAppID(t *testing.T) {
	f := newFixture(t)
	f.inspector.target.AppID = "" // host supplies the identifier itself

	out, err := f.coord.run(context.Background(), Request{Text: "ls", AppHint: "com.googlecode.iterm2"})
	require.NoError(t, err)
	assert.Equal(t, MethodPaste, out.Method)
}

func mustCount(t *testing.T, cb *memClipboard) int64 {
	t.Helper()
	n, err := cb.ChangeCount()
	require.NoError(t, err)
	return n
}
