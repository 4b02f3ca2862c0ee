package textinject

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dictaflow/textinject/internal/clip"
	"github.com/dictaflow/textinject/internal/synth"
)

func newTestInjector(t *testing.T) (*Injector, *fixture) {
	t.Helper()
	f := newFixture(t)
	in := &Injector{
		log:       zerolog.Nop(),
		coord:     f.coord,
		jobs:      make(chan job, 8),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		stopWatch: func() {},
	}
	go in.loop()
	t.Cleanup(func() { _ = in.Close() })
	return in, f
}

func TestInjectDelivers(t *testing.T) {
	in, f := newTestInjector(t)

	out, err := in.Inject(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, out.Status)
	assert.Equal(t, MethodKeystroke, out.Method)
	assert.NotEmpty(t, f.poster.snapshot())
}

func TestInjectRejectsEmptyText(t *testing.T) {
	in, _ := newTestInjector(t)

	out, err := in.Inject(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Equal(t, StatusRejected, out.Status)
}

func TestConcurrentRequestsAreSerialized(t *testing.T) {
	in, f := newTestInjector(t)

	// Two bursts typed concurrently must not interleave at the event
	// level: the queue drains one request fully before the next starts.
	var wg sync.WaitGroup
	for _, text := range []string{"aaaaaaaa", "bbbbbbbb"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			out, err := in.Inject(context.Background(), text)
			assert.NoError(t, err)
			assert.Equal(t, StatusDelivered, out.Status)
		}(text)
	}
	wg.Wait()

	events := f.poster.snapshot()
	require.Len(t, events, 32)

	transitions := 0
	for i := 1; i < len(events); i++ {
		if events[i].ks.Code != events[i-1].ks.Code {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions, "each request's events must be contiguous")
}

func TestInFlightRequestReportsOutcomeDespiteClose(t *testing.T) {
	in, f := newTestInjector(t)

	// A gate hook holds the request mid-flight while Close lands, so the
	// reply and the shutdown signal are both ready when Do wakes up. The
	// request's side effects are committed; its outcome must win over
	// ErrClosed.
	entered := make(chan struct{})
	release := make(chan struct{})
	dir := t.TempDir()
	path := filepath.Join(dir, "compat.toml")
	content := "[apps.\"com.example.editor\"]\npre_hook = \"gate\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, f.table.LoadFile(path))
	f.table.RegisterHook("gate", func(context.Context) error {
		close(entered)
		<-release
		return nil
	})

	type res struct {
		out Outcome
		err error
	}
	got := make(chan res, 1)
	go func() {
		out, err := in.Inject(context.Background(), "hi")
		got <- res{out: out, err: err}
	}()

	<-entered
	closed := make(chan struct{})
	go func() {
		_ = in.Close()
		close(closed)
	}()
	<-in.quit // shutdown signalled before the request resumes
	close(release)

	r := <-got
	require.NoError(t, r.err)
	assert.Equal(t, StatusDelivered, r.out.Status)
	assert.NotEmpty(t, f.poster.snapshot())
	<-closed
}

func TestCloseRejectsNewRequests(t *testing.T) {
	in, _ := newTestInjector(t)
	require.NoError(t, in.Close())

	_, err := in.Inject(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCancelledContextBeforeEnqueue(t *testing.T) {
	in, f := newTestInjector(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The worker sees the cancelled context before any side effect.
	_, err := in.Do(ctx, Request{Text: "never typed"})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Empty(t, f.poster.snapshot())
}

// Compile-time checks that the coordinator seams stay interfaces the tests
// can fake.
var (
	_ synth.Poster   = (*fakePoster)(nil)
	_ clip.Clipboard = (*memClipboard)(nil)
)

func TestNewUsesDefaults(t *testing.T) {
	in, err := New(Options{})
	require.NoError(t, err)
	defer in.Close()

	require.NotNil(t, in.coord)
	assert.NotNil(t, in.coord.authorized)
	assert.NotNil(t, in.coord.inspector)
}
