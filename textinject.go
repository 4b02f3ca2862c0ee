// Package textinject delivers machine-generated text into whatever text
// field the user is focused on, inside arbitrary third-party applications,
// without cooperation from the target.
//
// It decides at runtime which application and UI element own keyboard
// focus, whether that element accepts text, and whether synthetic
// keystrokes or a clipboard-mediated paste will produce correct,
// Unicode-safe text there. Requests are serialized: the system clipboard is
// the one shared mutable resource, and a second request's clipboard write
// during the first one's restore window would corrupt both.
package textinject

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dictaflow/textinject/internal/clip"
	"github.com/dictaflow/textinject/internal/compat"
	"github.com/dictaflow/textinject/internal/focus"
	"github.com/dictaflow/textinject/internal/permissions"
	"github.com/dictaflow/textinject/internal/plan"
	"github.com/dictaflow/textinject/internal/synth"
)

// interRequestGap lets the target application settle between back-to-back
// requests, e.g. rapid successive dictations.
const interRequestGap = 50 * time.Millisecond

// Options configures an Injector. The zero value is usable.
type Options struct {
	// Logger receives structured logs; nil means no logging.
	Logger *zerolog.Logger

	// Authorized is the input-synthesis capability gate, consulted on
	// every request. Nil means the platform's own accessibility trust
	// check. Hosts with a permissions subsystem pass theirs in.
	Authorized func() bool

	// CompatPath points at the TOML compatibility-table overlay. Empty
	// means the platform default location. A missing file is fine.
	CompatPath string

	// WatchCompat reloads the table when the overlay file changes.
	WatchCompat bool

	// QueueDepth bounds pending requests; 0 means a small default.
	QueueDepth int
}

type job struct {
	ctx   context.Context
	req   Request
	reply chan result
}

type result struct {
	out Outcome
	err error
}

// Injector is the entry point. One instance serves a whole process; its
// queue drains one request fully before starting the next.
type Injector struct {
	log   zerolog.Logger
	coord *coordinator

	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	stopWatch context.CancelFunc
}

// New wires up the platform backends and starts the request queue.
func New(opts Options) (*Injector, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	table := compat.Builtin()
	path := opts.CompatPath
	if path == "" {
		path = compat.DefaultPath()
	}
	if err := table.LoadFile(path); err != nil {
		// A broken overlay never blocks injection; builtins still apply.
		log.Warn().Err(err).Str("path", path).Msg("compat table overlay not loaded")
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	if opts.WatchCompat {
		if err := table.Watch(watchCtx, path, log); err != nil {
			log.Warn().Err(err).Msg("compat table watch not started")
		}
	}

	authorized := opts.Authorized
	if authorized == nil {
		authorized = permissions.InputSynthesisAuthorized
	}

	typer := synth.NewTyper(synth.NewPlatformPoster(), log)

	depth := opts.QueueDepth
	if depth <= 0 {
		depth = 8
	}

	in := &Injector{
		log: log,
		coord: &coordinator{
			authorized: authorized,
			inspector:  focus.NewSystemInspector(),
			typer:      typer,
			arbiter:    clip.NewArbiter(clip.NewSystemClipboard(), typer, log),
			table:      table,
			plans:      plan.NewCache(table),
			log:        log,
		},
		jobs:      make(chan job, depth),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		stopWatch: stopWatch,
	}
	go in.loop()
	return in, nil
}

// Inject delivers text into the currently focused element, selecting the
// method automatically.
func (in *Injector) Inject(ctx context.Context, text string) (Outcome, error) {
	return in.Do(ctx, Request{Text: text})
}

// Do runs one injection request through the serialized queue. The returned
// error, when non-nil for a rejected outcome, matches Outcome.Reason so
// callers can use errors.Is directly.
func (in *Injector) Do(ctx context.Context, req Request) (Outcome, error) {
	if req.Text == "" {
		return rejected(ErrEmptyText)
	}

	j := job{ctx: ctx, req: req, reply: make(chan result, 1)}
	select {
	case in.jobs <- j:
	case <-in.quit:
		return Outcome{}, ErrClosed
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.out, r.err
	case <-in.quit:
		// The worker may be finishing this job right now and its side
		// effects are already committed; wait for it to wind down and
		// prefer its reply over the shutdown signal.
		<-in.done
		select {
		case r := <-j.reply:
			return r.out, r.err
		default:
			return Outcome{}, ErrClosed
		}
	}
}

// Close stops the queue. The in-flight request finishes first, clipboard
// restore included; pending requests are dropped with ErrClosed.
func (in *Injector) Close() error {
	in.closeOnce.Do(func() {
		in.stopWatch()
		close(in.quit)
		<-in.done
	})
	return nil
}

func (in *Injector) loop() {
	defer close(in.done)
	for {
		select {
		case <-in.quit:
			return
		case j := <-in.jobs:
			out, err := in.coord.run(j.ctx, j.req)
			j.reply <- result{out: out, err: err}

			select {
			case <-in.quit:
				return
			case <-time.After(interRequestGap):
			}
		}
	}
}
