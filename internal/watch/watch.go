// Package watch turns changes to one Markdown file into rendered snapshots.
//
// A backend (fsnotify, or stat polling) reports raw events for the file. Bursts
// are collapsed by a quiet-period debounce. Each settled change reads the file
// once and is queued, and a single consumer goroutine renders the queue, so
// every settled change yields exactly one update, in detection order, even
// when the reader falls behind.
//
// Watcher failures, including a backend that cannot start, are reported on
// Errors and never stop the Notifier; updates simply cease.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/logger"
)

// Defaults for the debounce window and polling interval.
const (
	DefaultQuietPeriod  = 100 * time.Millisecond
	DefaultPollInterval = 100 * time.Millisecond
)

// Sentinel errors.
var (
	ErrAlreadyRunning = errors.New("notifier already running")
	ErrWatcherInit    = errors.New("failed to start file watcher")
	ErrWatch          = errors.New("file watcher error")
)

// RenderFunc renders document text. It must not fail.
type RenderFunc func(source string) mdpreview.RenderResult

// Update is one settled change.
type Update struct {
	Snapshot mdpreview.Snapshot
	Headings []mdpreview.Heading
}

// backend reports raw change events for one file until ctx is done.
type backend interface {
	run(ctx context.Context, changed func(), failed func(error)) error
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithQuietPeriod sets how long the file must stay unchanged before it is
// re-read.
func WithQuietPeriod(d time.Duration) Option {
	return func(n *Notifier) {
		if d >= 0 {
			n.quiet = d
		}
	}
}

// WithPolling replaces fsnotify with stat polling at the given interval.
// Useful on network and container filesystems without inotify support.
func WithPolling(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval <= 0 {
			interval = DefaultPollInterval
		}
		n.backend = &pollBackend{path: n.path, interval: interval}
	}
}

// WithLogger sets the logger for watcher events.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// withBackend replaces the event source for tests.
func withBackend(b backend) Option {
	return func(n *Notifier) {
		n.backend = b
	}
}

// Notifier watches exactly one file.
type Notifier struct {
	path    string
	name    string
	render  RenderFunc
	quiet   time.Duration
	backend backend
	log     logger.Logger

	queueMu sync.Mutex
	queue   []change
	wake    chan struct{}
	updates chan Update
	errs    chan error
	running atomic.Bool
}

// change is the file as read when one change settled.
type change struct {
	source string
	err    error
}

// New creates a Notifier for path. The path is made absolute; it does not
// need to exist yet.
func New(path string, render RenderFunc, opts ...Option) (*Notifier, error) {
	if render == nil {
		return nil, errors.New("watch: nil render function")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	n := &Notifier{
		path:    abs,
		name:    filepath.Base(abs),
		render:  render,
		quiet:   DefaultQuietPeriod,
		log:     logger.Nop(),
		wake:    make(chan struct{}, 1),
		updates: make(chan Update, 1),
		errs:    make(chan error, 1),
	}
	n.backend = &fsnotifyBackend{path: abs}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With("file", n.name)
	return n, nil
}

// Path returns the absolute path being watched.
func (n *Notifier) Path() string { return n.path }

// Updates delivers rendered snapshots. Closed when Run returns.
func (n *Notifier) Updates() <-chan Update { return n.updates }

// Errors delivers read, decode and watcher errors. Closed when Run returns.
// Both channels must be drained while Run is active.
func (n *Notifier) Errors() <-chan error { return n.errs }

// Run watches until ctx is done and then returns nil. No update is sent for
// the state of the file when watching starts. If the backend fails, the error
// goes to Errors and Run keeps waiting for ctx without further updates.
// A Notifier runs once.
func (n *Notifier) Run(ctx context.Context) error {
	if !n.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(n.errs)
	defer close(n.updates)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	trigger, stop := debounce.New(n.quiet, n.signal)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.consume(ctx)
	}()

	n.log.Debug("watching", "path", n.path, "quiet", n.quiet)
	err := n.backend.run(ctx, trigger, func(err error) {
		n.log.Warn("watcher error", "error", err)
		n.emitErr(ctx, err)
	})
	if err != nil && ctx.Err() == nil {
		n.log.Error("watcher stopped; no further updates", "error", err)
		n.emitErr(ctx, err)
		<-ctx.Done()
	}
	cancel()
	<-done
	return nil
}

// signal runs once per settled change. It reads the file now, so a change
// followed by another before the consumer catches up keeps its own content.
// The lock covers the read so the queue follows detection order.
func (n *Notifier) signal() {
	n.queueMu.Lock()
	source, err := fileutil.ReadMarkdown(n.path)
	n.queue = append(n.queue, change{source: source, err: err})
	n.queueMu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued change.
func (n *Notifier) next() (change, bool) {
	n.queueMu.Lock()
	defer n.queueMu.Unlock()
	if len(n.queue) == 0 {
		return change{}, false
	}
	c := n.queue[0]
	n.queue[0] = change{}
	n.queue = n.queue[1:]
	return c, true
}

// consume is the only goroutine that renders and sends updates.
func (n *Notifier) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.wake:
		}

		for {
			c, ok := n.next()
			if !ok {
				break
			}
			if !n.deliver(ctx, c) {
				return
			}
		}
	}
}

// deliver renders one change and sends it, or its read error. It reports
// false once ctx is done.
func (n *Notifier) deliver(ctx context.Context, c change) bool {
	if c.err != nil {
		n.log.Warn("reading document", "error", c.err)
		n.emitErr(ctx, c.err)
		return ctx.Err() == nil
	}

	result := n.render(c.source)
	update := Update{Snapshot: result.Snapshot(n.name), Headings: result.Headings}
	select {
	case n.updates <- update:
		n.log.Debug("document rendered", "bytes", len(c.source), "headings", len(result.Headings))
		return true
	case <-ctx.Done():
		return false
	}
}

func (n *Notifier) emitErr(ctx context.Context, err error) {
	select {
	case n.errs <- err:
	case <-ctx.Done():
	}
}
