package throttle

import (
	"context"
	"sync"
	"time"

	"barchive/pkg/config"
	"barchive/pkg/logger"
	"barchive/pkg/poll"
)

// Class is a category of outbound operation with its own pacing interval
type Class string

const (
	ClassPage           Class = "page"
	ClassFile           Class = "file"
	ClassDateNavigation Class = "date-navigation"
)

// Clock abstracts time so tests can observe waits without sleeping
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	return poll.Wait(ctx, d)
}

// Observer is notified of every wait, including zero-length ones
type Observer func(class Class, wait time.Duration)

// Throttle enforces a minimum interval between consecutive calls of one class
type Throttle struct {
	mu          sync.Mutex
	intervals   map[Class]time.Duration
	last        map[Class]time.Time
	fileFetched bool

	clock    Clock
	logger   logger.Logger
	observer Observer
}

// Option configures a Throttle
type Option func(*Throttle)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(t *Throttle) { t.clock = c }
}

// WithLogger sets the logger used for wait diagnostics
func WithLogger(l logger.Logger) Option {
	return func(t *Throttle) { t.logger = l }
}

// WithObserver registers a callback for every wait
func WithObserver(o Observer) Option {
	return func(t *Throttle) { t.observer = o }
}

// New creates a throttle from the configured intervals
func New(cfg config.ThrottleConfig, opts ...Option) *Throttle {
	t := &Throttle{
		intervals: map[Class]time.Duration{
			ClassPage:           cfg.Page,
			ClassFile:           cfg.File,
			ClassDateNavigation: cfg.DateNavigation,
		},
		last:   make(map[Class]time.Time),
		clock:  realClock{},
		logger: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Interval returns the minimum interval the next call of class will honor.
// Unknown classes have no interval of their own.
func (t *Throttle) Interval(class Class) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intervalLocked(class)
}

func (t *Throttle) intervalLocked(class Class) time.Duration {
	if class == ClassFile && !t.fileFetched {
		return t.intervals[ClassPage]
	}
	return t.intervals[class]
}

// Wait blocks until the class's interval has passed since its last call,
// then records the current time as that class's last call.
func (t *Throttle) Wait(ctx context.Context, class Class) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waitLocked(ctx, class, t.intervalLocked(class))
}

// WaitFor is Wait with an explicit interval in place of the class default
func (t *Throttle) WaitFor(ctx context.Context, class Class, interval time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waitLocked(ctx, class, interval)
}

func (t *Throttle) waitLocked(ctx context.Context, class Class, interval time.Duration) error {
	var wait time.Duration
	if last, ok := t.last[class]; ok {
		wait = interval - t.clock.Now().Sub(last)
	}
	if wait < 0 {
		wait = 0
	}

	if t.observer != nil {
		t.observer(class, wait)
	}
	if wait > 0 {
		logger.LogThrottle(t.logger, string(class), wait)
		if err := t.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	t.last[class] = t.clock.Now()
	return nil
}

// MarkFileFetched records whether the most recent file-class call actually
// transferred a file
func (t *Throttle) MarkFileFetched(fetched bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fileFetched = fetched
}

// Reset forgets all last-call timestamps
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = make(map[Class]time.Time)
	t.fileFetched = false
}
