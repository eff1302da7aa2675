package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Default loop timings.
const (
	DefaultFrameBudget  = 16 * time.Millisecond
	DefaultIdleInterval = 4 * time.Millisecond
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a running loop.
	ErrLoopAlreadyRunning = errors.New("scheduler: loop is already running")

	// ErrLoopTerminated is returned by Do after the loop has stopped.
	ErrLoopTerminated = errors.New("scheduler: loop has been terminated")
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// FrameBudget is the time granted to each idle callback.
	FrameBudget time.Duration

	// IdleInterval is the pause between idle slices.
	IdleInterval time.Duration

	// Logger receives loop diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Loop runs idle callbacks and submitted tasks on one goroutine.
//
// All callbacks and Do tasks execute on the goroutine that called Run,
// one at a time, so state they share needs no locking.
type Loop struct {
	config LoopConfig
	logger *slog.Logger

	mu        sync.Mutex
	callbacks []func(Deadline)
	tasks     chan func()
	wake      chan struct{}

	running atomic.Bool
	done    chan struct{}
}

// NewLoop creates a loop. Zero config fields take their defaults.
func NewLoop(config LoopConfig) *Loop {
	if config.FrameBudget <= 0 {
		config.FrameBudget = DefaultFrameBudget
	}
	if config.IdleInterval <= 0 {
		config.IdleInterval = DefaultIdleInterval
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Loop{
		config: config,
		logger: config.Logger.With("component", "scheduler"),
		tasks:  make(chan func()),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// RequestIdleCallback implements IdleScheduler. Safe from any goroutine.
func (l *Loop) RequestIdleCallback(cb func(Deadline)) {
	l.mu.Lock()
	l.callbacks = append(l.callbacks, cb)
	l.mu.Unlock()
}

// Do runs fn on the loop goroutine and waits for it to finish.
// It must not be called from inside a loop callback.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopTerminated
	}
}

// Wake cuts the current idle pause short.
func (l *Loop) Wake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes tasks and idle slices until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer close(l.done)

	timer := time.NewTimer(l.config.IdleInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped", "reason", ctx.Err())
			return nil
		case task := <-l.tasks:
			task()
			continue
		case <-l.wake:
		case <-timer.C:
		}

		l.runIdleSlice()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(l.config.IdleInterval)
	}
}

// runIdleSlice invokes the callbacks pending at slice start.
func (l *Loop) runIdleSlice() {
	l.mu.Lock()
	batch := l.callbacks
	l.callbacks = nil
	l.mu.Unlock()

	for _, cb := range batch {
		cb(NewTimeDeadline(l.config.FrameBudget))
	}
}
