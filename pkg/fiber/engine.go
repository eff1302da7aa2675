package fiber

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/scheduler"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// Defaults for engine options.
const (
	// DefaultMinBudget is the remaining-time threshold below which a tick yields.
	DefaultMinBudget = time.Millisecond

	// DefaultMaxQueued bounds renders waiting behind an in-flight tree.
	DefaultMaxQueued = 16

	defaultTracerName = "fiber"
)

// TickResult reports what one Tick did.
type TickResult struct {
	Units     int  // Units of work performed
	Committed bool // A commit ran in this tick
	Pending   bool // A WIP tree is still in flight
	Queued    int  // Renders waiting behind it
}

// Observer receives engine measurements. pkg/metrics implements it.
type Observer interface {
	ObserveTick(TickResult)
	ObserveCommit(CommitStats, time.Duration)
	ObserveQueue(depth int)
}

type nopObserver struct{}

func (nopObserver) ObserveTick(TickResult)                   {}
func (nopObserver) ObserveCommit(CommitStats, time.Duration) {}
func (nopObserver) ObserveQueue(int)                         {}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver sets the measurement sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithTracer sets the tracer used for commit spans.
// Default: otel.Tracer("fiber") from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithMinBudget sets the remaining-time threshold below which a tick yields.
func WithMinBudget(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.minBudget = d
		}
	}
}

// WithMaxQueued bounds the number of renders waiting behind an in-flight tree.
func WithMaxQueued(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxQueued = n
		}
	}
}

// WithErrorHandler is called with the error that faults an engine driven
// by Start. It is called once; the engine stops polling after a fault.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

type renderRequest struct {
	root      *vdom.Element
	container host.Handle
}

// Engine reconciles and commits element trees against one host surface.
type Engine struct {
	host      host.Host
	logger    *slog.Logger
	observer  Observer
	tracer    trace.Tracer
	minBudget time.Duration
	maxQueued int
	onError   func(error)

	current   *Tree
	wip       *Tree
	next      ID
	deletions []ID
	queue     []renderRequest

	faulted error
	stopped bool
	ctx     context.Context
	sched   scheduler.IdleScheduler
	commits uint64
}

// New creates an engine that mutates h.
func New(h host.Host, opts ...Option) *Engine {
	e := &Engine{
		host:      h,
		logger:    slog.Default().With("component", "fiber"),
		observer:  nopObserver{},
		tracer:    otel.Tracer(defaultTracerName),
		minBudget: DefaultMinBudget,
		maxQueued: DefaultMaxQueued,
		next:      None,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render requests that root be rendered into container.
//
// If no tree is in flight the new WIP tree starts immediately; otherwise
// the request waits until the in-flight tree commits. Render never does
// any reconciliation itself; Tick does.
func (e *Engine) Render(root *vdom.Element, container host.Handle) error {
	if e.faulted != nil {
		return errors.New("E003").Wrap(e.faulted)
	}
	if e.stopped {
		return errors.New("E010")
	}
	if container == nil {
		return errors.New("E001").WithDetail("render container is nil")
	}
	if root == nil {
		return errors.New("E001").WithDetail("render root is nil")
	}
	if err := validate(root); err != nil {
		return err
	}

	req := renderRequest{root: root, container: container}
	if e.wip != nil {
		if len(e.queue) >= e.maxQueued {
			return errors.New("E011").WithDetailf("%d renders already waiting", len(e.queue))
		}
		e.queue = append(e.queue, req)
		e.observer.ObserveQueue(len(e.queue))
		e.logger.Debug("render queued", "depth", len(e.queue))
		return nil
	}
	e.begin(req)
	return nil
}

// begin creates the WIP root for req.
func (e *Engine) begin(req renderRequest) {
	e.wip = newTree(vdom.Count(req.root) + 1)

	alternate := None
	if e.current != nil {
		oldRoot := e.current.At(e.current.Root())
		if oldRoot.Host == req.container {
			alternate = e.current.Root()
		} else {
			// New surface: everything under the old container goes.
			for _, c := range e.current.Children(e.current.Root()) {
				e.current.At(c).Effect = Deletion
				e.deletions = append(e.deletions, c)
			}
		}
	}

	e.wip.alloc(Fiber{
		Kind:         RootKind,
		Host:         req.container,
		Parent:       None,
		Child:        None,
		Sibling:      None,
		Alternate:    alternate,
		rootChildren: []*vdom.Element{req.root},
	})
	e.next = e.wip.Root()
}

// Tick performs units of work until none remain or deadline reports less
// than the minimum budget. At least one unit runs per tick. When the walk
// finishes, the commit runs in the same tick and the next queued render,
// if any, is started.
func (e *Engine) Tick(ctx context.Context, deadline scheduler.Deadline) (TickResult, error) {
	var res TickResult
	if e.faulted != nil {
		return res, errors.New("E003").Wrap(e.faulted)
	}

	for e.next != None {
		next, err := e.performUnitOfWork(e.next)
		if err != nil {
			e.fault(err)
			return res, err
		}
		e.next = next
		res.Units++
		if deadline.TimeRemaining() < e.minBudget {
			break
		}
	}

	if e.next == None && e.wip != nil {
		if err := e.commit(ctx); err != nil {
			return res, err
		}
		res.Committed = true
		if len(e.queue) > 0 {
			req := e.queue[0]
			e.queue = e.queue[1:]
			e.begin(req)
			e.observer.ObserveQueue(len(e.queue))
		}
	}

	res.Pending = e.wip != nil
	res.Queued = len(e.queue)
	e.observer.ObserveTick(res)
	if res.Units > 0 {
		e.logger.Debug("tick", "units", res.Units, "committed", res.Committed, "pending", res.Pending)
	}
	return res, nil
}

// Flush ticks without a time limit until no render is in flight or queued.
func (e *Engine) Flush(ctx context.Context) error {
	for e.wip != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.Tick(ctx, scheduler.Unlimited); err != nil {
			return err
		}
	}
	return nil
}

// Start attaches the engine to sched. Every tick re-requests an idle
// callback when it ends, whether or not work is pending, until Stop.
func (e *Engine) Start(ctx context.Context, sched scheduler.IdleScheduler) {
	e.ctx = ctx
	e.sched = sched
	e.stopped = false
	sched.RequestIdleCallback(e.workLoop)
}

// Stop ends the polling loop after the current tick. Further Render calls fail with E010.
func (e *Engine) Stop() {
	e.stopped = true
}

func (e *Engine) workLoop(deadline scheduler.Deadline) {
	if e.stopped {
		return
	}
	if err := e.ctx.Err(); err != nil {
		e.stopped = true
		return
	}
	if _, err := e.Tick(e.ctx, deadline); err != nil {
		e.logger.Error("tick failed", "error", err)
		if e.onError != nil {
			e.onError(err)
		}
		if e.faulted != nil {
			e.stopped = true
			return
		}
	}
	if !e.stopped {
		e.sched.RequestIdleCallback(e.workLoop)
	}
}

func (e *Engine) fault(err error) {
	if e.faulted == nil {
		e.faulted = err
		e.logger.Error("engine faulted", "error", err)
	}
}

// Current returns the committed tree, or nil before the first commit.
func (e *Engine) Current() *Tree { return e.current }

// WorkInProgress returns the tree under construction, or nil.
func (e *Engine) WorkInProgress() *Tree { return e.wip }

// NextUnit returns the fiber the next tick will process, or None.
func (e *Engine) NextUnit() ID { return e.next }

// PendingDeletions returns the IDs (in the current tree) queued for removal.
func (e *Engine) PendingDeletions() []ID {
	out := make([]ID, len(e.deletions))
	copy(out, e.deletions)
	return out
}

// Queued returns the number of waiting render requests.
func (e *Engine) Queued() int { return len(e.queue) }

// Commits returns the number of successful commits.
func (e *Engine) Commits() uint64 { return e.commits }

// Trees returns how many fiber trees the engine holds (never more than two).
func (e *Engine) Trees() int {
	n := 0
	if e.current != nil {
		n++
	}
	if e.wip != nil {
		n++
	}
	return n
}

// Err returns the error that faulted the engine, or nil.
func (e *Engine) Err() error { return e.faulted }
