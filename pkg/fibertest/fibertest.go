// Package fibertest provides a deterministic harness for code that
// renders through a fiber.Engine.
//
// A Harness wires an engine to an in-memory document and a manual
// scheduler, so a test decides exactly how many units of work each tick
// gets and observes the document between ticks.
package fibertest

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/scheduler"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// MaxTicks bounds RunToCommit.
const MaxTicks = 100000

// Harness drives one engine against one memhost.Document.
type Harness struct {
	TB       testing.TB
	Doc      *memhost.Document
	Engine   *fiber.Engine
	Sched    *scheduler.Manual
	Recorder *Recorder
}

// New creates a started harness. Options are applied after the
// harness's own logger and observer, so callers can override both.
func New(tb testing.TB, opts ...fiber.Option) *Harness {
	tb.Helper()
	h := &Harness{
		TB:       tb,
		Doc:      memhost.New(),
		Sched:    scheduler.NewManual(),
		Recorder: &Recorder{},
	}
	base := []fiber.Option{
		fiber.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		fiber.WithObserver(h.Recorder),
	}
	h.Engine = fiber.New(h.Doc, append(base, opts...)...)
	h.Engine.Start(context.Background(), h.Sched)
	return h
}

// Render requests el and fails the test if the engine rejects it.
func (h *Harness) Render(el *vdom.Element) {
	h.TB.Helper()
	if err := h.Engine.Render(el, h.Doc.Container()); err != nil {
		h.TB.Fatalf("Render: %v", err)
	}
}

// Step runs one tick with a budget of units and returns its result.
func (h *Harness) Step(units int) fiber.TickResult {
	h.TB.Helper()
	before := len(h.Recorder.Ticks)
	h.Sched.Step(units)
	if err := h.Engine.Err(); err != nil {
		h.TB.Fatalf("engine faulted: %v", err)
	}
	if len(h.Recorder.Ticks) == before {
		return fiber.TickResult{}
	}
	return h.Recorder.Ticks[len(h.Recorder.Ticks)-1]
}

// RunToCommit ticks with a budget of units until the next commit and
// returns how many ticks it took.
func (h *Harness) RunToCommit(units int) int {
	h.TB.Helper()
	target := h.Engine.Commits() + 1
	n := 0
	for h.Engine.Commits() < target {
		if n >= MaxTicks {
			h.TB.Fatalf("no commit after %d ticks", n)
		}
		h.Step(units)
		n++
	}
	return n
}

// Mount renders el and runs it to commit in a single tick.
func (h *Harness) Mount(el *vdom.Element) {
	h.TB.Helper()
	h.Render(el)
	h.RunToCommit(math.MaxInt32)
}

// Settle ticks until no render is in flight or queued.
func (h *Harness) Settle() {
	h.TB.Helper()
	for i := 0; h.Engine.WorkInProgress() != nil; i++ {
		if i >= MaxTicks {
			h.TB.Fatalf("engine still busy after %d ticks", i)
		}
		h.Step(math.MaxInt32)
	}
}

// Census counts the committed tree's fibers by effect.
func (h *Harness) Census() map[fiber.Effect]int {
	if h.Engine.Current() == nil {
		return map[fiber.Effect]int{}
	}
	return h.Engine.Current().Census()
}

// LastCommit returns the stats of the most recent commit.
func (h *Harness) LastCommit() fiber.CommitStats {
	h.TB.Helper()
	if len(h.Recorder.Commits) == 0 {
		h.TB.Fatal("no commit recorded")
	}
	return h.Recorder.Commits[len(h.Recorder.Commits)-1]
}

// Outline returns the document's outline.
func (h *Harness) Outline() string {
	return h.Doc.Outline()
}

// Find returns the first node in the document matching pred.
func (h *Harness) Find(pred func(*memhost.Node) bool) *memhost.Node {
	return h.Doc.Container().Find(pred)
}

// ByKind returns the first node of the given kind.
func (h *Harness) ByKind(kind string) *memhost.Node {
	return h.Find(func(n *memhost.Node) bool { return n.Kind == kind })
}

// ByAttr returns the first node whose attribute name equals value.
func (h *Harness) ByAttr(name string, value any) *memhost.Node {
	return h.Doc.Container().ByAttr(name, value)
}

// Fire dispatches event on n and fails the test when nothing listens.
func (h *Harness) Fire(n *memhost.Node, event, value string) {
	h.TB.Helper()
	if n == nil {
		h.TB.Fatalf("Fire(%q): node is nil", event)
	}
	if h.Doc.Dispatch(n, event, value) == 0 {
		h.TB.Fatalf("Fire(%q): no listener on <%s>", event, n.Kind)
	}
}

// Recorder is a fiber.Observer that keeps every measurement.
type Recorder struct {
	Ticks   []fiber.TickResult
	Commits []fiber.CommitStats
	Queue   []int
}

func (r *Recorder) ObserveTick(t fiber.TickResult) { r.Ticks = append(r.Ticks, t) }

func (r *Recorder) ObserveCommit(s fiber.CommitStats, _ time.Duration) {
	r.Commits = append(r.Commits, s)
}

func (r *Recorder) ObserveQueue(depth int) { r.Queue = append(r.Queue, depth) }

// Units returns the total units of work recorded.
func (r *Recorder) Units() int {
	n := 0
	for _, t := range r.Ticks {
		n += t.Units
	}
	return n
}
