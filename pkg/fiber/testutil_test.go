package fiber

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/vdom"
)

type harness struct {
	t   *testing.T
	doc *memhost.Document
	eng *Engine
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	doc := memhost.New()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return &harness{t: t, doc: doc, eng: New(doc, opts...)}
}

// render renders el and flushes it to the host.
func (h *harness) render(el *vdom.Element) {
	h.t.Helper()
	if err := h.eng.Render(el, h.doc.Container()); err != nil {
		h.t.Fatalf("Render: %v", err)
	}
	if err := h.eng.Flush(context.Background()); err != nil {
		h.t.Fatalf("Flush: %v", err)
	}
}

// top returns the ID of the fiber for the rendered root element.
func (h *harness) top() ID {
	tree := h.eng.Current()
	return tree.At(tree.Root()).Child
}

// childEffects returns the effects of id's children in the current tree.
func (h *harness) childEffects(id ID) []Effect {
	tree := h.eng.Current()
	var out []Effect
	for _, c := range tree.Children(id) {
		out = append(out, tree.At(c).Effect)
	}
	return out
}

func (h *harness) childHosts(id ID) []any {
	tree := h.eng.Current()
	var out []any
	for _, c := range tree.Children(id) {
		out = append(out, tree.At(c).Host)
	}
	return out
}

func equalEffects(a, b []Effect) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type recordingObserver struct {
	ticks   []TickResult
	commits []CommitStats
	queue   []int
}

func (o *recordingObserver) ObserveTick(r TickResult) { o.ticks = append(o.ticks, r) }
func (o *recordingObserver) ObserveCommit(s CommitStats, _ time.Duration) {
	o.commits = append(o.commits, s)
}
func (o *recordingObserver) ObserveQueue(n int) { o.queue = append(o.queue, n) }
