package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// value returns the value of the named metric whose labels include
// want, or -1 if absent.
func value(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return -1
}

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithNamespace("test"))

	doc := memhost.New()
	eng := fiber.New(doc, fiber.WithObserver(c.Observer()))
	render := func(el *vdom.Element) {
		if err := eng.Render(el, doc.Container()); err != nil {
			t.Fatal(err)
		}
		if err := eng.Flush(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	render(vdom.Ul(vdom.Li("a"), vdom.Li("b")))
	render(vdom.Ul(vdom.Li("a")))

	if got := value(t, reg, "test_commits_total", nil); got != 2 {
		t.Errorf("commits = %v, want 2", got)
	}
	if got := value(t, reg, "test_units_total", nil); got != 10 {
		t.Errorf("units = %v, want 10 (6 + 4 fibers)", got)
	}
	if got := value(t, reg, "test_effects_total", map[string]string{"effect": "Placement"}); got != 5 {
		t.Errorf("placements = %v, want 5", got)
	}
	if got := value(t, reg, "test_effects_total", map[string]string{"effect": "Update"}); got != 3 {
		t.Errorf("updates = %v, want 3", got)
	}
	if got := value(t, reg, "test_effects_total", map[string]string{"effect": "Deletion"}); got != 1 {
		t.Errorf("deletions = %v, want 1", got)
	}
	if got := value(t, reg, "test_commit_duration_seconds", nil); got != 2 {
		t.Errorf("commit samples = %v, want 2", got)
	}
}

func TestQueueDepthSumsAcrossEngines(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg))
	a, b := c.Observer(), c.Observer()

	a.ObserveQueue(2)
	b.ObserveQueue(3)
	if got := value(t, reg, "fiber_queued_renders", nil); got != 5 {
		t.Errorf("queued = %v, want 5", got)
	}
	a.ObserveQueue(0)
	if got := value(t, reg, "fiber_queued_renders", nil); got != 3 {
		t.Errorf("queued = %v, want 3", got)
	}
}

func TestSessionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithConstLabels(prometheus.Labels{"app": "demo"}))

	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()
	c.BatchSent(4)
	c.BatchSent(6)
	c.EventReceived("click")
	c.EventReceived("click")
	c.EventReceived("input")

	if got := value(t, reg, "fiber_active_sessions", nil); got != 1 {
		t.Errorf("sessions = %v, want 1", got)
	}
	if got := value(t, reg, "fiber_mutations_sent_total", map[string]string{"app": "demo"}); got != 10 {
		t.Errorf("mutations = %v, want 10", got)
	}
	if got := value(t, reg, "fiber_events_received_total", map[string]string{"event": "click"}); got != 2 {
		t.Errorf("click events = %v, want 2", got)
	}
}

func TestCustomBuckets(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithSubsystem("engine"), WithBuckets([]float64{0.001, 0.01}))
	c.Observer().ObserveCommit(fiber.CommitStats{}, 5*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != "fiber_engine_commit_duration_seconds" {
			continue
		}
		buckets := mf.GetMetric()[0].GetHistogram().GetBucket()
		if len(buckets) != 2 {
			t.Fatalf("buckets = %d, want 2", len(buckets))
		}
		if buckets[0].GetCumulativeCount() != 0 || buckets[1].GetCumulativeCount() != 1 {
			t.Errorf("bucket counts = %d, %d; want 0, 1",
				buckets[0].GetCumulativeCount(), buckets[1].GetCumulativeCount())
		}
		return
	}
	t.Error("commit duration histogram not registered")
}
