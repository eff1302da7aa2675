// Package metrics exposes fiber engine and session measurements to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/fiber/pkg/fiber"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "fiber").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: exponential from 50µs, suited to sub-frame commits.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the commit duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "fiber",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the engine and session metrics. One Collector serves
// any number of engines; give each engine its own Observer.
type Collector struct {
	units          prometheus.Counter
	ticks          prometheus.Counter
	commits        prometheus.Counter
	effects        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	queued         prometheus.Gauge

	sessions       prometheus.Gauge
	batchesSent    prometheus.Counter
	mutationsSent  prometheus.Counter
	eventsReceived *prometheus.CounterVec
}

// New creates a collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Collector{
		units:   counter("units_total", "Units of work performed"),
		ticks:   counter("ticks_total", "Scheduler ticks run"),
		commits: counter("commits_total", "Fiber trees committed to the host"),
		effects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_total",
			Help:        "Committed effects by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit phase duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		queued: gauge("queued_renders", "Renders waiting behind an in-flight tree"),

		sessions:      gauge("active_sessions", "Open WebSocket sessions"),
		batchesSent:   counter("batches_sent_total", "Mutation batches sent to clients"),
		mutationsSent: counter("mutations_sent_total", "Host mutations sent to clients"),
		eventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_received_total",
			Help:        "Client events received, by event type",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),
	}
}

// Observer returns a fiber.Observer feeding this collector. Each engine
// needs its own, so queue depths from different engines add up.
func (c *Collector) Observer() fiber.Observer {
	return &engineObserver{c: c}
}

// SessionOpened records a new session.
func (c *Collector) SessionOpened() { c.sessions.Inc() }

// SessionClosed records a closed session.
func (c *Collector) SessionClosed() { c.sessions.Dec() }

// BatchSent records one outgoing batch of n mutations.
func (c *Collector) BatchSent(n int) {
	c.batchesSent.Inc()
	c.mutationsSent.Add(float64(n))
}

// EventReceived records one client event.
func (c *Collector) EventReceived(event string) {
	c.eventsReceived.WithLabelValues(event).Inc()
}

type engineObserver struct {
	c *Collector

	mu    sync.Mutex
	depth int
}

func (o *engineObserver) ObserveTick(r fiber.TickResult) {
	o.c.ticks.Inc()
	o.c.units.Add(float64(r.Units))
}

func (o *engineObserver) ObserveCommit(s fiber.CommitStats, d time.Duration) {
	o.c.commits.Inc()
	o.c.effects.WithLabelValues(fiber.Placement.String()).Add(float64(s.Placements))
	o.c.effects.WithLabelValues(fiber.Update.String()).Add(float64(s.Updates))
	o.c.effects.WithLabelValues(fiber.Deletion.String()).Add(float64(s.Deletions))
	o.c.commitDuration.Observe(d.Seconds())
}

func (o *engineObserver) ObserveQueue(depth int) {
	o.mu.Lock()
	delta := depth - o.depth
	o.depth = depth
	o.mu.Unlock()
	o.c.queued.Add(float64(delta))
}
