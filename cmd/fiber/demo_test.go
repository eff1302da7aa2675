package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/demo"
	"github.com/vango-dev/fiber/pkg/server"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	err := runDemo(context.Background(), &out, demoOptions{
		units:  1,
		logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("runDemo() error = %v", err)
	}

	text := out.String()
	for _, step := range demoScript {
		if !strings.Contains(text, "── "+step.name+" ──") {
			t.Errorf("output missing step %q", step.name)
		}
	}
	if !strings.Contains(text, `"write docs"`) {
		t.Error("output never shows the added item")
	}
	// With one unit per tick the mount takes one tick per fiber.
	first := strings.SplitN(text, "\n", 2)[0]
	if strings.Contains(first, " 1 ticks") {
		t.Errorf("mount line = %q, want many ticks", first)
	}
}

func TestRunDemoQuiet(t *testing.T) {
	var out bytes.Buffer
	if err := runDemo(context.Background(), &out, demoOptions{quiet: true, logger: quietLogger()}); err != nil {
		t.Fatalf("runDemo() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(demoScript) {
		t.Errorf("lines = %d, want %d", len(lines), len(demoScript))
	}
	if !strings.Contains(lines[0], "1 ticks") {
		t.Errorf("mount line = %q, want a single tick", lines[0])
	}
}

func TestBenchSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("network benchmark")
	}
	srv, err := server.New(demo.App("a", "b"), config.New().ServerConfig(), server.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}

	var out bytes.Buffer
	cfg := benchConfig{Clients: 2, Duration: 500 * time.Millisecond, RPS: 50, Items: 2}
	if err := runBench(context.Background(), srv, cfg, &out); err != nil {
		t.Fatalf("runBench() error = %v", err)
	}
	if !strings.Contains(out.String(), "=== fiber bench ===") {
		t.Errorf("summary = %q", out.String())
	}
	if strings.Contains(out.String(), "No latency samples") {
		t.Errorf("no round trips completed:\n%s", out.String())
	}
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1},
		{0.5, 5},
		{0.95, 10},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(samples, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}
