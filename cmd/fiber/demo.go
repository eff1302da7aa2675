package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/demo"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/scheduler"
)

// demoStep is one scripted interaction with the todo list.
type demoStep struct {
	name string
	do   func(*demo.Todo)
}

var demoScript = []demoStep{
	{"mount", func(*demo.Todo) {}},
	{"add \"write docs\"", func(t *demo.Todo) { t.Add("write docs") }},
	{"toggle #1", func(t *demo.Todo) { t.Toggle(1) }},
	{"filter active", func(t *demo.Todo) { t.SetFilter(demo.FilterActive) }},
	{"filter all", func(t *demo.Todo) { t.SetFilter(demo.FilterAll) }},
	{"remove #2", func(t *demo.Todo) { t.Remove(2) }},
	{"clear done", func(t *demo.Todo) { t.ClearDone() }},
}

func demoCmd() *cobra.Command {
	var (
		units int
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render the todo demo into an in-memory document",
		Long: `Run a scripted session against the todo demo without a network.

Each step changes the list, then the engine is ticked with a budget of
--units units of work per tick until the change commits. The commit's
effect counts and the resulting document are printed after every step.

Examples:
  fiber demo
  fiber demo --units=1
  fiber demo --quiet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), demoOptions{
				units:     units,
				quiet:     quiet,
				minBudget: cfg.MinBudget(),
				maxQueued: cfg.Scheduler.MaxQueued,
				logger:    newLogger(cfg),
			})
		},
	}

	cmd.Flags().IntVarP(&units, "units", "u", 0, "Units of work per tick (0: unlimited)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print effect counts only")

	return cmd
}

type demoOptions struct {
	units     int
	quiet     bool
	minBudget time.Duration
	maxQueued int
	logger    *slog.Logger
}

// stepRecorder keeps the last commit's stats.
type stepRecorder struct {
	ticks int
	units int
	stats fiber.CommitStats
}

func (r *stepRecorder) ObserveTick(t fiber.TickResult) {
	r.ticks++
	r.units += t.Units
}

func (r *stepRecorder) ObserveCommit(s fiber.CommitStats, _ time.Duration) { r.stats = s }
func (r *stepRecorder) ObserveQueue(int)                                   {}

func runDemo(ctx context.Context, w io.Writer, opts demoOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	units := opts.units
	if units <= 0 {
		units = math.MaxInt32
	}

	doc := memhost.New()
	rec := &stepRecorder{}
	sched := scheduler.NewManual()
	eng := fiber.New(doc,
		fiber.WithLogger(opts.logger),
		fiber.WithObserver(rec),
		fiber.WithMinBudget(opts.minBudget),
		fiber.WithMaxQueued(opts.maxQueued),
	)
	eng.Start(ctx, sched)
	defer eng.Stop()

	todo := demo.NewTodo("buy milk", "walk the dog", "fix the bike")
	var renderErr error
	todo.OnChange = func() {
		if err := eng.Render(todo.View(), doc.Container()); err != nil && renderErr == nil {
			renderErr = err
		}
	}

	for i, step := range demoScript {
		if i == 0 {
			todo.OnChange()
		} else {
			step.do(todo)
		}
		if renderErr != nil {
			return renderErr
		}

		*rec = stepRecorder{}
		for eng.WorkInProgress() != nil {
			sched.Step(units)
			if err := eng.Err(); err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "── %s ── %d ticks, %d units: +%d placed, ~%d updated, -%d deleted\n",
			step.name, rec.ticks, rec.units,
			rec.stats.Placements, rec.stats.Updates, rec.stats.Deletions)
		if !opts.quiet {
			fmt.Fprint(w, doc.Outline())
			fmt.Fprintln(w)
		}
	}
	return nil
}
