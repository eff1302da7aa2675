package fiber

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
)

// CommitStats summarizes one commit.
type CommitStats struct {
	Placements int
	Updates    int
	Deletions  int
	Fibers     int
}

// Commit applies the finished WIP tree to the host and makes it current.
//
// It fails with E004 unless a WIP tree exists and has been fully walked,
// so a tree is never committed twice. A host failure returns E002 and
// leaves the engine faulted.
func (e *Engine) Commit(ctx context.Context) error {
	if e.faulted != nil {
		return errors.New("E003").Wrap(e.faulted)
	}
	if e.wip == nil {
		return errors.New("E004").WithDetail("no work-in-progress tree")
	}
	if e.next != None {
		return errors.New("E004").WithDetail("work-in-progress tree is still being reconciled")
	}
	return e.commit(ctx)
}

func (e *Engine) commit(ctx context.Context) error {
	start := time.Now()
	_, span := e.tracer.Start(ctx, "fiber.commit")
	defer span.End()

	stats := CommitStats{Deletions: len(e.deletions), Fibers: e.wip.Len()}

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.fault(err)
		return err
	}

	for _, id := range e.deletions {
		parent := e.current.hostParent(id)
		if err := e.commitDeletion(id, parent); err != nil {
			return fail(err)
		}
	}

	var walkErr error
	e.wip.Walk(e.wip.Root(), func(id ID, f *Fiber) bool {
		if f.IsRoot() {
			return true
		}
		switch f.Effect {
		case Placement:
			stats.Placements++
			if f.Host == nil {
				return true
			}
			parent := e.wip.hostParent(id)
			if err := e.host.AppendChild(parent, f.Host); err != nil {
				walkErr = hostError("AppendChild", f.Kind, err)
				return false
			}
		case Update:
			stats.Updates++
			if f.Host == nil {
				break
			}
			prev := e.current.At(f.Alternate).Attrs
			if err := e.updateHost(f.Host, f.Kind, prev, f.Attrs); err != nil {
				walkErr = err
				return false
			}
		}
		return true
	})
	if walkErr != nil {
		return fail(walkErr)
	}

	// The previous tree is released here; alternates would dangle.
	for i := range e.wip.fibers {
		e.wip.fibers[i].Alternate = None
	}
	e.current = e.wip
	e.wip = nil
	e.deletions = e.deletions[:0]
	e.commits++

	span.SetAttributes(
		attribute.Int("fiber.placements", stats.Placements),
		attribute.Int("fiber.updates", stats.Updates),
		attribute.Int("fiber.deletions", stats.Deletions),
		attribute.Int("fiber.fibers", stats.Fibers),
	)
	elapsed := time.Since(start)
	e.observer.ObserveCommit(stats, elapsed)
	e.logger.Debug("commit",
		"placements", stats.Placements,
		"updates", stats.Updates,
		"deletions", stats.Deletions,
		"duration", elapsed)
	return nil
}

// commitDeletion removes a deleted fiber's host presence from parent.
// A fiber without a host node is a pass-through; its child is removed instead.
func (e *Engine) commitDeletion(id ID, parent host.Handle) error {
	for id != None {
		f := e.current.At(id)
		if f.Host != nil {
			if err := e.host.RemoveChild(parent, f.Host); err != nil {
				return hostError("RemoveChild", f.Kind, err)
			}
			return nil
		}
		id = f.Child
	}
	return nil
}
