package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestUnitDeadline(t *testing.T) {
	d := &UnitDeadline{Units: 2}
	if got := d.TimeRemaining(); got != time.Millisecond {
		t.Errorf("first call = %v, want 1ms", got)
	}
	if got := d.TimeRemaining(); got != 0 {
		t.Errorf("second call = %v, want 0", got)
	}
	if got := d.TimeRemaining(); got != 0 {
		t.Errorf("exhausted call = %v, want 0", got)
	}
}

func TestTimeDeadline(t *testing.T) {
	base := time.Unix(100, 0)
	now := base
	d := &TimeDeadline{End: base.Add(10 * time.Millisecond), Now: func() time.Time { return now }}

	if got := d.TimeRemaining(); got != 10*time.Millisecond {
		t.Errorf("TimeRemaining = %v, want 10ms", got)
	}
	now = base.Add(4 * time.Millisecond)
	if got := d.TimeRemaining(); got != 6*time.Millisecond {
		t.Errorf("TimeRemaining = %v, want 6ms", got)
	}
	now = base.Add(time.Second)
	if got := d.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining past end = %v, want 0", got)
	}
}

func TestUnlimited(t *testing.T) {
	if Unlimited.TimeRemaining() < time.Hour {
		t.Error("Unlimited should report a very large budget")
	}
}

func TestManualStep(t *testing.T) {
	m := NewManual()
	if m.Step(1) {
		t.Error("Step with nothing pending should report false")
	}

	var budgets []time.Duration
	var cb func(Deadline)
	cb = func(d Deadline) {
		budgets = append(budgets, d.TimeRemaining())
		m.RequestIdleCallback(cb) // re-arm
	}
	m.RequestIdleCallback(cb)

	if !m.Step(3) {
		t.Fatal("Step should run the pending callback")
	}
	if m.Pending() != 1 {
		t.Errorf("Pending = %d, want 1 (re-armed callback waits for next step)", m.Pending())
	}
	m.Step(3)
	if m.Ticks() != 2 {
		t.Errorf("Ticks = %d, want 2", m.Ticks())
	}
	if len(budgets) != 2 || budgets[0] != 2*time.Millisecond {
		t.Errorf("budgets = %v", budgets)
	}
}

func TestManualStepUntil(t *testing.T) {
	m := NewManual()
	count := 0
	var cb func(Deadline)
	cb = func(Deadline) {
		count++
		m.RequestIdleCallback(cb)
	}
	m.RequestIdleCallback(cb)

	n := m.StepUntil(1, 100, func() bool { return count >= 5 })
	if n != 5 || count != 5 {
		t.Errorf("StepUntil ran %d ticks, count %d; want 5, 5", n, count)
	}
}

func TestLoopRunsCallbacksAndTasks(t *testing.T) {
	l := NewLoop(LoopConfig{FrameBudget: 5 * time.Millisecond, IdleInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	var ticks atomic.Int32
	var sawBudget atomic.Bool
	var cb func(Deadline)
	cb = func(d Deadline) {
		if d.TimeRemaining() > 0 {
			sawBudget.Store(true)
		}
		ticks.Add(1)
		l.RequestIdleCallback(cb)
	}

	// Register through Do so the callback chain starts on the loop goroutine.
	ran := false
	if err := l.Do(ctx, func() {
		ran = true
		l.RequestIdleCallback(cb)
	}); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if !ran {
		t.Error("Do did not run the task")
	}

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		l.Wake()
		time.Sleep(time.Millisecond)
	}
	if ticks.Load() < 3 {
		t.Fatalf("ticks = %d, want >= 3", ticks.Load())
	}
	if !sawBudget.Load() {
		t.Error("callbacks should see a positive frame budget")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if err := l.Do(context.Background(), func() {}); err != ErrLoopTerminated {
		t.Errorf("Do after stop = %v, want ErrLoopTerminated", err)
	}
}

func TestLoopRunTwice(t *testing.T) {
	l := NewLoop(LoopConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	defer cancel()

	deadline := time.Now().Add(time.Second)
	for !l.running.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := l.Run(ctx); err != ErrLoopAlreadyRunning {
		t.Errorf("second Run = %v, want ErrLoopAlreadyRunning", err)
	}
}
