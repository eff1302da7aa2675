package scheduler

// Manual is an IdleScheduler driven explicitly by Step.
// It is not safe for concurrent use.
type Manual struct {
	pending []func(Deadline)
	ticks   int
}

// NewManual creates a manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// RequestIdleCallback implements IdleScheduler.
func (m *Manual) RequestIdleCallback(cb func(Deadline)) {
	m.pending = append(m.pending, cb)
}

// Step runs the callbacks that were pending when it was called, each
// with a fresh UnitDeadline of units. Callbacks requested while stepping
// wait for the next Step. It reports whether anything ran.
func (m *Manual) Step(units int) bool {
	if len(m.pending) == 0 {
		return false
	}
	batch := m.pending
	m.pending = nil
	for _, cb := range batch {
		m.ticks++
		cb(&UnitDeadline{Units: units})
	}
	return true
}

// StepUntil steps with the given budget until done reports true or
// maxTicks ticks have run. It returns the number of ticks it ran.
func (m *Manual) StepUntil(units, maxTicks int, done func() bool) int {
	n := 0
	for n < maxTicks && !done() {
		if !m.Step(units) {
			break
		}
		n++
	}
	return n
}

// Pending returns the number of waiting callbacks.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// Ticks returns the number of callbacks run so far.
func (m *Manual) Ticks() int {
	return m.ticks
}
