package scheduler

import (
	"math"
	"time"
)

// Deadline reports the time left in the current idle slice.
// Successive calls within one slice never report more than the previous call.
type Deadline interface {
	TimeRemaining() time.Duration
}

// IdleScheduler invokes cb with a Deadline when the host is idle.
// Each request yields exactly one invocation.
type IdleScheduler interface {
	RequestIdleCallback(cb func(Deadline))
}

// Unlimited is a Deadline that never runs out.
var Unlimited Deadline = unlimited{}

type unlimited struct{}

func (unlimited) TimeRemaining() time.Duration { return time.Duration(math.MaxInt64) }

// TimeDeadline is a wall-clock deadline.
type TimeDeadline struct {
	End time.Time
	Now func() time.Time
}

// NewTimeDeadline returns a deadline budget from now.
func NewTimeDeadline(budget time.Duration) *TimeDeadline {
	return &TimeDeadline{End: time.Now().Add(budget), Now: time.Now}
}

// TimeRemaining implements Deadline.
func (d *TimeDeadline) TimeRemaining() time.Duration {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	left := d.End.Sub(now())
	if left < 0 {
		return 0
	}
	return left
}

// UnitDeadline grants a fixed number of units of work.
//
// Each TimeRemaining call consumes one unit and reports the units still
// left as whole milliseconds, so an engine with the default 1ms minimum
// budget performs exactly Units units before yielding.
type UnitDeadline struct {
	Units int
}

// TimeRemaining implements Deadline.
func (d *UnitDeadline) TimeRemaining() time.Duration {
	if d.Units > 0 {
		d.Units--
	}
	return time.Duration(d.Units) * time.Millisecond
}
