// Package scheduler supplies the idle-time primitive the fiber engine
// runs on.
//
// The engine only needs two things: a way to ask for a callback when the
// host is idle (IdleScheduler), and, inside that callback, a Deadline
// that reports how much of the current slice is left.
//
// Two drivers are provided:
//
//   - Loop runs callbacks on a single goroutine with a wall-clock frame
//     budget. External goroutines hand work to it through Do, which keeps
//     the engine single-threaded.
//   - Manual runs callbacks only when Step is called, with a budget
//     measured in units of work. Tests use it to control exactly how many
//     units run per tick.
package scheduler
