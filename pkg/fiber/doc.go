// Package fiber is an incremental tree-reconciliation engine.
//
// A render request turns an element description (package vdom) into a
// work-in-progress fiber tree. The engine walks that tree one fiber at a
// time, diffing each fiber's declared children against the fiber that
// held the same position in the last committed tree. Walking can pause
// between any two fibers and resume on the next idle tick. Once the walk
// finishes, the commit phase applies all queued mutations to the host in
// a single pass and the work-in-progress tree becomes current.
//
// # Trees
//
// Fibers live in per-tree arenas and link to each other by ID. The
// engine holds at most two trees: current (what the host shows, up to
// the placement order noted below) and work-in-progress (invisible to
// the host until commit).
//
// # Reconciliation
//
// Children are matched by position, not by key. A fiber whose kind
// matches the old fiber at the same index is an Update that reuses the
// old host node; anything else is a Placement of a new node plus a
// Deletion of the old one. Reordering same-kind siblings therefore
// rewrites them in place instead of moving them.
//
// The host interface has no insert-before primitive, so a Placement is
// always appended to its host parent. A kind change in the middle of a
// child list leaves the new node after its siblings on the host
// (p,span,p becoming p,div,p shows up as p,p,div) even though the
// current tree holds it in position. Give such children a stable kind,
// or wrap the changing part in an element of its own.
//
// # Scheduling
//
// Tick performs units of work until the Deadline runs low, then returns.
// Start hooks an engine to a scheduler.IdleScheduler and re-arms itself
// after every tick. Renders issued while a tree is in flight are queued
// and start after it commits.
//
// An Engine is not safe for concurrent use. Drive it from one goroutine,
// for example through scheduler.Loop.
package fiber
