// Package server serves fiber applications over WebSocket.
//
// Each connection gets a Session that owns one engine, one remote.Host
// and one scheduler.Loop. The engine renders the application into the
// remote host; every commit is flushed to the client as a single
// FrameMutations frame, and client Event frames are dispatched to the
// bound listeners on the session's loop goroutine.
//
// Routes:
//
//	GET /           plain-text index
//	GET /healthz    liveness probe (JSON)
//	GET <WSPath>    WebSocket session (default /ws)
//	GET <MetricsPath> Prometheus metrics (default /metrics)
package server
