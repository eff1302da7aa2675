package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/metrics"
	"github.com/vango-dev/fiber/pkg/protocol"
	"github.com/vango-dev/fiber/pkg/remote"
	"github.com/vango-dev/fiber/pkg/scheduler"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// sendBuffer is the number of frames a session buffers for its writer.
const sendBuffer = 64

// App builds the element tree for a session. It is called on the
// session's loop goroutine, once at mount and again on every Refresh.
type App func(s *Session) *vdom.Element

// Session is one connected client.
//
// The engine, the remote host and every listener run on the session's
// loop goroutine. Code on other goroutines reaches them through Update.
type Session struct {
	id        string
	conn      *websocket.Conn
	config    Config
	logger    *slog.Logger
	collector *metrics.Collector
	app       App

	loop   *scheduler.Loop
	engine *fiber.Engine
	host   *remote.Host

	send     chan []byte
	done     chan struct{}
	finished chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc

	closeOnce sync.Once
	ackSeq    atomic.Uint64
	state     sync.Map
}

func newSession(ctx context.Context, conn *websocket.Conn, app App, config Config, logger *slog.Logger, collector *metrics.Collector) *Session {
	id := uuid.NewString()
	s := &Session{
		id:        id,
		conn:      conn,
		config:    config,
		logger:    logger.With("session", id),
		collector: collector,
		app:       app,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.loop = scheduler.NewLoop(scheduler.LoopConfig{
		FrameBudget:  config.FrameBudget,
		IdleInterval: config.IdleInterval,
		Logger:       s.logger,
	})
	s.host = remote.NewHost(s.logger)

	var inner fiber.Observer
	if collector != nil {
		inner = collector.Observer()
	}
	s.engine = fiber.New(s.host,
		fiber.WithLogger(s.logger.With("component", "fiber")),
		fiber.WithObserver(&sessionObserver{s: s, inner: inner}),
		fiber.WithMinBudget(config.MinBudget),
		fiber.WithMaxQueued(config.MaxQueued),
		fiber.WithErrorHandler(s.fail),
	)
	return s
}

// ID returns the session ID sent in the Hello frame.
func (s *Session) ID() string { return s.id }

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// AckedSeq returns the last batch sequence the client acknowledged.
func (s *Session) AckedSeq() uint64 { return s.ackSeq.Load() }

// Get returns per-session state stored with Set.
func (s *Session) Get(key string) (any, bool) { return s.state.Load(key) }

// Set stores per-session state.
func (s *Session) Set(key string, value any) { s.state.Store(key, value) }

// Render schedules el as the session's next tree.
// It must be called on the loop goroutine (listeners and Update functions).
func (s *Session) Render(el *vdom.Element) error {
	if err := s.engine.Render(el, s.host.Container()); err != nil {
		return err
	}
	s.loop.Wake()
	return nil
}

// Refresh renders the App again. Loop goroutine only.
func (s *Session) Refresh() error {
	return s.Render(s.app(s))
}

// Update runs fn on the loop goroutine and then refreshes the App.
// Safe from any goroutine except the loop's own.
func (s *Session) Update(ctx context.Context, fn func()) error {
	var err error
	doErr := s.loop.Do(ctx, func() {
		if fn != nil {
			fn()
		}
		err = s.Refresh()
	})
	if doErr == scheduler.ErrLoopTerminated {
		return errors.New("E162")
	}
	if doErr != nil {
		return doErr
	}
	return err
}

// serve runs the session until the connection closes or the session's
// context is done.
func (s *Session) serve() {
	defer s.Close()

	s.enqueue(protocol.NewFrame(protocol.FrameHello, protocol.EncodeHello(&protocol.Hello{
		Version:   protocol.Version,
		SessionID: s.id,
	})))

	go s.writeLoop()
	go func() {
		if err := s.loop.Run(s.ctx); err != nil {
			s.logger.Error("loop failed", "error", err)
		}
	}()
	s.engine.Start(s.ctx, s.loop)

	if err := s.Update(s.ctx, nil); err != nil {
		s.fail(err)
		return
	}
	s.logger.Info("session started")
	s.readLoop()
}

// readLoop decodes client frames until the connection fails.
func (s *Session) readLoop() {
	s.conn.SetReadLimit(s.config.MaxMessageSize)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.sendError(errors.New("E160").Wrap(err), false)
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEvent(frame.Payload)
		case protocol.FrameAck:
			s.handleAck(frame.Payload)
		case protocol.FrameControl:
			if !s.handleControl(frame.Payload) {
				return
			}
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.sendError(errors.New("E160").WithDetailf("client sent %s frame", frame.Type), false)
		}
	}
}

func (s *Session) handleEvent(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.sendError(errors.New("E160").Wrap(err), false)
		return
	}
	if s.collector != nil {
		s.collector.EventReceived(ev.Type)
	}

	var dispatchErr error
	if err := s.loop.Do(s.ctx, func() {
		_, dispatchErr = s.host.Dispatch(*ev)
	}); err != nil {
		return
	}
	if dispatchErr != nil {
		// The client raced a removal; its next batch drops the node.
		s.logger.Debug("event dropped", "node", ev.Node, "event", ev.Type, "error", dispatchErr)
	}
}

func (s *Session) handleAck(payload []byte) {
	ack, err := protocol.DecodeAck(payload)
	if err != nil {
		s.sendError(errors.New("E160").Wrap(err), false)
		return
	}
	s.ackSeq.Store(ack.LastSeq)
	s.logger.Debug("received ack", "seq", ack.LastSeq)
}

// handleControl reports whether the session should keep reading.
func (s *Session) handleControl(payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.sendError(errors.New("E160").Wrap(err), false)
		return true
	}
	switch c.Type {
	case protocol.ControlPing:
		s.enqueue(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{
			Type:      protocol.ControlPong,
			Timestamp: c.Timestamp,
		})))
	case protocol.ControlPong:
		s.logger.Debug("received pong")
	case protocol.ControlClose:
		s.logger.Info("client closing")
		return false
	}
	return true
}

// writeLoop owns every write to the connection.
func (s *Session) writeLoop() {
	defer close(s.finished)
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				s.logger.Debug("write failed", "error", err)
				s.Close()
				s.drain()
				return
			}
		case <-ticker.C:
			ping := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{
				Type:      protocol.ControlPing,
				Timestamp: uint64(time.Now().UnixMilli()),
			}))
			if err := s.write(ping.Encode()); err != nil {
				s.Close()
				s.drain()
				return
			}
		case <-s.ctx.Done():
			s.Close()
			s.drain()
			return
		}
	}
}

// drain flushes buffered frames, then closes the connection.
func (s *Session) drain() {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				s.conn.Close()
				return
			}
		default:
			s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			s.conn.Close()
			return
		}
	}
}

func (s *Session) write(msg []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// enqueue hands a frame to the writer. A full buffer closes the session.
func (s *Session) enqueue(f *protocol.Frame) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- f.Encode():
	default:
		s.logger.Warn("closing session", "error", errors.New("E163").WithDetailf("%d frames unsent", len(s.send)))
		s.Close()
	}
}

func (s *Session) sendError(err error, fatal bool) {
	em := &protocol.ErrorMessage{
		Code:    errors.FromError(err, "E160").Code,
		Message: err.Error(),
		Fatal:   fatal,
	}
	f := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em))
	if fatal {
		f.Flags |= protocol.FlagFinal
	}
	s.enqueue(f)
}

// fail sends a fatal error frame and closes the session.
func (s *Session) fail(err error) {
	s.logger.Error("session failed", "error", err)
	s.sendError(err, true)
	s.Close()
}

// flush sends whatever the last commit queued on the host.
func (s *Session) flush() {
	b := s.host.Flush()
	if b == nil {
		return
	}
	f := protocol.NewFrame(protocol.FrameMutations, protocol.EncodeBatch(b))
	if b.Seq == 1 {
		f.Flags |= protocol.FlagInitial
	}
	if s.collector != nil {
		s.collector.BatchSent(len(b.Mutations))
	}
	s.enqueue(f)
	s.logger.Debug("batch sent", "seq", b.Seq, "mutations", len(b.Mutations))
}

// Close ends the session. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
		s.logger.Info("session closed")
	})
}

// wait blocks until the writer has closed the connection.
func (s *Session) wait(ctx context.Context) error {
	select {
	case <-s.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sessionObserver flushes each commit to the client and forwards
// measurements to the metrics collector.
type sessionObserver struct {
	s     *Session
	inner fiber.Observer
}

func (o *sessionObserver) ObserveTick(r fiber.TickResult) {
	if o.inner != nil {
		o.inner.ObserveTick(r)
	}
}

func (o *sessionObserver) ObserveCommit(st fiber.CommitStats, d time.Duration) {
	if o.inner != nil {
		o.inner.ObserveCommit(st, d)
	}
	o.s.flush()
}

func (o *sessionObserver) ObserveQueue(depth int) {
	if o.inner != nil {
		o.inner.ObserveQueue(depth)
	}
}
