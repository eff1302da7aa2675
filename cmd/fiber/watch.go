package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/protocol"
	"github.com/vango-dev/fiber/pkg/remote"
)

func watchCmd() *cobra.Command {
	var (
		once  bool
		clear bool
	)

	cmd := &cobra.Command{
		Use:   "watch [url]",
		Short: "Mirror a served session in the terminal",
		Long: `Connect to a fiber server, apply every mutation batch to a local
replica and print the replica's outline after each one.

The URL defaults to the configured server's WebSocket endpoint.

Examples:
  fiber watch
  fiber watch ws://localhost:8080/ws --once`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			target := ""
			if len(args) == 1 {
				target = args[0]
			} else {
				sc := cfg.ServerConfig()
				u := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", sc.Host, sc.Port), Path: sc.WSPath}
				target = u.String()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := &watcher{
				out:     termenv.NewOutput(cmd.OutOrStdout()),
				replica: remote.NewReplica(logger),
				once:    once,
				clear:   clear,
			}
			return w.run(ctx, target)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Exit after the initial batch")
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the screen before each outline")

	return cmd
}

// watcher mirrors one session into a replica.
type watcher struct {
	out     *termenv.Output
	replica *remote.Replica
	once    bool
	clear   bool
}

func (w *watcher) run(ctx context.Context, target string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		done, err := w.handle(conn, msg)
		if err != nil || done {
			return err
		}
	}
}

// handle processes one frame and reports whether watching is over.
func (w *watcher) handle(conn *websocket.Conn, msg []byte) (bool, error) {
	f, err := protocol.DecodeFrame(msg)
	if err != nil {
		return false, errors.New("E160").Wrap(err)
	}

	switch f.Type {
	case protocol.FrameHello:
		h, err := protocol.DecodeHello(f.Payload)
		if err != nil {
			return false, errors.New("E160").Wrap(err)
		}
		fmt.Fprintf(w.out, "session %s (protocol v%d)\n", h.SessionID, h.Version)

	case protocol.FrameMutations:
		b, err := protocol.DecodeBatch(f.Payload)
		if err != nil {
			return false, errors.New("E160").Wrap(err)
		}
		if err := w.replica.Apply(b); err != nil {
			return false, err
		}
		ack := protocol.NewFrame(protocol.FrameAck, protocol.EncodeAck(&protocol.Ack{LastSeq: b.Seq}))
		if err := conn.WriteMessage(websocket.BinaryMessage, ack.Encode()); err != nil {
			return false, err
		}
		if w.clear {
			w.out.ClearScreen()
		}
		fmt.Fprintf(w.out, "── batch %d: %d mutations ──\n", b.Seq, len(b.Mutations))
		fmt.Fprint(w.out, w.replica.Document().Outline())
		return w.once, nil

	case protocol.FrameControl:
		c, err := protocol.DecodeControl(f.Payload)
		if err != nil {
			return false, errors.New("E160").Wrap(err)
		}
		if c.Type == protocol.ControlPing {
			pong := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{
				Type:      protocol.ControlPong,
				Timestamp: c.Timestamp,
			}))
			if err := conn.WriteMessage(websocket.BinaryMessage, pong.Encode()); err != nil {
				return false, err
			}
		}

	case protocol.FrameError:
		em, err := protocol.DecodeErrorMessage(f.Payload)
		if err != nil {
			return false, errors.New("E160").Wrap(err)
		}
		if em.Fatal {
			return true, fmt.Errorf("server closed session: %s", em.Message)
		}
		warn("server error %s: %s", em.Code, em.Message)
	}
	return false, nil
}
