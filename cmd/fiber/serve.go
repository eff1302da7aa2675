package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/demo"
	"github.com/vango-dev/fiber/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve [item...]",
		Short: "Serve the todo demo over WebSocket",
		Long: `Serve the todo demo. Every WebSocket client gets its own list,
seeded with the given items, rendered by its own engine.

Mirror a session in another terminal with 'fiber watch'.

Examples:
  fiber serve
  fiber serve --port=8080 "buy milk" "walk the dog"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			srv, err := server.New(demo.App(args...), cfg.ServerConfig(), server.WithLogger(logger))
			if err != nil {
				return err
			}

			sc := srv.Config()
			fmt.Println()
			success("Serving on http://%s", sc.Address())
			info("WebSocket: ws://%s%s", sc.Address(), sc.WSPath)
			if sc.MetricsPath != "" {
				info("Metrics:   http://%s%s", sc.Address(), sc.MetricsPath)
			}
			fmt.Println()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}
