package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Persistent flags.
var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fiber",
		Short: "Incremental tree reconciliation engine",
		Long: `fiber renders element trees into host surfaces in small units of
work, committing each finished tree in one pass.

Run the todo demo offline, serve it over WebSocket, or mirror a
running session into the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: fiber.json or fiber.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		demoCmd(),
		serveCmd(),
		watchCmd(),
		benchCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// loadConfig reads --config, or the working directory's config file,
// or falls back to defaults when there is none.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(".")
		if errors.HasCode(err, "E141") {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// stdout styles CLI messages; colors drop out when stdout is not a terminal.
var stdout = termenv.NewOutput(os.Stdout)

// success prints a success message.
func success(format string, args ...any) {
	mark := stdout.String("✓").Foreground(termenv.ANSIGreen)
	fmt.Fprintf(stdout, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Fprintf(stdout, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	mark := stdout.String("⚠").Foreground(termenv.ANSIYellow)
	fmt.Fprintf(stdout, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
