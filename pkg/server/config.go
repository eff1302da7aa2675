package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/scheduler"
)

// Config configures a Server.
type Config struct {
	// Host is the interface to bind. Default: "localhost".
	Host string

	// Port is the TCP port. Default: 3000.
	Port int

	// WSPath is the WebSocket endpoint. Default: "/ws".
	WSPath string

	// MetricsPath is the Prometheus endpoint. Empty disables it.
	// Default: "/metrics".
	MetricsPath string

	// FrameBudget is the time each idle slice grants the engine.
	// Default: scheduler.DefaultFrameBudget.
	FrameBudget time.Duration

	// IdleInterval is the pause between idle slices.
	// Default: scheduler.DefaultIdleInterval.
	IdleInterval time.Duration

	// MinBudget is the remaining time below which a tick yields.
	// Default: fiber.DefaultMinBudget.
	MinBudget time.Duration

	// MaxQueued bounds renders waiting behind an in-flight tree.
	// Default: fiber.DefaultMaxQueued.
	MaxQueued int

	// WriteTimeout bounds each WebSocket write. Default: 10 seconds.
	WriteTimeout time.Duration

	// PingInterval is the time between heartbeat pings. Default: 30 seconds.
	PingInterval time.Duration

	// MaxMessageSize limits incoming WebSocket messages. Default: 64KB.
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown. Default: 10 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            3000,
		WSPath:          "/ws",
		MetricsPath:     "/metrics",
		FrameBudget:     scheduler.DefaultFrameBudget,
		IdleInterval:    scheduler.DefaultIdleInterval,
		MinBudget:       fiber.DefaultMinBudget,
		MaxQueued:       fiber.DefaultMaxQueued,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ShutdownTimeout: 10 * time.Second,
	}
}

// withDefaults returns c with zero fields replaced by defaults.
// MetricsPath is left alone so "" can disable the endpoint; use "-"
// in a config file for the same effect.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.WSPath == "" {
		c.WSPath = d.WSPath
	}
	if c.MetricsPath == "-" {
		c.MetricsPath = ""
	}
	if c.FrameBudget <= 0 {
		c.FrameBudget = d.FrameBudget
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = d.IdleInterval
	}
	if c.MinBudget <= 0 {
		c.MinBudget = d.MinBudget
	}
	if c.MaxQueued <= 0 {
		c.MaxQueued = d.MaxQueued
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("wsPath %q must start with /", c.WSPath)
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metricsPath %q must start with /", c.MetricsPath)
	}
	if c.MetricsPath != "" && c.MetricsPath == c.WSPath {
		return fmt.Errorf("metricsPath and wsPath are both %q", c.WSPath)
	}
	return nil
}
