package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/server"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "fiber.json"

	// YAMLFileName is the name of the YAML configuration file.
	YAMLFileName = "fiber.yaml"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"
)

// fileNames are searched in order by Load.
var fileNames = []string{ConfigFileName, YAMLFileName, "fiber.yml"}

// Config represents a fiber project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Scheduler configures the engine's time slicing.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Server configures the WebSocket server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Log configures the slog handler built by the CLI.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig contains engine and loop timing settings.
type SchedulerConfig struct {
	// FrameBudget is the time each idle slice grants the engine (e.g., "16ms").
	FrameBudget string `json:"frameBudget,omitempty" yaml:"frameBudget,omitempty"`

	// MinBudget is the remaining time below which a tick yields.
	MinBudget string `json:"minBudget,omitempty" yaml:"minBudget,omitempty"`

	// IdleInterval is the pause between idle slices.
	IdleInterval string `json:"idleInterval,omitempty" yaml:"idleInterval,omitempty"`

	// MaxQueued bounds renders waiting behind an in-flight tree.
	MaxQueued int `json:"maxQueued,omitempty" yaml:"maxQueued,omitempty"`
}

// ServerConfig contains server settings.
type ServerConfig struct {
	Host         string `json:"host,omitempty" yaml:"host,omitempty"`
	Port         int    `json:"port,omitempty" yaml:"port,omitempty"`
	WSPath       string `json:"wsPath,omitempty" yaml:"wsPath,omitempty"`
	MetricsPath  string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	PingInterval string `json:"pingInterval,omitempty" yaml:"pingInterval,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			FrameBudget:  "16ms",
			MinBudget:    "1ms",
			IdleInterval: "4ms",
			MaxQueued:    16,
		},
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			WSPath:       "/ws",
			MetricsPath:  "/metrics",
			WriteTimeout: "10s",
			PingInterval: "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from dir, trying fiber.json, fiber.yaml and
// fiber.yml in that order.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E141").
		WithDetail("No fiber.json or fiber.yaml found in " + dir).
		WithSuggestion("Run 'fiber init' or create fiber.yaml manually")
}

// LoadFile reads configuration from path. The extension picks the format.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").WithDetail(path + " does not exist")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file's syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Scheduler.FrameBudget == "" {
		c.Scheduler.FrameBudget = d.Scheduler.FrameBudget
	}
	if c.Scheduler.MinBudget == "" {
		c.Scheduler.MinBudget = d.Scheduler.MinBudget
	}
	if c.Scheduler.IdleInterval == "" {
		c.Scheduler.IdleInterval = d.Scheduler.IdleInterval
	}
	if c.Scheduler.MaxQueued == 0 {
		c.Scheduler.MaxQueued = d.Scheduler.MaxQueued
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = d.Server.WSPath
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = d.Server.MetricsPath
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.PingInterval == "" {
		c.Server.PingInterval = d.Server.PingInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value string
	}{
		{"scheduler.frameBudget", c.Scheduler.FrameBudget},
		{"scheduler.minBudget", c.Scheduler.MinBudget},
		{"scheduler.idleInterval", c.Scheduler.IdleInterval},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.pingInterval", c.Server.PingInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil || v < 0 {
			return errors.New("E122").WithDetailf("%s: %q is not a duration", d.name, d.value)
		}
	}
	if c.Scheduler.MaxQueued < 0 {
		return errors.New("E122").WithDetail("scheduler.maxQueued must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").WithDetail("Port must be between 0 and 65535")
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; c.Log.Level != "" && !ok {
		return errors.New("E122").WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if f := c.Log.Format; f != "" && f != "text" && f != "json" {
		return errors.New("E122").WithDetailf("log.format %q is not text or json", f)
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level. Unknown levels map to info.
func (c *Config) SlogLevel() slog.Level {
	if l, ok := levels[strings.ToLower(c.Log.Level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// duration parses s, returning 0 for empty or invalid values so the
// consumer's default applies.
func duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// FrameBudget returns the parsed scheduler frame budget.
func (c *Config) FrameBudget() time.Duration { return duration(c.Scheduler.FrameBudget) }

// MinBudget returns the parsed minimum tick budget.
func (c *Config) MinBudget() time.Duration { return duration(c.Scheduler.MinBudget) }

// IdleInterval returns the parsed pause between idle slices.
func (c *Config) IdleInterval() time.Duration { return duration(c.Scheduler.IdleInterval) }

// ServerConfig converts the file's settings into a server.Config.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Host:         c.Server.Host,
		Port:         c.Server.Port,
		WSPath:       c.Server.WSPath,
		MetricsPath:  c.Server.MetricsPath,
		FrameBudget:  c.FrameBudget(),
		IdleInterval: c.IdleInterval(),
		MinBudget:    c.MinBudget(),
		MaxQueued:    c.Scheduler.MaxQueued,
		WriteTimeout: duration(c.Server.WriteTimeout),
		PingInterval: duration(c.Server.PingInterval),
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range fileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a fiber config file, or E141.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No fiber config found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
