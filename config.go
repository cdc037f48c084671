package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sharpbox/container"
	"sharpbox/engine"
	"sharpbox/logging"
	"sharpbox/session"
	"sharpbox/watch"
)

// Config represents the application configuration
type Config struct {
	Console ConsoleConfig `json:"console" yaml:"console" toml:"console"`
	Engine  EngineConfig  `json:"engine" yaml:"engine" toml:"engine"`
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`
	Watch   WatchConfig   `json:"watch" yaml:"watch" toml:"watch"`
}

// ConsoleConfig contains console configuration
type ConsoleConfig struct {
	PromptSymbol string `json:"prompt_symbol" yaml:"prompt_symbol" toml:"prompt_symbol"`
	Colors       bool   `json:"colors" yaml:"colors" toml:"colors"`
	HistorySize  int    `json:"history_size" yaml:"history_size" toml:"history_size"`
	HistoryFile  string `json:"history_file" yaml:"history_file" toml:"history_file"`
	ShowWelcome  bool   `json:"show_welcome" yaml:"show_welcome" toml:"show_welcome"`
	Verbose      bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// EngineConfig contains the execution limits
type EngineConfig struct {
	MaxLoopIterations  int `json:"max_loop_iterations" yaml:"max_loop_iterations" toml:"max_loop_iterations"`
	MaxExpressionDepth int `json:"max_expression_depth" yaml:"max_expression_depth" toml:"max_expression_depth"`
	OutputYieldMs      int `json:"output_yield_ms" yaml:"output_yield_ms" toml:"output_yield_ms"`
	InputFlushDelayMs  int `json:"input_flush_delay_ms" yaml:"input_flush_delay_ms" toml:"input_flush_delay_ms"`
	EventBuffer        int `json:"event_buffer" yaml:"event_buffer" toml:"event_buffer"`
	// TranscriptFormat is used for transcript paths without a known extension
	TranscriptFormat string `json:"transcript_format" yaml:"transcript_format" toml:"transcript_format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string          `json:"level" yaml:"level" toml:"level"`
	Format   string          `json:"format" yaml:"format" toml:"format"`
	File     string          `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
	Rotation *RotationConfig `json:"rotation,omitempty" yaml:"rotation,omitempty" toml:"rotation,omitempty"`
	Debug    bool            `json:"debug" yaml:"debug" toml:"debug"`
}

// RotationConfig limits the size and age of the log file
type RotationConfig struct {
	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days" toml:"max_age_days"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups" toml:"max_backups"`
	Compress   bool `json:"compress" yaml:"compress" toml:"compress"`
}

// WatchConfig controls re-running a program file when it is saved
type WatchConfig struct {
	AutoRun    bool `json:"auto_run" yaml:"auto_run" toml:"auto_run"`
	DebounceMs int  `json:"debounce_ms" yaml:"debounce_ms" toml:"debounce_ms"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	limits := engine.DefaultLimits()
	return &Config{
		Console: ConsoleConfig{
			PromptSymbol: ">",
			Colors:       true,
			HistorySize:  1000,
			HistoryFile:  "~/.sharpbox/history",
			ShowWelcome:  true,
		},
		Engine: EngineConfig{
			MaxLoopIterations:  limits.MaxLoopIterations,
			MaxExpressionDepth: limits.MaxExpressionDepth,
			OutputYieldMs:      int(limits.OutputYield / time.Millisecond),
			InputFlushDelayMs:  int(limits.InputFlushDelay / time.Millisecond),
			EventBuffer:        session.DefaultEventBuffer,
			TranscriptFormat:   "json",
		},
		Logging: LoggingConfig{
			Level:  "warning",
			Format: "text",
		},
		Watch: WatchConfig{
			DebounceMs: int(watch.DefaultDebounce / time.Millisecond),
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	path = expandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %v", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %v", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %v", err)
		}
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	path = expandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	case ".toml":
		data, err = toml.Marshal(config)
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	return nil
}

// findConfig returns the first existing default config location
func findConfig() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".sharpbox", "config.yaml"))
	}
	candidates = append(candidates, "./config.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Limits converts the engine section into engine limits. Non-positive
// loop and depth limits fall back to the defaults.
func (c *Config) Limits() engine.Limits {
	limits := engine.DefaultLimits()
	if c.Engine.MaxLoopIterations > 0 {
		limits.MaxLoopIterations = c.Engine.MaxLoopIterations
	}
	if c.Engine.MaxExpressionDepth > 0 {
		limits.MaxExpressionDepth = c.Engine.MaxExpressionDepth
	}
	if c.Engine.OutputYieldMs >= 0 {
		limits.OutputYield = time.Duration(c.Engine.OutputYieldMs) * time.Millisecond
	}
	if c.Engine.InputFlushDelayMs >= 0 {
		limits.InputFlushDelay = time.Duration(c.Engine.InputFlushDelayMs) * time.Millisecond
	}
	return limits
}

// ContainerOptions converts the configuration into service options
func (c *Config) ContainerOptions() container.Options {
	logOpts := logging.Options{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   expandHome(c.Logging.File),
	}
	if r := c.Logging.Rotation; r != nil {
		logOpts.MaxSizeMB = r.MaxSizeMB
		logOpts.MaxAgeDays = r.MaxAgeDays
		logOpts.MaxBackups = r.MaxBackups
		logOpts.Compress = r.Compress
	}

	return container.Options{
		Limits:           c.Limits(),
		Logging:          logOpts,
		EventBuffer:      c.Engine.EventBuffer,
		TranscriptFormat: c.Engine.TranscriptFormat,
		Debug:            c.Logging.Debug,
	}
}

// WatchDebounce returns the watch quiet period
func (c *Config) WatchDebounce() time.Duration {
	if c.Watch.DebounceMs < 0 {
		return watch.DefaultDebounce
	}
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

func watchOptions(c *Config) []watch.Option {
	return []watch.Option{watch.WithDebounce(c.WatchDebounce())}
}
