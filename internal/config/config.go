// Package config provides layered configuration for showlist runs.
//
// Values are resolved from, in increasing precedence: built-in defaults, a
// YAML file, SHOWLIST_* environment variables and explicitly set flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // time zones resolve on hosts without zoneinfo

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: SHOWLIST_OUTPUT__CHUNK_SIZE sets output.chunk_size.
const EnvPrefix = "SHOWLIST_"

// DefaultFile is the config file picked up from the working directory when
// no path is given.
const DefaultFile = "showlist.yaml"

// Configuration validation errors.
var (
	ErrNoSources                = errors.New("input.events or input.venues is required")
	ErrInvalidYear              = errors.New("parse.year must be 0 or between 1900 and 9999")
	ErrInvalidTimezone          = errors.New("parse.timezone is not a known IANA time zone")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidMaxDelay          = errors.New("retry.max_delay_ms must be non-negative (0 disables the cap)")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrMissingOutputDir         = errors.New("output.dir is required")
	ErrInvalidChunkSize         = errors.New("output.chunk_size must be at least 1")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
	ErrInvalidCron              = errors.New("schedule.cron is not a valid cron expression")
)

// Config represents the complete showlist configuration.
type Config struct {
	Input    InputConfig    `koanf:"input" yaml:"input"`
	Parse    ParseConfig    `koanf:"parse" yaml:"parse"`
	Retry    RetryPolicy    `koanf:"retry" yaml:"retry"`
	Output   OutputConfig   `koanf:"output" yaml:"output"`
	Logging  LoggingConfig  `koanf:"logging" yaml:"logging"`
	Schedule ScheduleConfig `koanf:"schedule" yaml:"schedule"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-" yaml:"-"`
}

// InputConfig names the run inputs. Each is a file path or an http(s) URL.
type InputConfig struct {
	Events  string `koanf:"events" yaml:"events"`
	Venues  string `koanf:"venues" yaml:"venues"`
	Aliases string `koanf:"aliases" yaml:"aliases,omitempty"`
}

// ParseConfig controls date resolution and venue-name extraction.
type ParseConfig struct {
	Year         int      `koanf:"year" yaml:"year"`
	Timezone     string   `koanf:"timezone" yaml:"timezone"`
	CitySuffixes []string `koanf:"city_suffixes" yaml:"city_suffixes,omitempty"`
}

// RetryPolicy defines retry behavior for URL inputs.
type RetryPolicy struct {
	MaxAttempts       int     `koanf:"max_attempts" yaml:"max_attempts"`
	InitialDelayMs    int     `koanf:"initial_delay_ms" yaml:"initial_delay_ms"`
	MaxDelayMs        int     `koanf:"max_delay_ms" yaml:"max_delay_ms"`
	BackoffMultiplier float64 `koanf:"backoff_multiplier" yaml:"backoff_multiplier"`
	TimeoutSec        int     `koanf:"timeout_sec" yaml:"timeout_sec"`
	MaxBodyKb         int     `koanf:"max_body_kb" yaml:"max_body_kb"`
}

// OutputConfig defines where and how results are written.
type OutputConfig struct {
	Dir         string `koanf:"dir" yaml:"dir"`
	ChunkSize   int    `koanf:"chunk_size" yaml:"chunk_size"`
	Pretty      bool   `koanf:"pretty" yaml:"pretty"`
	SQLite      string `koanf:"sqlite" yaml:"sqlite,omitempty"`
	Report      string `koanf:"report" yaml:"report,omitempty"`
	MetricsFile string `koanf:"metrics_file" yaml:"metrics_file,omitempty"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// ScheduleConfig drives the schedule command.
type ScheduleConfig struct {
	Cron       string `koanf:"cron" yaml:"cron"`
	RunOnStart bool   `koanf:"run_on_start" yaml:"run_on_start"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Parse: ParseConfig{
			Timezone: "America/Los_Angeles",
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
			MaxBodyKb:         8192,
		},
		Output: OutputConfig{
			Dir:       "out",
			ChunkSize: 500,
			Pretty:    false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Schedule: ScheduleConfig{
			Cron: "0 6 * * *",
		},
	}
}

func defaultValues() map[string]any {
	d := Default()

	return map[string]any{
		"parse.year":               d.Parse.Year,
		"parse.timezone":           d.Parse.Timezone,
		"retry.max_attempts":       d.Retry.MaxAttempts,
		"retry.initial_delay_ms":   d.Retry.InitialDelayMs,
		"retry.max_delay_ms":       d.Retry.MaxDelayMs,
		"retry.backoff_multiplier": d.Retry.BackoffMultiplier,
		"retry.timeout_sec":        d.Retry.TimeoutSec,
		"retry.max_body_kb":        d.Retry.MaxBodyKb,
		"output.dir":               d.Output.Dir,
		"output.chunk_size":        d.Output.ChunkSize,
		"output.pretty":            d.Output.Pretty,
		"logging.level":            d.Logging.Level,
		"logging.format":           d.Logging.Format,
		"schedule.cron":            d.Schedule.Cron,
		"schedule.run_on_start":    d.Schedule.RunOnStart,
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"events":       "input.events",
	"venues":       "input.venues",
	"aliases":      "input.aliases",
	"year":         "parse.year",
	"timezone":     "parse.timezone",
	"city":         "parse.city_suffixes",
	"out":          "output.dir",
	"chunk-size":   "output.chunk_size",
	"pretty":       "output.pretty",
	"sqlite":       "output.sqlite",
	"report":       "output.report",
	"metrics-file": "output.metrics_file",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"cron":         "schedule.cron",
	"run-on-start": "schedule.run_on_start",
}

// Load resolves the configuration. path may be empty, in which case
// DefaultFile is used when it exists. flags may be nil; only flags that were
// explicitly set override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(path)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", used, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.File = used

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	return strings.ReplaceAll(s, "__", ".")
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}

	return ""
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o644); err != nil { //nolint:gosec // config files are not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Input.Events == "" && c.Input.Venues == "" {
		return ErrNoSources
	}

	return c.ValidateSettings()
}

// ValidateSettings validates everything except the inputs, for commands that
// take their inputs as arguments.
func (c *Config) ValidateSettings() error {
	if c.Parse.Year != 0 && (c.Parse.Year < 1900 || c.Parse.Year > 9999) {
		return ErrInvalidYear
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.MaxDelayMs < 0 {
		return ErrInvalidMaxDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if c.Output.ChunkSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, c.Output.ChunkSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		return ErrInvalidLogFormat
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCron, err)
		}
	}

	return nil
}

// Location returns the time zone event dates are resolved in.
func (c *Config) Location() (*time.Location, error) {
	if c.Parse.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(c.Parse.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Parse.Timezone)
	}

	return loc, nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
// A MaxDelayMs of 0 leaves the delay uncapped.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if rp.MaxDelayMs > 0 && delayMs > float64(rp.MaxDelayMs) {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// MaxBodyBytes returns the response size limit for URL inputs.
func (rp *RetryPolicy) MaxBodyBytes() int64 {
	return int64(rp.MaxBodyKb) * 1024
}
