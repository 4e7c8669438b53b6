package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "showlist.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return configPath
}

const validConfigYAML = `
input:
  events: testdata/events.txt
  venues: https://example.com/venues.txt
parse:
  year: 2025
  timezone: UTC
  city_suffixes: ["S.F.", "Reno"]
retry:
  max_attempts: 5
output:
  dir: ./build
  chunk_size: 100
  pretty: true
logging:
  level: debug
  format: json
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, Default().Retry, cfg.Retry)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 500, cfg.Output.ChunkSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "America/Los_Angeles", cfg.Parse.Timezone)
	assert.Empty(t, cfg.File)

	require.ErrorIs(t, cfg.Validate(), ErrNoSources)
	require.NoError(t, cfg.ValidateSettings())
}

func TestLoad_File(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "testdata/events.txt", cfg.Input.Events)
	assert.Equal(t, 2025, cfg.Parse.Year)
	assert.Equal(t, []string{"S.F.", "Reno"}, cfg.Parse.CitySuffixes)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.InitialDelayMs, "unset keys keep defaults")
	assert.Equal(t, 100, cfg.Output.ChunkSize)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	t.Setenv("SHOWLIST_OUTPUT__CHUNK_SIZE", "25")
	t.Setenv("SHOWLIST_LOGGING__LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("out", "out", "")
	flags.Int("chunk-size", 500, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--log-level=error", "--unrelated=x"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Output.ChunkSize, "env beats file; unset flag does not override")
	assert.Equal(t, "error", cfg.Logging.Level, "set flag beats env")
	assert.Equal(t, "./build", cfg.Output.Dir, "unset flag keeps file value")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "year", mutate: func(c *Config) { c.Parse.Year = 25 }, wantErr: ErrInvalidYear},
		{name: "timezone", mutate: func(c *Config) { c.Parse.Timezone = "Mars/Olympus" }, wantErr: ErrInvalidTimezone},
		{name: "max attempts", mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantErr: ErrInvalidMaxAttempts},
		{name: "initial delay", mutate: func(c *Config) { c.Retry.InitialDelayMs = -1 }, wantErr: ErrInvalidInitialDelay},
		{name: "max delay", mutate: func(c *Config) { c.Retry.MaxDelayMs = -1 }, wantErr: ErrInvalidMaxDelay},
		{name: "multiplier", mutate: func(c *Config) { c.Retry.BackoffMultiplier = 0.5 }, wantErr: ErrInvalidBackoffMultiplier},
		{name: "timeout", mutate: func(c *Config) { c.Retry.TimeoutSec = 0 }, wantErr: ErrInvalidTimeout},
		{name: "output dir", mutate: func(c *Config) { c.Output.Dir = "" }, wantErr: ErrMissingOutputDir},
		{name: "chunk size", mutate: func(c *Config) { c.Output.ChunkSize = 0 }, wantErr: ErrInvalidChunkSize},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: ErrInvalidLogLevel},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: ErrInvalidLogFormat},
		{name: "cron", mutate: func(c *Config) { c.Schedule.Cron = "every day" }, wantErr: ErrInvalidCron},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input.Events = "events.txt"
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestConfig_SaveConfig(t *testing.T) {
	cfg := Default()
	cfg.Input.Events = "events.txt"
	cfg.Parse.Year = 2025

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := Load(path, nil)
	require.NoError(t, err)

	loaded.File = ""
	assert.Equal(t, cfg, loaded)
}

func TestConfig_Location(t *testing.T) {
	cfg := Default()
	cfg.Parse.Timezone = ""

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Parse.Timezone = "America/Los_Angeles"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{InitialDelayMs: 100, MaxDelayMs: 1000, BackoffMultiplier: 2.0, TimeoutSec: 5, MaxBodyKb: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 0},
		{attempt: 1, want: 0},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 3, want: 400 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
		{attempt: 5, want: 1000 * time.Millisecond},
		{attempt: 10, want: 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rp.GetRetryDelay(tt.attempt), "attempt %d", tt.attempt)
	}

	assert.Equal(t, 5*time.Second, rp.GetTimeout())

	uncapped := RetryPolicy{InitialDelayMs: 100, BackoffMultiplier: 2.0}
	assert.Equal(t, 1600*time.Millisecond, uncapped.GetRetryDelay(5), "zero max delay means no cap")
	assert.Equal(t, int64(2048), rp.MaxBodyBytes())
}
