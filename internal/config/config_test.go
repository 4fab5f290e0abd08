package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "./data/tracks/livetrack.db", cfg.Database.Path)
	assert.Equal(t, time.Minute, cfg.Live.Window)
	assert.Equal(t, 10*time.Second, cfg.Upstream.PollInterval)
	assert.Empty(t, cfg.Upstream.URL)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: ":9000"
live:
  window: 2m
upstream:
  url: http://upstream.example
  event_id: spring-cup
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATELIMIT_REQUESTS", "5")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Live.Window)
	assert.Equal(t, "http://upstream.example", cfg.Upstream.URL)
	assert.Equal(t, "spring-cup", cfg.Upstream.EventID)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Upstream.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
}

func TestEnvTransform(t *testing.T) {
	tests := map[string]string{
		"PORT":            "server.port",
		"DB_PATH":         "database.path",
		"UPSTREAM_EVENT":  "upstream.event_id",
		"SERVER_MODE":     "server.mode",
		"LIVE_WINDOW":     "live.window",
		"HOME":            "",
		"PATH":            "",
		"UNRELATED_THING": "",
	}

	for in, want := range tests {
		assert.Equal(t, want, envTransform(in), in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bare port", mutate: func(c *Config) { c.Server.Port = "8081" }},
		{name: "missing db", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "zero live window", mutate: func(c *Config) { c.Live.Window = 0 }, wantErr: "live.window"},
		{name: "upstream without event", mutate: func(c *Config) { c.Upstream.URL = "http://x" }, wantErr: "upstream.event_id"},
		{
			name: "upstream polling too fast",
			mutate: func(c *Config) {
				c.Upstream.URL = "http://x"
				c.Upstream.EventID = "e"
				c.Upstream.PollInterval = time.Millisecond
			},
			wantErr: "poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	c := Default()
	c.Server.Port = "8081"
	require.NoError(t, c.Validate())
	assert.Equal(t, ":8081", c.Server.Port)
}
