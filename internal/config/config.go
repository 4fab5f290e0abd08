package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Live      LiveConfig      `koanf:"live"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `koanf:"port"`
	Mode string `koanf:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// LiveConfig controls how live tracks are judged
type LiveConfig struct {
	// a competitor with no sample inside this window is shown as idle
	Window time.Duration `koanf:"window"`
	// trailing window used for speed
	SpeedWindow time.Duration `koanf:"speed_window"`
}

// UpstreamConfig configures mirroring another tracking server
type UpstreamConfig struct {
	URL          string        `koanf:"url"`
	EventID      string        `koanf:"event_id"`
	PollInterval time.Duration `koanf:"poll_interval"`
	Timeout      time.Duration `koanf:"timeout"`
}

// RateLimitConfig per-IP request limits
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// envMappings keeps the short variable names the service always accepted
var envMappings = map[string]string{
	"port":                "server.port",
	"gin_mode":            "server.mode",
	"db_path":             "database.path",
	"log_level":           "log.level",
	"log_format":          "log.format",
	"log_caller":          "log.caller",
	"live_window":         "live.window",
	"speed_window":        "live.speed_window",
	"upstream_url":        "upstream.url",
	"upstream_event":      "upstream.event_id",
	"poll_interval":       "upstream.poll_interval",
	"upstream_timeout":    "upstream.timeout",
	"rate_limit_requests": "ratelimit.requests",
	"rate_limit_window":   "ratelimit.window",
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: ":8080",
			Mode: "release",
		},
		Database: DatabaseConfig{
			Path: "./data/tracks/livetrack.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Live: LiveConfig{
			Window:      time.Minute,
			SpeedWindow: 30 * time.Second,
		},
		Upstream: UpstreamConfig{
			PollInterval: 10 * time.Second,
			Timeout:      5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 600,
			Window:   time.Minute,
		},
	}
}

// Load 加载配置: defaults, then the YAML file (if any), then environment
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile loads configuration using path as the YAML file; an empty path skips
// the file layer
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransform maps environment variables onto config keys. Unknown variables
// map to "" and are dropped.
func envTransform(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// SERVER_PORT style keys for every section
	for _, section := range []string{"server", "database", "log", "live", "upstream", "ratelimit"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return ""
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	} else if !strings.Contains(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Live.Window <= 0 {
		errs = append(errs, errors.New("live.window must be positive"))
	}
	if c.Live.SpeedWindow <= 0 {
		errs = append(errs, errors.New("live.speed_window must be positive"))
	}
	if c.Upstream.URL != "" {
		if c.Upstream.EventID == "" {
			errs = append(errs, errors.New("upstream.event_id is required when upstream.url is set"))
		}
		if c.Upstream.PollInterval < time.Second {
			errs = append(errs, errors.New("upstream.poll_interval must be at least 1s"))
		}
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("ratelimit.requests must not be negative"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}

	return errors.Join(errs...)
}
