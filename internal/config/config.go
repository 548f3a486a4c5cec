// Package config loads server settings from defaults, an optional YAML file,
// DEVOPS_TOOLS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "DEVOPS_TOOLS"

// Defaults
const (
	DefaultAddr            = ":8000"
	DefaultLogLevel        = "info"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultRateLimit       = 0
	DefaultShutdownTimeout = 10 * time.Second
	DefaultEnvironment     = "development"
	DefaultSampleRatio     = 1.0
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address for the HTTP server
	Addr string `mapstructure:"addr"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	// MaxBodyBytes caps request body size
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`

	// RateLimit is requests per minute per client IP; 0 disables limiting
	RateLimit int `mapstructure:"rate_limit"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MCPEnabled mounts the MCP streamable HTTP endpoint at /mcp
	MCPEnabled bool `mapstructure:"mcp_enabled"`

	// MetricsEnabled mounts the Prometheus endpoint at /metrics
	MetricsEnabled bool `mapstructure:"metrics_enabled"`

	// Environment labels exported traces
	Environment string `mapstructure:"environment"`

	// TracingEnabled exports spans; setting TracingEndpoint implies it
	TracingEnabled bool `mapstructure:"tracing_enabled"`

	// TracingEndpoint is an OTLP/HTTP collector; empty writes spans to stdout
	TracingEndpoint string `mapstructure:"tracing_endpoint"`

	// TracingSampleRatio is the fraction of new traces recorded
	TracingSampleRatio float64 `mapstructure:"tracing_sample_ratio"`
}

// TracingActive reports whether spans should be exported.
func (c *Config) TracingActive() bool {
	return c.TracingEnabled || c.TracingEndpoint != ""
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":             "addr",
	"log-level":        "log_level",
	"max-body-bytes":   "max_body_bytes",
	"rate-limit":       "rate_limit",
	"shutdown-timeout": "shutdown_timeout",
	"mcp":              "mcp_enabled",
	"metrics":          "metrics_enabled",
	"environment":      "environment",
	"tracing":          "tracing_enabled",
	"tracing-endpoint": "tracing_endpoint",
	"tracing-sample":   "tracing_sample_ratio",
}

// otelEnv lists OpenTelemetry variable names accepted after our own.
var otelEnv = map[string]string{
	"environment":      "OTEL_ENVIRONMENT",
	"tracing_enabled":  "OTEL_ENABLED",
	"tracing_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for key, name := range otelEnv {
		// BindEnv only errors without a key.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), name)
	}
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("rate_limit", DefaultRateLimit)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("mcp_enabled", false)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("environment", DefaultEnvironment)
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("tracing_endpoint", "")
	v.SetDefault("tracing_sample_ratio", DefaultSampleRatio)
}

// RegisterFlags adds the server flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", DefaultAddr, "listen address")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.Int64("max-body-bytes", DefaultMaxBodyBytes, "maximum request body size in bytes")
	fs.Int("rate-limit", DefaultRateLimit, "requests per minute per client IP (0 disables)")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
	fs.Bool("mcp", false, "serve MCP tools at /mcp")
	fs.Bool("metrics", true, "serve Prometheus metrics at /metrics")
	fs.String("environment", DefaultEnvironment, "deployment environment reported on traces")
	fs.Bool("tracing", false, "export OpenTelemetry spans (stdout unless --tracing-endpoint is set)")
	fs.String("tracing-endpoint", "", "OTLP/HTTP collector, host:port or URL")
	fs.Float64("tracing-sample", DefaultSampleRatio, "fraction of new traces to record (0 to 1)")
}

// BindFlags binds registered flags so that explicitly set flags win over env and file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads the optional config file and decodes the merged settings.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit cannot be negative, got %d", c.RateLimit))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing_sample_ratio must be between 0 and 1, got %g", c.TracingSampleRatio))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel returns the configured level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
