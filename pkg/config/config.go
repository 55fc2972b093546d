// Package config loads and watches the promptguard configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AuthTypeBearer is the only supported auth scheme. An empty auth type
// disables authentication.
const AuthTypeBearer = "http_bearer"

// AppConfig holds process-wide application settings.
type AppConfig struct {
	Name              string `yaml:"name"`
	LogLevel          string `yaml:"log_level"`
	LogJSON           bool   `yaml:"log_json"`
	ScanFailFast      bool   `yaml:"scan_fail_fast"`
	ScanPromptTimeout int    `yaml:"scan_prompt_timeout"`
	ScanOutputTimeout int    `yaml:"scan_output_timeout"`
}

// AuthConfig configures boundary authentication.
type AuthConfig struct {
	Type  string `yaml:"type"`
	Token string `yaml:"token"`
}

// RateLimitConfig configures the per-route token bucket limiter.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
}

// RuleConfig declares one custom detection rule.
type RuleConfig struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

// ScannerConfig configures one side (prompt or output) of the pipeline.
// An empty rule list means the built-in default rules.
type ScannerConfig struct {
	Rules       []RuleConfig `yaml:"rules"`
	MaxFindings int          `yaml:"max_findings"`
}

// TelemetryConfig configures trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	Environment  string `yaml:"environment"`
}

// Config is the root configuration document.
type Config struct {
	Listen        string          `yaml:"listen"`
	App           AppConfig       `yaml:"app"`
	Auth          AuthConfig      `yaml:"auth"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	InputScanner  ScannerConfig   `yaml:"input_scanner"`
	OutputScanner ScannerConfig   `yaml:"output_scanner"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Listen: ":8000",
		App: AppConfig{
			Name:              "promptguard",
			LogLevel:          "info",
			LogJSON:           true,
			ScanPromptTimeout: 30,
			ScanOutputTimeout: 30,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 25,
			Burst:             50,
		},
	}
}

// Load reads and validates a configuration file, applying defaults for
// omitted fields.
func Load(path string) (Config, error) {
	// #nosec G304 -- path is configured at startup
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that the YAML schema cannot
// express.
func (c Config) Validate() error {
	if c.Auth.Type != "" && c.Auth.Type != AuthTypeBearer {
		return fmt.Errorf("config: unsupported auth type %q", c.Auth.Type)
	}
	if c.Auth.Type == AuthTypeBearer && c.Auth.Token == "" {
		return fmt.Errorf("config: auth token is required for %s", AuthTypeBearer)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: rate limit requires a positive requests_per_second")
	}
	if c.App.ScanPromptTimeout < 0 || c.App.ScanOutputTimeout < 0 {
		return fmt.Errorf("config: scan timeouts must not be negative")
	}
	return nil
}

// PromptTimeout returns the prompt scan deadline as a duration. Zero
// means no deadline.
func (c Config) PromptTimeout() time.Duration {
	return time.Duration(c.App.ScanPromptTimeout) * time.Second
}

// OutputTimeout returns the output scan deadline as a duration. Zero
// means no deadline.
func (c Config) OutputTimeout() time.Duration {
	return time.Duration(c.App.ScanOutputTimeout) * time.Second
}
