// Package config provides the configuration structure for the ssml-service.
package config

import (
	"fmt"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/ssml-service/internal/ruleset"
	"github.com/book-expert/ssml-service/internal/ssml"
)

const defaultSpeechTimeout = 30 * time.Second

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL             string `toml:"url"`
	ValidateSubject string `toml:"validate_subject"`
	DocumentsBucket string `toml:"documents_bucket"`
	ReportsBucket   string `toml:"reports_bucket"`
	AudioBucket     string `toml:"audio_bucket"`
}

// ValidatorConfig selects the rule table. RulesFile, when set, takes
// precedence over the inline fields and is watched for changes.
type ValidatorConfig struct {
	Variant    string   `toml:"variant"`
	Root       string   `toml:"root"`
	Supported  []string `toml:"supported"`
	Deprecated []string `toml:"deprecated"`
	RulesFile  string   `toml:"rules_file"`
}

// SpeechConfig holds the settings of the external speech engine.
type SpeechConfig struct {
	Enabled        bool    `toml:"enabled"`
	ServiceURL     string  `toml:"service_url"`
	Language       string  `toml:"language"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// MetricsConfig holds the Prometheus settings.
type MetricsConfig struct {
	Enabled       bool   `toml:"enabled"`
	Namespace     string `toml:"namespace"`
	Subsystem     string `toml:"subsystem"`
	ListenAddress string `toml:"listen_address"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS      NATSConfig      `toml:"nats"`
	Validator ValidatorConfig `toml:"validator"`
	Speech    SpeechConfig    `toml:"speech"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for the ssml-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}

// Definition returns the inline rule definition.
func (c ValidatorConfig) Definition() ruleset.Definition {
	return ruleset.Definition{
		Variant:    c.Variant,
		Root:       c.Root,
		Supported:  c.Supported,
		Deprecated: c.Deprecated,
	}
}

// NewValidator builds the validator described by the configuration, reading
// RulesFile when it is set.
func (c ValidatorConfig) NewValidator() (*ssml.Validator, error) {
	if c.RulesFile != "" {
		validator, err := ruleset.LoadFile(c.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load validator rules: %w", err)
		}

		return validator, nil
	}

	validator, err := c.Definition().Validator()
	if err != nil {
		return nil, fmt.Errorf("failed to build validator from configuration: %w", err)
	}

	return validator, nil
}

// Timeout returns the request timeout for the speech engine.
func (c SpeechConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultSpeechTimeout
	}

	return time.Duration(c.TimeoutSeconds) * time.Second
}
