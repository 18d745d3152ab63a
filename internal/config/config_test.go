// Package config_test tests the configuration loading for the ssml-service.
package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/ssml-service/internal/config"
	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlData = `
[nats]
url = "nats://127.0.0.1:4222"
validate_subject = "ssml.validate"
documents_bucket = "SSML_DOCUMENTS"
reports_bucket = "SSML_REPORTS"
audio_bucket = "AUDIO_FILES"

[validator]
variant = "no-deprecated"
supported = ["speak", "break", "prosody"]

[speech]
enabled = true
service_url = "http://localhost:8000"
language = "ja"
temperature = 0.7
timeout_seconds = 45

[metrics]
enabled = true
namespace = "bookexpert"
subsystem = "ssml"
listen_address = ":9102"

[paths]
base_logs_dir = "/var/log/ssml"
`

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "ssml.validate", cfg.NATS.ValidateSubject)
	assert.Equal(t, "SSML_DOCUMENTS", cfg.NATS.DocumentsBucket)
	assert.Equal(t, "SSML_REPORTS", cfg.NATS.ReportsBucket)
	assert.Equal(t, "AUDIO_FILES", cfg.NATS.AudioBucket)
	assert.Equal(t, "no-deprecated", cfg.Validator.Variant)
	assert.True(t, cfg.Speech.Enabled)
	assert.Equal(t, "ja", cfg.Speech.Language)
	assert.InEpsilon(t, 0.7, cfg.Speech.Temperature, 0.001)
	assert.Equal(t, 45*time.Second, cfg.Speech.Timeout())
	assert.Equal(t, ":9102", cfg.Metrics.ListenAddress)
	assert.Equal(t, "/var/log/ssml", cfg.Paths.BaseLogsDir)
}

func TestValidatorConfig_NewValidator(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	validator, err := cfg.Validator.NewValidator()
	require.NoError(t, err)

	assert.Equal(t, ssml.VariantNoDeprecated, validator.Variant())
	assert.Equal(t, ssml.NewTagSet("speak", "break", "prosody"), validator.Rules().Supported)
	assert.Equal(t, ssml.DefaultDeprecated(), validator.Rules().Deprecated)
}

func TestValidatorConfig_RulesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.toml")
	err := os.WriteFile(path, []byte(`variant = "strict-wrapper"`), 0o600)
	require.NoError(t, err)

	cfg := config.ValidatorConfig{Variant: "canonical", RulesFile: path}

	validator, err := cfg.NewValidator()
	require.NoError(t, err)
	assert.Equal(t, ssml.VariantStrictWrapper, validator.Variant())

	cfg.RulesFile = filepath.Join(t.TempDir(), "missing.toml")
	_, err = cfg.NewValidator()
	require.Error(t, err)
}

func TestSpeechConfig_DefaultTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30*time.Second, config.SpeechConfig{}.Timeout())
}
