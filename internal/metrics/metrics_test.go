// Package metrics_test tests the validation metrics collector.
package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/ssml-service/internal/config"
	"github.com/book-expert/ssml-service/internal/metrics"
	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:       true,
		Namespace:     "test",
		Subsystem:     "ssml",
		ListenAddress: "",
	}
}

func TestCollector_RecordValidation(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(testConfig(), registry)
	validator := ssml.Default()

	inputs := []string{
		"<speak>Hello World</speak>",
		"<voice><prosody>y</prosody></voice>",
		"<speak><emphasis>unterminated",
	}

	for _, input := range inputs {
		collector.RecordValidation(validator.Variant(), validator.Validate(input), time.Millisecond)
	}

	count, err := testutil.GatherAndCount(registry, "test_ssml_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(registry, "test_ssml_validation_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP test_ssml_tags_seen_total Distinct tags seen per validated document, by support
# TYPE test_ssml_tags_seen_total counter
test_ssml_tags_seen_total{support="supported"} 2
test_ssml_tags_seen_total{support="unsupported"} 1
`
	err = testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_ssml_tags_seen_total")
	require.NoError(t, err)
}

func TestCollector_Disabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Enabled = false

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(cfg, registry)

	collector.RecordValidation(ssml.VariantCanonical, ssml.Default().Validate("<speak/>"), time.Millisecond)
	collector.RecordFallback()

	count, err := testutil.GatherAndCount(registry, "test_ssml_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	var nilCollector *metrics.Collector
	nilCollector.RecordFallback()
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	collector := metrics.NewCollector(testConfig(), nil)
	collector.RecordFallback()

	server := httptest.NewServer(collector.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_ssml_speech_fallbacks_total 1")
}
