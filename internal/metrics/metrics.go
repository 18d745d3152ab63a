// Package metrics exposes Prometheus metrics for SSML validation.
package metrics

import (
	"net/http"
	"time"

	"github.com/book-expert/ssml-service/internal/config"
	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values.
const (
	outcomeValid   = "valid"
	outcomeInvalid = "invalid"

	supportSupported   = "supported"
	supportUnsupported = "unsupported"

	defaultNamespace = "bookexpert"
	defaultSubsystem = "ssml"
)

// Collector records validation metrics. A nil *Collector, or one created
// from a disabled configuration, records nothing.
//
// Metrics:
//   - <ns>_<sub>_validations_total{variant,outcome}
//   - <ns>_<sub>_validation_errors_total{kind}
//   - <ns>_<sub>_validation_duration_seconds{variant}
//   - <ns>_<sub>_tags_seen_total{support}
//   - <ns>_<sub>_speech_fallbacks_total
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	tagsSeenTotal      *prometheus.CounterVec
	fallbacksTotal     prometheus.Counter
}

// NewCollector creates the metrics and registers them with registry. A nil
// registry gets a fresh one.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}

	if cfg.Subsystem == "" {
		cfg.Subsystem = defaultSubsystem
	}

	c := &Collector{
		enabled:  cfg.Enabled,
		registry: registry,
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of SSML validations by rule variant and outcome",
			},
			[]string{"variant", "outcome"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_errors_total",
				Help:      "Total number of failed validations by error kind",
			},
			[]string{"kind"},
		),
		validationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Duration of SSML validation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"variant"},
		),
		tagsSeenTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tags_seen_total",
				Help:      "Distinct tags seen per validated document, by support",
			},
			[]string{"support"},
		),
		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "speech_fallbacks_total",
				Help:      "Times the speech engine rejected markup and plain text was spoken",
			},
		),
	}

	registry.MustRegister(
		c.validationsTotal,
		c.errorsTotal,
		c.validationDuration,
		c.tagsSeenTotal,
		c.fallbacksTotal,
	)

	return c
}

// RecordValidation records one validation result.
func (c *Collector) RecordValidation(variant ssml.Variant, result ssml.Result, duration time.Duration) {
	if c == nil || !c.enabled {
		return
	}

	outcome := outcomeValid
	if !result.Valid {
		outcome = outcomeInvalid

		c.errorsTotal.WithLabelValues(string(result.ErrorKind)).Inc()
	}

	c.validationsTotal.WithLabelValues(string(variant), outcome).Inc()
	c.validationDuration.WithLabelValues(string(variant)).Observe(duration.Seconds())
	c.tagsSeenTotal.WithLabelValues(supportSupported).Add(float64(result.SupportedTags.Len()))
	c.tagsSeenTotal.WithLabelValues(supportUnsupported).Add(float64(result.UnsupportedTags.Len()))
}

// RecordFallback records a plain-text speech fallback.
func (c *Collector) RecordFallback() {
	if c == nil || !c.enabled {
		return
	}

	c.fallbacksTotal.Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
