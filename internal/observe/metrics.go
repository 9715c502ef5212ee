// Package observe provides observability primitives for gijiroku:
// OpenTelemetry metrics and the Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from a /metrics endpoint when the MCP server runs long enough to
// be worth scraping. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all gijiroku metrics.
const meterName = "github.com/yamadori/gijiroku"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// StageDuration tracks per-stage pipeline latency. Use with attribute:
	//   attribute.String("stage", ...)
	StageDuration metric.Float64Histogram

	// SegmentsMerged counts merged speaker turns produced by alignment runs.
	SegmentsMerged metric.Int64Counter

	// ProviderRequests counts collaborator invocations. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts collaborator errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// AlignmentAnomalies counts diarization contract violations tolerated by
	// the aligner.
	AlignmentAnomalies metric.Int64Counter
}

// stageBuckets defines histogram bucket boundaries (in seconds) sized for
// batch pipeline stages, which run from sub-second (alignment) to many
// minutes (transcription of a long meeting).
var stageBuckets = []float64{
	0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("gijiroku.pipeline.stage.duration",
		metric.WithDescription("Wall-clock duration of each pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SegmentsMerged, err = m.Int64Counter("gijiroku.align.segments_merged",
		metric.WithDescription("Total merged speaker turns produced by alignment."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("gijiroku.provider.requests",
		metric.WithDescription("Total collaborator invocations by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("gijiroku.provider.errors",
		metric.WithDescription("Total collaborator errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.AlignmentAnomalies, err = m.Int64Counter("gijiroku.align.anomalies",
		metric.WithDescription("Total diarization contract violations tolerated during alignment."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic(err)
		}
	})
	return defaultMetrics
}
