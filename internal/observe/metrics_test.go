package observe_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/yamadori/gijiroku/internal/observe"
)

func TestNewMetrics_InstrumentsRecord(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	m.StageDuration.Record(ctx, 12.5, metric.WithAttributes(attribute.String("stage", "transcription")))
	m.SegmentsMerged.Add(ctx, 42)
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("provider", "pyannote"), attribute.String("kind", "diarization")))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(rm.ScopeMetrics) != 1 {
		t.Fatalf("ScopeMetrics = %d, want 1", len(rm.ScopeMetrics))
	}

	names := map[string]bool{}
	for _, inst := range rm.ScopeMetrics[0].Metrics {
		names[inst.Name] = true
	}
	for _, want := range []string{
		"gijiroku.pipeline.stage.duration",
		"gijiroku.align.segments_merged",
		"gijiroku.provider.errors",
	} {
		if !names[want] {
			t.Errorf("collected metrics missing %q (got %v)", want, names)
		}
	}
}

func TestDefaultMetrics_SameInstance(t *testing.T) {
	t.Parallel()

	if observe.DefaultMetrics() != observe.DefaultMetrics() {
		t.Error("DefaultMetrics() returned different instances")
	}
}
