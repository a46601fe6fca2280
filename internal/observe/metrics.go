// Package observe provides application-wide observability primitives for
// scrivener: OpenTelemetry metrics and the provider setup that bridges them
// to a Prometheus /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all scrivener metrics.
const meterName = "github.com/scrivenerhq/scrivener"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// DetectionDuration tracks the wall time of one duplicate-detection
	// pass over a transcript's label set.
	DetectionDuration metric.Float64Histogram

	// AutoMerges counts auto-merge proposals produced by detection passes.
	AutoMerges metric.Int64Counter

	// Suggestions counts merge suggestions requiring confirmation.
	Suggestions metric.Int64Counter

	// MappingsResolved counts utterances rewritten to a resolved identity
	// during transcript rewrites.
	MappingsResolved metric.Int64Counter

	// MappingsPersisted counts mappings committed to the durable store.
	// Use with attribute.String("provenance", ...).
	MappingsPersisted metric.Int64Counter

	// StoreRecoveries counts store loads that recovered from a corrupt or
	// unreadable persistence file by starting empty.
	StoreRecoveries metric.Int64Counter

	// LiveSlotsResolved counts diarized slots resolved by the live-matching
	// pipeline. Use with attribute.String("source", ...).
	LiveSlotsResolved metric.Int64Counter
}

// detectionBuckets defines histogram bucket boundaries (in seconds) for
// detection passes, which are in-memory and fast.
var detectionBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DetectionDuration, err = m.Float64Histogram("scrivener.detection.duration",
		metric.WithDescription("Wall time of one duplicate-detection pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(detectionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AutoMerges, err = m.Int64Counter("scrivener.detector.auto_merges",
		metric.WithDescription("Auto-merge proposals produced by detection passes."),
	); err != nil {
		return nil, err
	}
	if met.Suggestions, err = m.Int64Counter("scrivener.detector.suggestions",
		metric.WithDescription("Merge suggestions requiring confirmation."),
	); err != nil {
		return nil, err
	}
	if met.MappingsResolved, err = m.Int64Counter("scrivener.mappings.resolved",
		metric.WithDescription("Utterances rewritten to a resolved identity."),
	); err != nil {
		return nil, err
	}
	if met.MappingsPersisted, err = m.Int64Counter("scrivener.mappings.persisted",
		metric.WithDescription("Mappings committed to the durable store by provenance."),
	); err != nil {
		return nil, err
	}
	if met.StoreRecoveries, err = m.Int64Counter("scrivener.store.recoveries",
		metric.WithDescription("Store loads recovered from a corrupt persistence file."),
	); err != nil {
		return nil, err
	}
	if met.LiveSlotsResolved, err = m.Int64Counter("scrivener.live.slots_resolved",
		metric.WithDescription("Diarized slots resolved by the live-matching pipeline, by source."),
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
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDetection records one detection pass: its duration and the number of
// proposals of each kind it produced.
func (m *Metrics) RecordDetection(ctx context.Context, seconds float64, autoMerges, suggestions int) {
	m.DetectionDuration.Record(ctx, seconds)
	m.AutoMerges.Add(ctx, int64(autoMerges))
	m.Suggestions.Add(ctx, int64(suggestions))
}

// RecordResolved records utterances rewritten during a transcript rewrite.
func (m *Metrics) RecordResolved(ctx context.Context, n int) {
	m.MappingsResolved.Add(ctx, int64(n))
}

// RecordPersisted records mappings committed to the store with the given
// provenance.
func (m *Metrics) RecordPersisted(ctx context.Context, provenance string, n int) {
	m.MappingsPersisted.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("provenance", provenance)),
	)
}

// RecordRecovery records a store load that recovered by starting empty.
func (m *Metrics) RecordRecovery(ctx context.Context) {
	m.StoreRecoveries.Add(ctx, 1)
}

// RecordLiveSlot records one slot resolved by the live-matching pipeline.
func (m *Metrics) RecordLiveSlot(ctx context.Context, source string) {
	m.LiveSlotsResolved.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}
