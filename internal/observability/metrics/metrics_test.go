package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("home_id", "H001"),
		attribute.String("level", "HIGH"),
		attribute.String("source", "mqtt"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "home_id" {
			t.Fatalf("expected home_id to be dropped")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordReadingIngested(context.Background(), "mqtt")
	m.RecordAlertRaised(context.Background(), "HIGH")
	m.RecordEventBroadcast(context.Background(), "alert")
	m.RecordRateLimitDenied(context.Background(), "/api/stream", "exceeded")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "gridpulse"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	m.RecordReadingIngested(context.Background(), "http")
	m.RecordAlertRaised(context.Background(), "LOW")
}
