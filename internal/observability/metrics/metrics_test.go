package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("tier_type", "discount"),
		attribute.String("vendor_id", "456"),
		attribute.String("kind", "interest"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("tier_type"), attrs[0].Key)
	assert.Equal(t, attribute.Key("kind"), attrs[1].Key)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCalculation(context.Background(), "discount")
		m.RecordTierValidation(context.Background(), "interest", false)
		m.RecordRepayment(context.Background(), "neutral")
		m.RecordVersionConflict(context.Background())
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordCalculation(context.Background(), "interest")
}
