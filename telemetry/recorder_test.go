package telemetry

import (
	"context"
	"testing"

	"github.com/aura-studio/mskrouter/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMeterRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rec, err := NewRecorder(provider)
	require.NoError(t, err)

	ctx := context.Background()
	rec.MessageProcessed(ctx, route.Medium)
	rec.MessageProcessed(ctx, route.Medium)
	rec.MessageProcessed(ctx, route.Large)
	rec.RoutingError(ctx, KindParseError)
	rec.BatchSent(ctx, route.Medium, 2)

	data := collect(t, reader)

	processed, ok := data["router.messages.processed"].(metricdata.Sum[int64])
	require.True(t, ok)
	byQueue := map[string]int64{}
	for _, dp := range processed.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("queue_type"))
		byQueue[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"MEDIUM": 2, "LARGE": 1}, byQueue)

	errs, ok := data["router.routing.errors"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	kind, _ := errs.DataPoints[0].Attributes.Value(attribute.Key("error_type"))
	assert.Equal(t, "parse_error", kind.AsString())

	sizes, ok := data["router.batch.size"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, sizes.DataPoints, 1)
	assert.Equal(t, uint64(1), sizes.DataPoints[0].Count)
	assert.Equal(t, int64(2), sizes.DataPoints[0].Sum)
}

func TestNilProviderUsesGlobal(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	rec, err := NewRecorder(nil)
	require.NoError(t, err)
	rec.RoutingError(context.Background(), KindHandlerError)

	errs, ok := collect(t, reader)["router.routing.errors"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)
}

func TestNoopRecorder(t *testing.T) {
	rec := Noop()
	rec.MessageProcessed(context.Background(), route.Small)
	rec.RoutingError(context.Background(), KindHandlerError)
	rec.BatchSent(context.Background(), route.Small, 1)
}
