package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_SpanPerRequest(t *testing.T) {
	recorder := setupTestTracer(t)

	engine := gin.New()
	engine.Use(TracingWithConfig(TracingConfig{ServiceName: "focusvent-test", Enabled: true}))
	engine.Use(RequestID())
	engine.Use(SpanEnricher())
	engine.PUT("/api/v1/sales/:sale_id/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, http.MethodPut, "/api/v1/sales/42/items", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "PUT /api/v1/sales/:sale_id/items", span.Name())

	requestID, ok := attrValue(span.Attributes(), "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", requestID.AsString())
	saleID, ok := attrValue(span.Attributes(), "sale_id")
	require.True(t, ok)
	assert.Equal(t, "42", saleID.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_ErrorStatus(t *testing.T) {
	tests := []struct {
		status      int
		description string
	}{
		{http.StatusNotFound, "Not Found"},
		{http.StatusConflict, "Conflict"},
		{http.StatusUnprocessableEntity, "Client Error"},
		{http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			recorder := setupTestTracer(t)

			engine := gin.New()
			engine.Use(TracingWithConfig(TracingConfig{ServiceName: "focusvent-test", Enabled: true}))
			engine.Use(SpanEnricher())
			engine.GET("/fail", func(c *gin.Context) { c.Status(tt.status) })

			serve(engine, http.MethodGet, "/fail", nil)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
			status, ok := attrValue(spans[0].Attributes(), "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(tt.status), status.AsInt64())
		})
	}
}

func TestTracing_Disabled(t *testing.T) {
	recorder := setupTestTracer(t)

	engine := gin.New()
	engine.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	engine.Use(SpanEnricher())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}
