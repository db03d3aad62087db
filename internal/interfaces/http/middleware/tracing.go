package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig returns OpenTelemetry tracing middleware.
// Span names follow otelgin's "METHOD route" form, e.g. "PUT /api/v1/sales/:sale_id/items".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher adds request scoped attributes to the server span and marks it as
// failed for error responses. Place it after TracingWithConfig and RequestID.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if saleID := c.Param("sale_id"); saleID != "" {
			span.SetAttributes(attribute.String("sale_id", saleID))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		switch {
		case status >= http.StatusInternalServerError:
			span.SetStatus(codes.Error, "Internal Server Error")
		case status == http.StatusNotFound:
			span.SetStatus(codes.Error, "Not Found")
		case status == http.StatusConflict:
			span.SetStatus(codes.Error, "Conflict")
		default:
			span.SetStatus(codes.Error, "Client Error")
		}
	}
}
