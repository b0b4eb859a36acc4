package api

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
)

// NewMetricMiddleware records latency, request totals and error totals per route.
func NewMetricMiddleware(meter metric.Meter) gin.HandlerFunc {
	durationHistogram, _ := meter.Int64Histogram(
		"http.server.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("The latency of HTTP requests."),
	)

	requestCounter, _ := meter.Int64Counter(
		"http.server.requests_total",
		metric.WithDescription("The total number of HTTP requests."),
	)

	errorCounter, _ := meter.Int64Counter(
		"http.server.error_requests_total",
		metric.WithDescription("The total number of failed HTTP requests."),
	)

	requestSizeHistogram, _ := meter.Int64Histogram(
		"http.server.request_size_bytes",
		metric.WithUnit("bytes"),
		metric.WithDescription("The size of HTTP requests in bytes."),
	)

	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		attrs := metric.WithAttributes(
			attribute.String("http.route", c.FullPath()),
			attribute.String("http.method", c.Request.Method),
			attribute.Int("http.status_code", status),
		)

		durationHistogram.Record(ctx, time.Since(startTime).Milliseconds(), attrs)
		requestCounter.Add(ctx, 1, attrs)
		if c.Request.ContentLength > 0 {
			requestSizeHistogram.Record(ctx, c.Request.ContentLength, attrs)
		}
		if status >= 400 {
			errorCounter.Add(ctx, 1, attrs)
		}
	}
}

// RequestLogger tags each request with an id (reusing the caller's X-Request-ID) and logs it on completion.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		startTime := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"requestId":  requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(startTime).Milliseconds(),
			"clientIp":   c.ClientIP(),
		}
		if c.Writer.Status() >= 500 {
			log.Error("request failed", fields)
			return
		}
		log.Info("request handled", fields)
	}
}
