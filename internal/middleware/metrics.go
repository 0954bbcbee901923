package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"

	"mangafas/internal/observability"
)

// InitMetrics creates the Prometheus middleware for HTTP request metrics.
// The returned instance must be registered on the app (RegisterAt) and
// installed via MetricsMiddleware.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the Fiber handler that records request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}

// RecordRedisError increments the Redis error counter for the given operation.
func RecordRedisError(operation string) {
	observability.RedisErrorRate.WithLabelValues(operation).Inc()
}
