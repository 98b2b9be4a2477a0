package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus

	// ActiveWebSockets tracks currently open /api/ws connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialhub_active_websockets",
		Help: "Number of open realtime WebSocket connections",
	})
)

// InitMetrics returns the process-wide HTTP metrics collector. fiberprometheus
// registers its collectors on the default registry, so repeated calls (one per
// test server) share the first instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request counts and latency, skipping the
// scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return p.Middleware(c)
	}
}
