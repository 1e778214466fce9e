package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invwatch/internal/handler"
	"invwatch/internal/metrics"
	"invwatch/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health *handler.HealthHandler
	Stats  *handler.StatsHandler
	Parse  *handler.ParseHandler
	Sync   *handler.SyncHandler
}

// Options holds router-level settings.
type Options struct {
	CORSOrigins []string
	// MetricsPath is left unmounted when empty or when Metrics is nil.
	MetricsPath string
	Metrics     *metrics.Metrics
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, opts Options, log zerolog.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(opts.CORSOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/stats", h.Stats.GetStats)
	v1.POST("/parse", h.Parse.Parse)
	v1.POST("/sync", h.Sync.Trigger)

	return r
}
