package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/studysearch/internal/config"
)

// SetupRoutes configures the route tree. Liveness, health, and metrics sit
// outside the authenticated group.
func SetupRoutes(router *gin.Engine, handler *Handler, cfg *config.Config, registry *prometheus.Registry) {
	router.GET("/", handler.Liveness)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		v1.Use(AuthMiddleware(cfg.Auth.Secret))
	}
	v1.POST("/curate", handler.Curate)
	v1.POST("/plan", handler.Plan)
}
