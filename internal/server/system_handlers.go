package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tokenbook/docs"
	"tokenbook/internal/api"
	"tokenbook/internal/logger"
)

// HealthCheck probes one dependency, e.g. the database or Redis.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				logger.WithError(err).Warn("health check failed", "dependency", hc.Name)
				c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable: " + hc.Name})
				return
			}
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// Metrics godoc
// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Swagger serves the UI and doc.json generated into docs/.
func Swagger() gin.HandlerFunc {
	return ginSwagger.WrapHandler(swaggerFiles.Handler)
}
