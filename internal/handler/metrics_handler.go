package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lesprivat/les-api/internal/service"
)

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler constructs the handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Scrape exposes the registry in Prometheus text format.
func (h *MetricsHandler) Scrape(c *gin.Context) {
	h.service.Handler().ServeHTTP(c.Writer, c.Request)
}
