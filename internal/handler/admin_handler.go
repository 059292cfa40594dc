package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lesprivat/les-api/internal/service"
	"github.com/lesprivat/les-api/pkg/response"
)

// AdminHandler exposes the two periodic-trigger entry points so an external
// scheduler can drive them on demand next to the in-process tickers.
type AdminHandler struct {
	sweeper *service.SweeperService
	orders  *service.OrderService
	metrics *service.MetricsService
	clock   func() time.Time
}

// NewAdminHandler constructs the handler. A nil clock defaults to time.Now.
func NewAdminHandler(sweeper *service.SweeperService, orders *service.OrderService, metrics *service.MetricsService, clock func() time.Time) *AdminHandler {
	if clock == nil {
		clock = time.Now
	}
	return &AdminHandler{sweeper: sweeper, orders: orders, metrics: metrics, clock: clock}
}

// Sweep godoc
// @Summary Back-fill absences for lapsed unattended lessons
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sweep [post]
func (h *AdminHandler) Sweep(c *gin.Context) {
	start := h.clock()
	processed, err := h.sweeper.Sweep(c.Request.Context(), start)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveSweep(processed, time.Since(start))
	}
	response.JSON(c, http.StatusOK, gin.H{"processed": processed}, nil)
}

// CancelStaleOrders godoc
// @Summary Cancel orders pending past their TTL
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/orders/cancel-stale [post]
func (h *AdminHandler) CancelStaleOrders(c *gin.Context) {
	cancelled, err := h.orders.CancelStale(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.AddOrdersCancelled(cancelled)
	}
	response.JSON(c, http.StatusOK, gin.H{"cancelled": cancelled}, nil)
}
