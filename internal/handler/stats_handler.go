package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lesprivat/les-api/internal/middleware"
	"github.com/lesprivat/les-api/internal/service"
	"github.com/lesprivat/les-api/pkg/response"
)

// StatsHandler exposes the read-side recap projections.
type StatsHandler struct {
	stats   *service.StatsService
	payroll *service.PayrollService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(stats *service.StatsService, payroll *service.PayrollService) *StatsHandler {
	return &StatsHandler{stats: stats, payroll: payroll}
}

// ClassRecap godoc
// @Summary Attendance recap for a class
// @Tags Stats
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/recap [get]
func (h *StatsHandler) ClassRecap(c *gin.Context) {
	start := time.Now()
	recap, cacheHit, err := h.stats.ClassRecap(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, recap, nil, meta)
}

// ExportClassRecap godoc
// @Summary Download a class recap as CSV or PDF
// @Tags Stats
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /classes/{id}/recap/export [get]
func (h *StatsHandler) ExportClassRecap(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.stats.ExportClassRecap(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("recap-%s.%s", c.Param("id"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// TutorSummary godoc
// @Summary Attendance and payroll summary for a tutor
// @Tags Stats
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/summary [get]
func (h *StatsHandler) TutorSummary(c *gin.Context) {
	summary, err := h.stats.TutorSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentSummary godoc
// @Summary Progress summary for a student
// @Tags Stats
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/summary [get]
func (h *StatsHandler) StudentSummary(c *gin.Context) {
	summary, err := h.stats.StudentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// TutorPayroll godoc
// @Summary Payroll records for a tutor
// @Tags Stats
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/payroll [get]
func (h *StatsHandler) TutorPayroll(c *gin.Context) {
	records, err := h.payroll.ListByTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
