package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lesprivat/les-api/internal/models"
	"github.com/lesprivat/les-api/internal/service"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
	"github.com/lesprivat/les-api/pkg/response"
)

// ScheduleHandler manages lesson sequence endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// CreateSequence godoc
// @Summary Generate the lesson sequence for a class
// @Tags Schedule
// @Produce json
// @Param id path string true "Class ID"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/lessons [post]
func (h *ScheduleHandler) CreateSequence(c *gin.Context) {
	lessons, err := h.service.CreateSequence(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lessons)
}

// BySlug godoc
// @Summary Resolve a lesson from its shareable slug
// @Tags Schedule
// @Produce json
// @Param slug path string true "Lesson slug"
// @Success 200 {object} response.Envelope
// @Router /l/{slug} [get]
func (h *ScheduleHandler) BySlug(c *gin.Context) {
	lesson, err := h.service.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// ListByClass godoc
// @Summary List the lesson sequence of a class
// @Tags Schedule
// @Produce json
// @Param id path string true "Class ID"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/lessons [get]
func (h *ScheduleHandler) ListByClass(c *gin.Context) {
	var filter models.LessonFilter
	if raw := c.Query("status"); raw != "" {
		status := models.LessonStatus(raw)
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortOrder = c.Query("order")

	lessons, pagination, err := h.service.ListByClass(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Reschedule godoc
// @Summary Move a lesson to a new date (allowed once)
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.RescheduleRequest true "New date"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/reschedule [patch]
func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	var req service.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	lesson, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Annotate godoc
// @Summary Overwrite the lesson annotation
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.AnnotateRequest true "Annotation"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/info [put]
func (h *ScheduleHandler) Annotate(c *gin.Context) {
	var req service.AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	lesson, err := h.service.Annotate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}
