package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lesprivat/les-api/internal/service"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
	"github.com/lesprivat/les-api/pkg/response"
)

// AttendanceHandler exposes the check-in and ledger read endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Record godoc
// @Summary Record attendance for the authenticated participant
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.RecordRequest true "Check-in"
// @Success 201 {object} response.Envelope
// @Router /lessons/{id}/attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}

	record, err := h.service.Record(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// ListByLesson godoc
// @Summary List attendance records of a lesson
// @Tags Attendance
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/attendance [get]
func (h *AttendanceHandler) ListByLesson(c *gin.Context) {
	rows, err := h.service.ListByLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// History godoc
// @Summary A participant's attendance history within a class
// @Tags Attendance
// @Produce json
// @Param id path string true "Class ID"
// @Param participantId path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/attendance/{participantId} [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	rows, err := h.service.History(c.Request.Context(), c.Param("id"), c.Param("participantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
