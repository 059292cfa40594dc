package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lesprivat/les-api/internal/models"
	appErrors "github.com/lesprivat/les-api/pkg/errors"
	"github.com/lesprivat/les-api/pkg/response"
)

type notificationLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

// NotificationHandler exposes the caller's in-app notification inbox.
type NotificationHandler struct {
	store notificationLister
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(store notificationLister) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List godoc
// @Summary List the caller's notifications, newest first
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum rows to return"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rows, err := h.store.ListByUser(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
