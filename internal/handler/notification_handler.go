package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
	"github.com/bryancris/tasqi-sub001/internal/service"
)

// NotificationHandler handles in-app alert HTTP requests
type NotificationHandler struct {
	notifications *service.NotificationService
	queues        *service.QueueService
	logger        *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService, queues *service.QueueService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		queues:        queues,
		logger:        logger,
	}
}

// ShowNotification handles surfacing a notification
// POST /api/v1/notifications
func (h *NotificationHandler) ShowNotification(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input model.NotificationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification payload"})
		return
	}

	env := platform.FromRequest(c.Request)
	record, queued, err := h.notifications.Show(c.Request.Context(), userID.(string), env, input)
	if err != nil {
		h.logger.Error("Failed to show notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to show notification"})
		return
	}
	if queued {
		c.JSON(http.StatusAccepted, gin.H{"queued": true})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetNotifications handles retrieving the visible notification stack
// GET /api/v1/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, _ := c.Get("userID")

	visible := h.notifications.Visible(c.Request.Context(), userID.(string))
	c.JSON(http.StatusOK, model.NotificationListResponse{
		Notifications: visible,
		Unread:        len(visible),
	})
}

// DismissNotification handles marking one notification read
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) DismissNotification(c *gin.Context) {
	userID, _ := c.Get("userID")

	if !h.notifications.Dismiss(c.Request.Context(), userID.(string), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DismissGroup handles marking a whole group read
// PUT /api/v1/notifications/groups/:group/read
func (h *NotificationHandler) DismissGroup(c *gin.Context) {
	userID, _ := c.Get("userID")

	count := h.notifications.DismissGroup(c.Request.Context(), userID.(string), c.Param("group"))
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification group not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dismissed": count})
}

// ClearNotifications handles the logout boundary
// DELETE /api/v1/notifications
func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	userID, _ := c.Get("userID")

	h.notifications.Logout(c.Request.Context(), userID.(string))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReportConnectivity handles device online/offline samples
// POST /api/v1/connectivity
func (h *NotificationHandler) ReportConnectivity(c *gin.Context) {
	userID, _ := c.Get("userID")

	var body struct {
		Online bool `json:"online"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid connectivity payload"})
		return
	}

	h.queues.Observe(userID.(string), body.Online)
	c.JSON(http.StatusOK, gin.H{
		"pending": h.queues.Pending(c.Request.Context(), userID.(string)),
	})
}

// DrainQueue handles a forced queue drain for a user
// POST /api/v1/service/queue/drain
func (h *NotificationHandler) DrainQueue(c *gin.Context) {
	var body struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drain payload"})
		return
	}

	if err := h.queues.Drain(c.Request.Context(), body.UserID); err != nil {
		h.logger.Error("Queue drain failed", zap.Error(err), zap.String("user_id", body.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Queue drain failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending": h.queues.Pending(c.Request.Context(), body.UserID),
	})
}
