package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/overlay"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// GuardFactory builds an interaction guard for one user's devices.
type GuardFactory func(userID string) *overlay.Guard

// OverlayHandler handles sheet teardown protection requests
type OverlayHandler struct {
	guards GuardFactory
	coord  *overlay.Coordination
	logger *zap.Logger
}

// NewOverlayHandler creates a new overlay handler
func NewOverlayHandler(guards GuardFactory, coord *overlay.Coordination, logger *zap.Logger) *OverlayHandler {
	return &OverlayHandler{
		guards: guards,
		coord:  coord,
		logger: logger,
	}
}

// RegisterPanel handles a dismissible panel mounting
// POST /api/v1/overlay/panels
func (h *OverlayHandler) RegisterPanel(c *gin.Context) {
	var body struct {
		PanelID string `json:"panel_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid panel payload"})
		return
	}
	h.coord.RegisterPanel(body.PanelID)
	c.JSON(http.StatusOK, gin.H{"panels": h.coord.PanelCount()})
}

// UnregisterPanel handles a panel unmounting
// DELETE /api/v1/overlay/panels/:id
func (h *OverlayHandler) UnregisterPanel(c *gin.Context) {
	h.coord.UnregisterPanel(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"panels": h.coord.PanelCount()})
}

// Protect handles a sharing sheet starting to close
// POST /api/v1/overlay/protect
func (h *OverlayHandler) Protect(c *gin.Context) {
	userID, _ := c.Get("userID")

	var body struct {
		PanelID string `json:"panel_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid protect payload"})
		return
	}

	env := platform.FromRequest(c.Request)
	h.guards(userID.(string)).Protect(env, body.PanelID)

	closing, since := h.coord.Closing()
	c.JSON(http.StatusOK, gin.H{
		"closing":       closing,
		"closing_since": since,
		"shields":       h.coord.ActiveShields(),
	})
}

// Reset handles the stuck-state escape hatch
// POST /api/v1/overlay/reset
func (h *OverlayHandler) Reset(c *gin.Context) {
	platform.ResetProtections()
	h.logger.Info("Protection flags reset")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
