package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
	"github.com/bryancris/tasqi-sub001/internal/subscription"
)

// HeaderNotificationPermission carries the system permission state the
// client last observed (granted/denied/default).
const HeaderNotificationPermission = "X-Notification-Permission"

// StoreFactory builds the subscription store strategy for a user's
// reported environment and request-scoped platform bridges.
type StoreFactory func(ctx context.Context, userID string, env platform.Env, bridge subscription.PushBridge, permissions subscription.PermissionAPI) subscription.Store

// subscriptionRequest is the optional body on subscription operations:
// the push subscription the client captured from its own push manager.
type subscriptionRequest struct {
	Subscription *struct {
		Endpoint string                 `json:"endpoint"`
		Keys     model.SubscriptionKeys `json:"keys"`
	} `json:"subscription"`
}

// SubscriptionHandler handles push subscription HTTP requests
type SubscriptionHandler struct {
	stores StoreFactory
	logger *zap.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(stores StoreFactory, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		stores: stores,
		logger: logger,
	}
}

// GetStatus handles checking the reconciled subscription state
// GET /api/v1/subscription/status
func (h *SubscriptionHandler) GetStatus(c *gin.Context) {
	store, env := h.storeFor(c, nil)

	subscribed, err := store.CheckStatus(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to check subscription status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check subscription status"})
		return
	}

	c.JSON(http.StatusOK, model.SubscriptionStatusResponse{
		Subscribed: subscribed,
		Platform:   platform.SubscriptionPlatform(env),
	})
}

// Enable handles turning notifications on
// POST /api/v1/subscription/enable
func (h *SubscriptionHandler) Enable(c *gin.Context) {
	var body subscriptionRequest
	_ = c.ShouldBindJSON(&body) // body is optional on device-token platforms

	store, _ := h.storeFor(c, &body)
	result, err := store.Enable(c.Request.Context())
	if err != nil {
		// No local fallback exists; the client reverts its optimistic state.
		userID, _ := c.Get("userID")
		h.logger.Warn("Enable notifications failed", zap.Error(err), zap.String("user_id", userID.(string)))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":             "Failed to enable notifications",
			"permission_denied": result.PermissionDenied,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Disable handles turning notifications off
// POST /api/v1/subscription/disable
func (h *SubscriptionHandler) Disable(c *gin.Context) {
	store, _ := h.storeFor(c, nil)

	disabled, err := store.Disable(c.Request.Context())
	if err != nil {
		h.logger.Error("Disable notifications failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"disabled": disabled})
}

// storeFor assembles the strategy for this request: environment from
// headers, push bridge from any client-captured subscription, and the
// reported permission state.
func (h *SubscriptionHandler) storeFor(c *gin.Context, body *subscriptionRequest) (subscription.Store, platform.Env) {
	userID, _ := c.Get("userID")
	env := platform.FromRequest(c.Request)

	var captured *model.PushSubscription
	if body != nil && body.Subscription != nil {
		keys, err := json.Marshal(body.Subscription.Keys)
		if err == nil {
			captured = &model.PushSubscription{
				Endpoint: body.Subscription.Endpoint,
				AuthKeys: keys,
			}
		}
	}

	bridge := subscription.NewProvidedBridge(captured)
	permissions := subscription.ReportedPermission(c.GetHeader(HeaderNotificationPermission))
	return h.stores(c.Request.Context(), userID.(string), env, bridge, permissions), env
}
