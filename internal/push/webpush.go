// Package push delivers system-level notifications: VAPID web push for
// platforms with real push support, plus a fire-and-forget event stream.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/repository"
)

// WebPushSender sends notifications to a user's stored web push
// subscriptions using VAPID.
type WebPushSender struct {
	subscriptions *repository.PushSubscriptionRepository
	publicKey     string
	privateKey    string
	subscriber    string
	ttl           int
	logger        *zap.Logger
}

// NewWebPushSender creates a new web push sender
func NewWebPushSender(subscriptions *repository.PushSubscriptionRepository, publicKey, privateKey, subscriber string, ttl int, logger *zap.Logger) *WebPushSender {
	return &WebPushSender{
		subscriptions: subscriptions,
		publicKey:     publicKey,
		privateKey:    privateKey,
		subscriber:    subscriber,
		ttl:           ttl,
		logger:        logger,
	}
}

// Configured reports whether VAPID keys are present.
func (s *WebPushSender) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// Send pushes a payload to every active subscription for the user and
// returns how many deliveries were accepted. Endpoints the provider
// reports gone are deactivated in passing.
func (s *WebPushSender) Send(ctx context.Context, payload model.PushPayload) (int, error) {
	if !s.Configured() {
		return 0, fmt.Errorf("VAPID keys not configured")
	}

	subs, err := s.subscriptions.GetActiveByUser(ctx, payload.UserID)
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"title": payload.Title,
		"body":  payload.Body,
		"data":  payload.Data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal push body: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		var keys model.SubscriptionKeys
		if err := json.Unmarshal(sub.AuthKeys, &keys); err != nil {
			s.logger.Warn("Skipping subscription with malformed keys",
				zap.String("user_id", sub.UserID))
			continue
		}

		target := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: keys.P256dh,
				Auth:   keys.Auth,
			},
		}

		resp, err := webpush.SendNotification(body, target, &webpush.Options{
			Subscriber:      s.subscriber,
			VAPIDPublicKey:  s.publicKey,
			VAPIDPrivateKey: s.privateKey,
			TTL:             s.ttl,
		})
		if err != nil {
			s.logger.Warn("Web push send failed",
				zap.Error(err),
				zap.String("user_id", sub.UserID))
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			// Subscription expired at the provider
			if err := s.subscriptions.DeactivateEndpoint(ctx, sub.Endpoint); err != nil {
				s.logger.Warn("Failed to deactivate gone endpoint", zap.Error(err))
			}
			continue
		}
		if resp.StatusCode >= 400 {
			s.logger.Warn("Web push rejected",
				zap.Int("status", resp.StatusCode),
				zap.String("user_id", sub.UserID))
			continue
		}
		sent++
	}

	return sent, nil
}
