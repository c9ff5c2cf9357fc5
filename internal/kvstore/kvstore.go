// Package kvstore is the device-local key-value persistence layer: the
// server-side stand-in for the client's local storage, scoped per user.
package kvstore

import "context"

// Fixed keys shared across the notification core. The exact strings are
// part of the persisted contract with existing client data.
const (
	KeyIOSPWAEnabled       = "ios_pwa_notifications_enabled"
	KeyNotificationQueue   = "notificationQueue"
	KeyLastInteractionTime = "lastInteractionTime"
	KeyLegacyNotifications = "persisted_notifications"
	KeyDetectedTimeZone    = "detected_timezone"
)

// NotificationsKey returns the per-user notification list key. An empty
// user id maps to the anonymous slot so logged-out state stays isolated.
func NotificationsKey(userID string) string {
	if userID == "" {
		return "notifications_anonymous"
	}
	return "notifications_" + userID
}

// Store is a flat string key-value store. Get reports presence
// explicitly so absent and empty values stay distinguishable.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
