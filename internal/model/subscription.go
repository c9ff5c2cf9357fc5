package model

import (
	"encoding/json"
	"time"
)

// Platform identifiers stored alongside subscription rows
const (
	PlatformWeb        = "web"
	PlatformIOSPWA     = "ios-pwa"
	PlatformAndroidPWA = "android-pwa"
)

// DeviceToken represents a push_device_tokens row. On platforms without full
// push support (iOS PWA) an opaque token stands in for a real subscription.
type DeviceToken struct {
	ID                   int             `json:"id" db:"id"`
	UserID               string          `json:"user_id" db:"user_id"`
	Platform             string          `json:"platform" db:"platform"`
	Token                string          `json:"token" db:"token"`
	NotificationSettings json.RawMessage `json:"notification_settings,omitempty" db:"notification_settings"`
	PlatformDetails      json.RawMessage `json:"platform_details,omitempty" db:"platform_details"`
	UpdatedAt            time.Time       `json:"updated_at" db:"updated_at"`
}

// PushSubscription represents a push_subscriptions row
type PushSubscription struct {
	ID       int             `json:"id" db:"id"`
	UserID   string          `json:"user_id" db:"user_id"`
	Platform string          `json:"platform" db:"platform"`
	Endpoint string          `json:"endpoint" db:"endpoint"`
	AuthKeys json.RawMessage `json:"auth_keys" db:"auth_keys"`
	Active   bool            `json:"active" db:"active"`
}

// SubscriptionKeys holds the key material inside PushSubscription.AuthKeys
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscriptionStatusResponse represents the subscription check result
type SubscriptionStatusResponse struct {
	Subscribed bool   `json:"subscribed"`
	Platform   string `json:"platform"`
}
