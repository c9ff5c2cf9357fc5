package model

import (
	"time"
)

// Notification type values
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Notification represents an in-app alert
type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
	ReferenceID   *string   `json:"reference_id,omitempty"`
	ReferenceType *string   `json:"reference_type,omitempty"`
	Group         string    `json:"group"`
	Persistent    bool      `json:"persistent"`
}

// NotificationInput represents data for creating a notification
type NotificationInput struct {
	Title         string  `json:"title" binding:"required"`
	Message       string  `json:"message"`
	Type          string  `json:"type" binding:"omitempty,oneof=info success warning error"`
	ReferenceID   *string `json:"reference_id,omitempty"`
	ReferenceType *string `json:"reference_type,omitempty"`
	Persistent    bool    `json:"persistent"`
}

// VisibleNotification is an unread notification together with its position
// in the visible stack (0 = newest), used by clients for cascade offsets.
type VisibleNotification struct {
	Notification
	StackIndex int `json:"stack_index"`
}

// QueuedNotification represents a notification payload awaiting delivery
type QueuedNotification struct {
	ID           string            `json:"id"`
	Notification NotificationInput `json:"notification"`
	Timestamp    time.Time         `json:"timestamp"`
	Retries      int               `json:"retries"`
}

// PushPayload represents the body sent to the push-notification function
type PushPayload struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// PushResult represents the push-notification function response
type PushResult struct {
	SuccessCount int `json:"successCount"`
}

// NotificationListResponse represents the visible notification stack with metadata
type NotificationListResponse struct {
	Notifications []VisibleNotification `json:"notifications"`
	Unread        int                   `json:"unread"`
}
