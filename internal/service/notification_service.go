package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/alerts"
	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// NotificationService fronts the per-user alert managers.
type NotificationService struct {
	registry *alerts.Registry
	logger   *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(registry *alerts.Registry, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		registry: registry,
		logger:   logger,
	}
}

// Show surfaces a notification for a user, or queues it when the
// device reports itself offline.
func (s *NotificationService) Show(ctx context.Context, userID string, env platform.Env, input model.NotificationInput) (*model.Notification, bool, error) {
	return s.registry.Get(ctx, userID).Show(ctx, env, input)
}

// Visible returns the user's unread notification stack.
func (s *NotificationService) Visible(ctx context.Context, userID string) []model.VisibleNotification {
	return s.registry.Get(ctx, userID).Visible()
}

// Dismiss marks one notification read.
func (s *NotificationService) Dismiss(ctx context.Context, userID, id string) bool {
	return s.registry.Get(ctx, userID).Dismiss(ctx, id)
}

// DismissGroup marks a whole notification group read.
func (s *NotificationService) DismissGroup(ctx context.Context, userID, group string) int {
	return s.registry.Get(ctx, userID).DismissGroup(ctx, group)
}

// Logout clears the user's notifications and the anonymous slot.
func (s *NotificationService) Logout(ctx context.Context, userID string) {
	s.registry.Logout(ctx, userID)
}

// ShowReminder surfaces a task reminder. Reminders fire from the server
// scan, so the device is assumed online but unfocused: the alert is
// stored and a system-level push is attempted.
func (s *NotificationService) ShowReminder(ctx context.Context, userID string, input model.NotificationInput) error {
	_, _, err := s.registry.Get(ctx, userID).Show(ctx, reminderEnv{}, input)
	return err
}

// reminderEnv is the synthetic environment for server-originated
// reminder alerts: online, unfocused, platform unknown.
type reminderEnv struct{}

func (reminderEnv) UserAgent() string   { return "" }
func (reminderEnv) Standalone() bool    { return false }
func (reminderEnv) Platform() string    { return "" }
func (reminderEnv) MaxTouchPoints() int { return 0 }
func (reminderEnv) Online() bool        { return true }
func (reminderEnv) Focused() bool       { return false }
func (reminderEnv) TimeZone() string    { return "UTC" }
