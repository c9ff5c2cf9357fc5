package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
)

// PushSubscriptionRepository handles database operations for web push subscriptions
type PushSubscriptionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPushSubscriptionRepository creates a new push subscription repository
func NewPushSubscriptionRepository(db *sqlx.DB, logger *zap.Logger) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores a subscription, reactivating an existing row for the same endpoint
func (r *PushSubscriptionRepository) Save(ctx context.Context, sub *model.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (user_id, platform, endpoint, auth_keys, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (endpoint)
		DO UPDATE SET user_id = $1, platform = $2, auth_keys = $4, active = TRUE`

	_, err := r.db.ExecContext(ctx, query, sub.UserID, sub.Platform, sub.Endpoint, sub.AuthKeys)
	if err != nil {
		r.logger.Error("Failed to save push subscription", zap.Error(err), zap.String("user_id", sub.UserID))
		return err
	}
	return nil
}

// GetActiveByUser retrieves all active subscriptions for a user
func (r *PushSubscriptionRepository) GetActiveByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	query := `
		SELECT id, user_id, platform, endpoint, auth_keys, active
		FROM push_subscriptions
		WHERE user_id = $1 AND active = TRUE`

	var subs []model.PushSubscription
	err := r.db.SelectContext(ctx, &subs, query, userID)
	if err != nil {
		r.logger.Error("Failed to get push subscriptions", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	return subs, nil
}

// HasActive reports whether the user has any active subscription for a platform
func (r *PushSubscriptionRepository) HasActive(ctx context.Context, userID, platform string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM push_subscriptions
			WHERE user_id = $1 AND platform = $2 AND active = TRUE
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, platform)
	if err != nil {
		r.logger.Error("Failed to check push subscriptions", zap.Error(err), zap.String("user_id", userID))
		return false, err
	}
	return exists, nil
}

// Deactivate marks every subscription for a (user, platform) pair inactive
func (r *PushSubscriptionRepository) Deactivate(ctx context.Context, userID, platform string) error {
	query := `UPDATE push_subscriptions SET active = FALSE WHERE user_id = $1 AND platform = $2`

	_, err := r.db.ExecContext(ctx, query, userID, platform)
	if err != nil {
		r.logger.Error("Failed to deactivate push subscriptions", zap.Error(err), zap.String("user_id", userID))
		return err
	}
	return nil
}

// DeactivateEndpoint marks a single subscription endpoint inactive, used
// when a push provider reports the endpoint gone
func (r *PushSubscriptionRepository) DeactivateEndpoint(ctx context.Context, endpoint string) error {
	query := `UPDATE push_subscriptions SET active = FALSE WHERE endpoint = $1`

	_, err := r.db.ExecContext(ctx, query, endpoint)
	if err != nil {
		r.logger.Error("Failed to deactivate push endpoint", zap.Error(err))
		return err
	}
	return nil
}
