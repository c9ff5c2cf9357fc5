package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
)

// DeviceTokenRepository handles database operations for push device tokens
type DeviceTokenRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewDeviceTokenRepository creates a new device token repository
func NewDeviceTokenRepository(db *sqlx.DB, logger *zap.Logger) *DeviceTokenRepository {
	return &DeviceTokenRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or refreshes the token row for a (user, platform) pair
func (r *DeviceTokenRepository) Upsert(ctx context.Context, token *model.DeviceToken) error {
	query := `
		INSERT INTO push_device_tokens (user_id, platform, token, notification_settings, platform_details, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, platform)
		DO UPDATE SET token = $3, notification_settings = $4, platform_details = $5, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		token.UserID, token.Platform, token.Token, token.NotificationSettings, token.PlatformDetails)
	if err != nil {
		r.logger.Error("Failed to upsert device token", zap.Error(err), zap.String("user_id", token.UserID))
		return err
	}
	return nil
}

// GetByUserAndPlatform retrieves the token row for a (user, platform)
// pair, or nil when none exists
func (r *DeviceTokenRepository) GetByUserAndPlatform(ctx context.Context, userID, platform string) (*model.DeviceToken, error) {
	query := `
		SELECT id, user_id, platform, token, notification_settings, platform_details, updated_at
		FROM push_device_tokens
		WHERE user_id = $1 AND platform = $2`

	var token model.DeviceToken
	err := r.db.GetContext(ctx, &token, query, userID, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get device token", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	return &token, nil
}

// DeleteByUserAndPlatform removes every token row for a (user, platform) pair
func (r *DeviceTokenRepository) DeleteByUserAndPlatform(ctx context.Context, userID, platform string) error {
	query := `DELETE FROM push_device_tokens WHERE user_id = $1 AND platform = $2`

	_, err := r.db.ExecContext(ctx, query, userID, platform)
	if err != nil {
		r.logger.Error("Failed to delete device tokens", zap.Error(err), zap.String("user_id", userID))
		return err
	}
	return nil
}
