package subscription

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// iosPWAStore handles subscriptions for installed iOS home-screen apps.
// iOS has no real web push and its permission state is slow and
// unreliable to query, so the local flag is the primary source of truth
// and every remote interaction is best effort.
type iosPWAStore struct {
	deps Deps
	env  platform.Env
}

// CheckStatus trusts the local flag without a network round-trip. When
// the flag is absent, a surviving remote device token repairs it.
func (s *iosPWAStore) CheckStatus(ctx context.Context) (bool, error) {
	value, ok, err := s.deps.KV.Get(ctx, kvstore.KeyIOSPWAEnabled)
	if err == nil && ok && value == "true" {
		return true, nil
	}
	if err != nil {
		s.deps.Logger.Warn("Local subscription flag read failed", zap.Error(err))
	}

	token, err := s.deps.Tokens.GetByUserAndPlatform(ctx, s.deps.UserID, model.PlatformIOSPWA)
	if err != nil {
		// Remote unavailable; the absent flag already answers the question.
		return false, nil
	}
	if token != nil {
		if err := s.deps.KV.Set(ctx, kvstore.KeyIOSPWAEnabled, "true"); err != nil {
			s.deps.Logger.Warn("Subscription cache repair failed", zap.Error(err))
		}
		return true, nil
	}

	if err := s.deps.KV.Delete(ctx, kvstore.KeyIOSPWAEnabled); err != nil {
		s.deps.Logger.Warn("Local subscription flag clear failed", zap.Error(err))
	}
	return false, nil
}

// Enable sets the local flag before any awaited call so the UI never
// blocks on a slow or silently ignored iOS prompt. Remote failures are
// logged, never reverted: the local preference is authoritative here.
func (s *iosPWAStore) Enable(ctx context.Context) (EnableResult, error) {
	if err := s.deps.KV.Set(ctx, kvstore.KeyIOSPWAEnabled, "true"); err != nil {
		// No local fallback exists; this is the one failure Enable surfaces.
		s.deps.Logger.Error("Failed to persist local subscription flag", zap.Error(err))
		return EnableResult{}, err
	}

	result := EnableResult{Subscribed: true}

	permission := requestPermission(ctx, s.deps.Permissions, s.deps.PermissionTimeout)
	if permission == PermissionDenied {
		// Explicit denial is the only outcome worth user guidance;
		// timeouts and unset permission stay silent.
		result.PermissionDenied = true
	}

	details, err := json.Marshal(struct {
		platform.Classification
		UserAgent string `json:"user_agent"`
	}{platform.Classify(s.env), s.env.UserAgent()})
	if err != nil {
		details = nil
	}

	deviceToken := &model.DeviceToken{
		UserID:          s.deps.UserID,
		Platform:        model.PlatformIOSPWA,
		Token:           uuid.NewString(),
		PlatformDetails: details,
	}
	if err := s.deps.Tokens.Upsert(ctx, deviceToken); err != nil {
		s.deps.Logger.Warn("Device token write failed, keeping local preference",
			zap.Error(err),
			zap.String("user_id", s.deps.UserID))
	}

	if s.deps.Bridge != nil {
		if err := s.deps.Bridge.Register(ctx); err != nil {
			s.deps.Logger.Debug("Service worker registration failed", zap.Error(err))
		}
	}

	return result, nil
}

// Disable clears the local flag first so the UI reacts immediately, then
// removes remote rows best effort. The user intent is already satisfied
// locally, so remote failures are never surfaced.
func (s *iosPWAStore) Disable(ctx context.Context) (bool, error) {
	if err := s.deps.KV.Delete(ctx, kvstore.KeyIOSPWAEnabled); err != nil {
		s.deps.Logger.Warn("Local subscription flag clear failed", zap.Error(err))
	}

	if err := s.deps.Tokens.DeleteByUserAndPlatform(ctx, s.deps.UserID, model.PlatformIOSPWA); err != nil {
		s.deps.Logger.Warn("Device token delete failed", zap.Error(err))
	}

	return true, nil
}
