package subscription

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// webStore handles subscriptions on platforms with real web push. The
// live push manager is the primary source of truth; no local flag is
// maintained, so enable failures must propagate.
type webStore struct {
	deps Deps
	env  platform.Env
}

// CheckStatus prefers the live service-worker subscription and falls
// back to the remote subscription table.
func (s *webStore) CheckStatus(ctx context.Context) (bool, error) {
	if s.deps.Bridge != nil {
		sub, err := s.deps.Bridge.GetSubscription(ctx)
		if err != nil {
			s.deps.Logger.Debug("Live subscription query failed", zap.Error(err))
		} else if sub != nil {
			return true, nil
		}
	}

	active, err := s.deps.Subscriptions.HasActive(ctx, s.deps.UserID, platform.SubscriptionPlatform(s.env))
	if err != nil {
		return false, err
	}
	return active, nil
}

// Enable performs a real subscribe through the push bridge and persists
// the resulting row. Standard web has no local-only fallback mode, so
// any failure propagates and the caller reverts its optimistic state.
func (s *webStore) Enable(ctx context.Context) (EnableResult, error) {
	if s.deps.Bridge == nil {
		return EnableResult{}, fmt.Errorf("%w: no push bridge available", ErrSubscribeFailed)
	}

	if err := s.deps.Bridge.Register(ctx); err != nil {
		return EnableResult{}, fmt.Errorf("%w: service worker registration: %v", ErrSubscribeFailed, err)
	}

	permission := requestPermission(ctx, s.deps.Permissions, s.deps.PermissionTimeout)
	if permission == PermissionDenied {
		return EnableResult{PermissionDenied: true}, fmt.Errorf("%w: permission denied", ErrSubscribeFailed)
	}

	sub, err := s.deps.Bridge.Subscribe(ctx)
	if err != nil {
		return EnableResult{}, fmt.Errorf("%w: %v", ErrSubscribeFailed, err)
	}

	sub.UserID = s.deps.UserID
	sub.Platform = platform.SubscriptionPlatform(s.env)
	sub.Active = true
	if err := s.deps.Subscriptions.Save(ctx, sub); err != nil {
		return EnableResult{}, fmt.Errorf("%w: persisting subscription: %v", ErrSubscribeFailed, err)
	}

	return EnableResult{Subscribed: true}, nil
}

// Disable deactivates remote rows and unsubscribes the live push
// manager, both best effort: the caller's intent holds regardless.
func (s *webStore) Disable(ctx context.Context) (bool, error) {
	if err := s.deps.Subscriptions.Deactivate(ctx, s.deps.UserID, platform.SubscriptionPlatform(s.env)); err != nil {
		s.deps.Logger.Warn("Subscription deactivate failed", zap.Error(err))
	}

	if s.deps.Bridge != nil {
		if err := s.deps.Bridge.Unsubscribe(ctx); err != nil {
			s.deps.Logger.Debug("Live unsubscribe failed", zap.Error(err))
		}
	}

	return true, nil
}
