// Package subscription reconciles "is this device subscribed to push"
// across local preference, remote subscription rows, and the live
// platform push surface. One strategy per platform family, selected once
// per device environment, all behind a single Store contract.
package subscription

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// Permission is the outcome of a system permission request. The timeout
// sentinel exists so a hung prompt can never stall a caller.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
	PermissionTimeout Permission = "timeout"
)

// ErrSubscribeFailed marks an enable failure with no local fallback.
var ErrSubscribeFailed = errors.New("push subscription failed")

// PermissionAPI requests system notification permission from the client.
type PermissionAPI interface {
	Request(ctx context.Context) (Permission, error)
}

// PushBridge is the service-worker push surface on the client.
// GetSubscription returns nil without error when no subscription exists.
type PushBridge interface {
	Register(ctx context.Context) error
	GetSubscription(ctx context.Context) (*model.PushSubscription, error)
	Subscribe(ctx context.Context) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context) error
}

// EnableResult reports the outcome of an enable attempt. PermissionDenied
// is the only case that warrants user guidance; timeouts and unset
// permission are expected platform noise.
type EnableResult struct {
	Subscribed       bool `json:"subscribed"`
	PermissionDenied bool `json:"permission_denied"`
}

// Store is the subscription state contract. CheckStatus never mutates
// visible behavior on failure; Enable may return an error only when no
// local fallback state exists; Disable always satisfies the caller's
// intent locally before best-effort remote cleanup.
type Store interface {
	CheckStatus(ctx context.Context) (bool, error)
	Enable(ctx context.Context) (EnableResult, error)
	Disable(ctx context.Context) (bool, error)
}

// TokenRepository is the remote device token surface for platforms
// without real web push.
type TokenRepository interface {
	Upsert(ctx context.Context, token *model.DeviceToken) error
	GetByUserAndPlatform(ctx context.Context, userID, platform string) (*model.DeviceToken, error)
	DeleteByUserAndPlatform(ctx context.Context, userID, platform string) error
}

// SubscriptionRepository is the remote push subscription table surface.
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *model.PushSubscription) error
	HasActive(ctx context.Context, userID, platform string) (bool, error)
	Deactivate(ctx context.Context, userID, platform string) error
}

// Deps carries the collaborators a strategy needs.
type Deps struct {
	UserID            string
	KV                kvstore.Store
	Tokens            TokenRepository
	Subscriptions     SubscriptionRepository
	Bridge            PushBridge
	Permissions       PermissionAPI
	PermissionTimeout time.Duration
	Logger            *zap.Logger
}

// New selects the strategy for the device environment. iOS installed
// apps get the local-preference-first store; everything else uses the
// standard web store that trusts the platform push API.
func New(env platform.Env, deps Deps) Store {
	if platform.IsIOSPWA(env) {
		return &iosPWAStore{deps: deps, env: env}
	}
	return &webStore{deps: deps, env: env}
}

// requestPermission races the system prompt against the configured
// timeout, resolving to the timeout sentinel instead of hanging.
func requestPermission(ctx context.Context, api PermissionAPI, timeout time.Duration) Permission {
	if api == nil {
		return PermissionDefault
	}

	type outcome struct {
		permission Permission
		err        error
	}
	results := make(chan outcome, 1)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go func() {
		permission, err := api.Request(reqCtx)
		results <- outcome{permission, err}
	}()

	select {
	case result := <-results:
		if result.err != nil {
			return PermissionTimeout
		}
		return result.permission
	case <-reqCtx.Done():
		return PermissionTimeout
	}
}
