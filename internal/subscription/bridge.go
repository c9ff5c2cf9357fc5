package subscription

import (
	"context"
	"fmt"

	"github.com/bryancris/tasqi-sub001/internal/model"
)

// ProvidedBridge is a PushBridge backed by subscription data the client
// captured from its own push manager and attached to the request. The
// browser performs the real pushManager.subscribe; this bridge hands
// the result to the store, so a missing subscription is a subscribe
// failure.
type ProvidedBridge struct {
	sub *model.PushSubscription
}

// NewProvidedBridge wraps a client-captured subscription; sub may be
// nil when the client has none.
func NewProvidedBridge(sub *model.PushSubscription) *ProvidedBridge {
	return &ProvidedBridge{sub: sub}
}

// Register is a no-op: the client registers its own service worker.
func (b *ProvidedBridge) Register(ctx context.Context) error {
	return nil
}

// GetSubscription returns the client-captured subscription, nil when absent.
func (b *ProvidedBridge) GetSubscription(ctx context.Context) (*model.PushSubscription, error) {
	return b.sub, nil
}

// Subscribe returns the captured subscription or fails when the client
// produced none.
func (b *ProvidedBridge) Subscribe(ctx context.Context) (*model.PushSubscription, error) {
	if b.sub == nil {
		return nil, fmt.Errorf("client provided no push subscription")
	}
	if b.sub.Endpoint == "" {
		return nil, fmt.Errorf("client push subscription missing endpoint")
	}
	return b.sub, nil
}

// Unsubscribe is a no-op: the client tears down its own subscription.
func (b *ProvidedBridge) Unsubscribe(ctx context.Context) error {
	return nil
}

// ReportedPermission is a PermissionAPI backed by the permission state
// the client reported with the request.
type ReportedPermission string

// Request resolves immediately to the reported state; unknown values
// degrade to the unset default.
func (p ReportedPermission) Request(ctx context.Context) (Permission, error) {
	switch Permission(p) {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return Permission(p), nil
	default:
		return PermissionDefault, nil
	}
}
