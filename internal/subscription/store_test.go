package subscription

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
)

type fakeEnv struct {
	ios bool
	pwa bool
}

func (e fakeEnv) UserAgent() string {
	if e.ios {
		return "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"
	}
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
}
func (e fakeEnv) Standalone() bool    { return e.pwa }
func (e fakeEnv) Platform() string    { return "" }
func (e fakeEnv) MaxTouchPoints() int { return 0 }
func (e fakeEnv) Online() bool        { return true }
func (e fakeEnv) Focused() bool       { return true }
func (e fakeEnv) TimeZone() string    { return "UTC" }

type fakeTokens struct {
	token     *model.DeviceToken
	getErr    error
	upsertErr error
	upserts   []*model.DeviceToken
	deletes   int
	deleteErr error
}

func (f *fakeTokens) Upsert(ctx context.Context, token *model.DeviceToken) error {
	f.upserts = append(f.upserts, token)
	return f.upsertErr
}

func (f *fakeTokens) GetByUserAndPlatform(ctx context.Context, userID, platform string) (*model.DeviceToken, error) {
	return f.token, f.getErr
}

func (f *fakeTokens) DeleteByUserAndPlatform(ctx context.Context, userID, platform string) error {
	f.deletes++
	return f.deleteErr
}

type fakeSubs struct {
	active        bool
	activeErr     error
	saved         []*model.PushSubscription
	saveErr       error
	deactivations int
	deactivateErr error
}

func (f *fakeSubs) Save(ctx context.Context, sub *model.PushSubscription) error {
	f.saved = append(f.saved, sub)
	return f.saveErr
}

func (f *fakeSubs) HasActive(ctx context.Context, userID, platform string) (bool, error) {
	return f.active, f.activeErr
}

func (f *fakeSubs) Deactivate(ctx context.Context, userID, platform string) error {
	f.deactivations++
	return f.deactivateErr
}

type fakeBridge struct {
	registerErr    error
	current        *model.PushSubscription
	getErr         error
	subscribed     *model.PushSubscription
	subscribeErr   error
	unsubscribeErr error
	registrations  int
	unsubscribes   int
}

func (f *fakeBridge) Register(ctx context.Context) error {
	f.registrations++
	return f.registerErr
}

func (f *fakeBridge) GetSubscription(ctx context.Context) (*model.PushSubscription, error) {
	return f.current, f.getErr
}

func (f *fakeBridge) Subscribe(ctx context.Context) (*model.PushSubscription, error) {
	return f.subscribed, f.subscribeErr
}

func (f *fakeBridge) Unsubscribe(ctx context.Context) error {
	f.unsubscribes++
	return f.unsubscribeErr
}

type fakePermissions struct {
	permission Permission
	err        error
	delay      time.Duration
}

func (f *fakePermissions) Request(ctx context.Context) (Permission, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return PermissionDefault, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.permission, f.err
}

// failingStore rejects writes so flag persistence failures can be forced.
type failingStore struct {
	kvstore.Store
	setErr error
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, key, value)
}

func testDeps(kv kvstore.Store, tokens *fakeTokens, subs *fakeSubs, bridge *fakeBridge, permissions *fakePermissions) Deps {
	deps := Deps{
		UserID:            "user-1",
		KV:                kv,
		Tokens:            tokens,
		Subscriptions:     subs,
		PermissionTimeout: 50 * time.Millisecond,
		Logger:            zap.NewNop(),
	}
	if bridge != nil {
		deps.Bridge = bridge
	}
	if permissions != nil {
		deps.Permissions = permissions
	}
	return deps
}
