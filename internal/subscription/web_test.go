package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
)

func webEnv() fakeEnv { return fakeEnv{} }

func TestWebCheckStatusPrefersLiveSubscription(t *testing.T) {
	bridge := &fakeBridge{current: &model.PushSubscription{Endpoint: "https://push.example/abc"}}
	subs := &fakeSubs{activeErr: errors.New("must not be called")}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, subs, bridge, nil))

	subscribed, err := store.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, subscribed)
}

func TestWebCheckStatusFallsBackToRemote(t *testing.T) {
	bridge := &fakeBridge{}
	subs := &fakeSubs{active: true}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, subs, bridge, nil))

	subscribed, err := store.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, subscribed)
}

func TestWebCheckStatusPropagatesRemoteError(t *testing.T) {
	subs := &fakeSubs{activeErr: errors.New("db down")}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, subs, &fakeBridge{}, nil))

	_, err := store.CheckStatus(context.Background())
	assert.Error(t, err)
}

func TestWebEnablePersistsSubscription(t *testing.T) {
	bridge := &fakeBridge{subscribed: &model.PushSubscription{Endpoint: "https://push.example/abc"}}
	subs := &fakeSubs{}
	permissions := &fakePermissions{permission: PermissionGranted}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, subs, bridge, permissions))

	result, err := store.Enable(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Subscribed)
	assert.Equal(t, 1, bridge.registrations)

	require.Len(t, subs.saved, 1)
	saved := subs.saved[0]
	assert.Equal(t, "user-1", saved.UserID)
	assert.Equal(t, model.PlatformWeb, saved.Platform)
	assert.True(t, saved.Active)
}

func TestWebEnableFailsWithoutBridge(t *testing.T) {
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, &fakeSubs{}, nil, nil))

	_, err := store.Enable(context.Background())
	assert.ErrorIs(t, err, ErrSubscribeFailed)
}

func TestWebEnablePropagatesDenial(t *testing.T) {
	bridge := &fakeBridge{subscribed: &model.PushSubscription{Endpoint: "https://push.example/abc"}}
	permissions := &fakePermissions{permission: PermissionDenied}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, &fakeSubs{}, bridge, permissions))

	result, err := store.Enable(context.Background())
	assert.ErrorIs(t, err, ErrSubscribeFailed)
	assert.True(t, result.PermissionDenied)
	assert.False(t, result.Subscribed)
}

func TestWebEnablePropagatesSubscribeFailure(t *testing.T) {
	bridge := &fakeBridge{subscribeErr: errors.New("push service unreachable")}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, &fakeSubs{}, bridge, nil))

	_, err := store.Enable(context.Background())
	assert.ErrorIs(t, err, ErrSubscribeFailed)
}

func TestWebEnablePropagatesSaveFailure(t *testing.T) {
	bridge := &fakeBridge{subscribed: &model.PushSubscription{Endpoint: "https://push.example/abc"}}
	subs := &fakeSubs{saveErr: errors.New("db down")}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, subs, bridge, nil))

	_, err := store.Enable(context.Background())
	assert.ErrorIs(t, err, ErrSubscribeFailed)
}

func TestWebDisableBestEffort(t *testing.T) {
	bridge := &fakeBridge{unsubscribeErr: errors.New("sw gone")}
	subs := &fakeSubs{deactivateErr: errors.New("db down")}
	store := New(webEnv(), testDeps(kvstore.NewMemoryStore(), &fakeTokens{}, subs, bridge, nil))

	disabled, err := store.Disable(context.Background())
	require.NoError(t, err)
	assert.True(t, disabled)
	assert.Equal(t, 1, subs.deactivations)
	assert.Equal(t, 1, bridge.unsubscribes)
}

func TestRequestPermissionTimesOut(t *testing.T) {
	permissions := &fakePermissions{permission: PermissionGranted, delay: time.Second}
	got := requestPermission(context.Background(), permissions, 20*time.Millisecond)
	assert.Equal(t, PermissionTimeout, got)
}

func TestRequestPermissionResolvesBeforeTimeout(t *testing.T) {
	permissions := &fakePermissions{permission: PermissionGranted}
	got := requestPermission(context.Background(), permissions, time.Second)
	assert.Equal(t, PermissionGranted, got)
}
