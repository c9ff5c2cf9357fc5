package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "key", ""))
	value, ok, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", value)

	require.NoError(t, s.Delete(ctx, "key"))
	_, ok, err = s.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryFactoryReusesStorePerUser(t *testing.T) {
	factory := NewMemoryFactory()
	ctx := context.Background()

	require.NoError(t, factory("u1").Set(ctx, "key", "value"))

	value, ok, err := factory("u1").Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", value)

	_, ok, err = factory("u2").Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotificationsKey(t *testing.T) {
	assert.Equal(t, "notifications_user-1", NotificationsKey("user-1"))
	assert.Equal(t, "notifications_anonymous", NotificationsKey(""))
}
