package alerts

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/config"
	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
	"github.com/bryancris/tasqi-sub001/internal/push"
	"github.com/bryancris/tasqi-sub001/internal/queue"
)

type fakeEnv struct {
	online  bool
	focused bool
}

func (e fakeEnv) UserAgent() string   { return "Mozilla/5.0 (Windows NT 10.0; Win64; x64)" }
func (e fakeEnv) Standalone() bool    { return false }
func (e fakeEnv) Platform() string    { return "" }
func (e fakeEnv) MaxTouchPoints() int { return 0 }
func (e fakeEnv) Online() bool        { return e.online }
func (e fakeEnv) Focused() bool       { return e.focused }
func (e fakeEnv) TimeZone() string    { return "UTC" }

type fakePlayer struct{}

func (fakePlayer) Play(ctx context.Context, env platform.Env) bool { return true }

func testConfig() config.NotificationConfig {
	return config.NotificationConfig{
		MaxVisible:       4,
		DismissTimeout:   time.Hour,
		SweepInterval:    time.Hour,
		MaxAge:           48 * time.Hour,
		MaxPersistentAge: 168 * time.Hour,
		MaxReadAge:       24 * time.Hour,
	}
}

func newTestManager(t *testing.T, kv kvstore.Store, cfg config.NotificationConfig) *Manager {
	t.Helper()
	logger := zap.NewNop()
	q := queue.NewDeliveryQueue(kv, 3, time.Millisecond, logger)
	m := NewManager("user-1", kv, fakePlayer{}, q, nil, push.NewEventPublisher(nil, logger), cfg, logger)
	t.Cleanup(m.Close)
	return m
}

func onlineEnv() fakeEnv  { return fakeEnv{online: true, focused: true} }
func offlineEnv() fakeEnv { return fakeEnv{online: false, focused: true} }

func show(t *testing.T, m *Manager, title, notifType string) *model.Notification {
	t.Helper()
	record, queued, err := m.Show(context.Background(), onlineEnv(), model.NotificationInput{
		Title:   title,
		Message: "message",
		Type:    notifType,
	})
	require.NoError(t, err)
	require.False(t, queued)
	require.NotNil(t, record)
	return record
}

func TestShowDefaultsTypeToInfo(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())
	record := show(t, m, "Hello", "")
	assert.Equal(t, model.TypeInfo, record.Type)
}

func TestVisibleNewestFirstWithStackIndex(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())
	show(t, m, "first", model.TypeInfo)
	show(t, m, "second", model.TypeInfo)
	show(t, m, "third", model.TypeInfo)

	visible := m.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, "third", visible[0].Title)
	assert.Equal(t, 0, visible[0].StackIndex)
	assert.Equal(t, "first", visible[2].Title)
	assert.Equal(t, 2, visible[2].StackIndex)
}

func TestCapacityEvictsOldestUnread(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		show(t, m, title, model.TypeInfo)
	}

	visible := m.Visible()
	require.Len(t, visible, 4)
	assert.Equal(t, "e", visible[0].Title)
	assert.Equal(t, "b", visible[3].Title)
	// The displaced record's timer must not stay armed.
	assert.Equal(t, 4, m.PendingTimers())
}

func TestGroupReusedForSameTitleAndType(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())
	first := show(t, m, "Task updated", model.TypeInfo)
	second := show(t, m, "Task updated", model.TypeInfo)
	other := show(t, m, "Task updated", model.TypeWarning)

	assert.Equal(t, first.Group, second.Group)
	assert.NotEqual(t, first.Group, other.Group)
}

func TestDismissGroupClearsEveryMember(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())
	first := show(t, m, "Task updated", model.TypeInfo)
	show(t, m, "Task updated", model.TypeInfo)
	show(t, m, "Unrelated", model.TypeInfo)

	assert.Equal(t, 2, m.DismissGroup(context.Background(), first.Group))

	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Unrelated", visible[0].Title)
	assert.Equal(t, 1, m.PendingTimers())
}

func TestDismissUnknownID(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())
	assert.False(t, m.Dismiss(context.Background(), "missing"))
}

func TestPersistentRecordsSkipAutoDismiss(t *testing.T) {
	m := newTestManager(t, kvstore.NewMemoryStore(), testConfig())

	show(t, m, "Something broke", model.TypeError)
	assert.Equal(t, 0, m.PendingTimers())

	show(t, m, "Task Reminder: stand-up", model.TypeInfo)
	assert.Equal(t, 0, m.PendingTimers())

	record, _, err := m.Show(context.Background(), onlineEnv(), model.NotificationInput{
		Title: "Pinned", Message: "m", Type: model.TypeInfo, Persistent: true,
	})
	require.NoError(t, err)
	assert.True(t, record.Persistent)
	assert.Equal(t, 0, m.PendingTimers())

	show(t, m, "Ordinary", model.TypeInfo)
	assert.Equal(t, 1, m.PendingTimers())
}

func TestAutoDismissFires(t *testing.T) {
	cfg := testConfig()
	cfg.DismissTimeout = 20 * time.Millisecond
	m := newTestManager(t, kvstore.NewMemoryStore(), cfg)
	show(t, m, "transient", model.TypeInfo)

	assert.Eventually(t, func() bool {
		return len(m.Visible()) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, m.PendingTimers())
}

func TestOfflineShowQueuesInstead(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	m := newTestManager(t, kv, testConfig())

	record, queued, err := m.Show(context.Background(), offlineEnv(), model.NotificationInput{
		Title: "while offline", Message: "m", Type: model.TypeInfo,
	})
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Nil(t, record)
	assert.Empty(t, m.Visible())

	raw, ok, err := kv.Get(context.Background(), kvstore.KeyNotificationQueue)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "while offline")
}

func TestLoadRestoresPersistedRecords(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	m := newTestManager(t, kv, testConfig())
	show(t, m, "survives reload", model.TypeInfo)
	m.Close()

	reloaded := newTestManager(t, kv, testConfig())
	reloaded.Load(context.Background())

	visible := reloaded.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "survives reload", visible[0].Title)
	assert.Equal(t, 1, reloaded.PendingTimers())
}

func TestLoadMigratesLegacyKey(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	records := []model.Notification{{
		ID:        "legacy-1",
		Title:     "from the old key",
		Type:      model.TypeInfo,
		CreatedAt: time.Now(),
	}}
	raw, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), kvstore.KeyLegacyNotifications, string(raw)))

	m := newTestManager(t, kv, testConfig())
	m.Load(context.Background())

	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "from the old key", visible[0].Title)

	_, ok, err := kv.Get(context.Background(), kvstore.KeyLegacyNotifications)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadAppliesAgeFilter(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	now := time.Now()
	records := []model.Notification{
		{ID: "fresh", Title: "fresh", Type: model.TypeInfo, CreatedAt: now.Add(-time.Hour)},
		{ID: "stale", Title: "stale", Type: model.TypeInfo, CreatedAt: now.Add(-72 * time.Hour)},
		{ID: "old-error", Title: "old error", Type: model.TypeError, Persistent: true, CreatedAt: now.Add(-72 * time.Hour)},
		{ID: "ancient-error", Title: "ancient error", Type: model.TypeError, Persistent: true, CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{ID: "read-old", Title: "read old", Type: model.TypeInfo, Read: true, CreatedAt: now.Add(-30 * time.Hour)},
	}
	raw, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), kvstore.NotificationsKey("user-1"), string(raw)))

	m := newTestManager(t, kv, testConfig())
	m.Load(context.Background())

	visible := m.Visible()
	require.Len(t, visible, 2)
	titles := []string{visible[0].Title, visible[1].Title}
	assert.Contains(t, titles, "fresh")
	assert.Contains(t, titles, "old error")
}

func TestLoadCorruptDataStartsEmpty(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(context.Background(), kvstore.NotificationsKey("user-1"), "[broken"))

	m := newTestManager(t, kv, testConfig())
	m.Load(context.Background())
	assert.Empty(t, m.Visible())
}

func TestClearRemovesEverything(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	m := newTestManager(t, kv, testConfig())
	show(t, m, "will vanish", model.TypeInfo)

	m.Clear(context.Background())

	assert.Empty(t, m.Visible())
	assert.Equal(t, 0, m.PendingTimers())
	_, ok, err := kv.Get(context.Background(), kvstore.NotificationsKey("user-1"))
	require.NoError(t, err)
	assert.False(t, ok)
}
