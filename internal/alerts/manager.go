// Package alerts owns the in-app alert lifecycle: grouping, capacity,
// auto-dismiss timers, persistence across reloads, and age pruning.
package alerts

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/config"
	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/platform"
	"github.com/bryancris/tasqi-sub001/internal/push"
	"github.com/bryancris/tasqi-sub001/internal/queue"
)

// Task reminders stay on screen until acted on, like errors.
var taskReminderPattern = regexp.MustCompile(`(?i)task reminder`)

// CuePlayer plays the notification sound best effort.
type CuePlayer interface {
	Play(ctx context.Context, env platform.Env) bool
}

// SystemNotifier attempts a system-level (push) notification.
type SystemNotifier interface {
	Send(ctx context.Context, payload model.PushPayload) (*model.PushResult, error)
}

// Manager is the per-user alert state machine. All mutations run under
// one mutex over the in-memory snapshot and persist before returning,
// so the stored list never lags the visible one.
type Manager struct {
	userID string
	kv     kvstore.Store
	player CuePlayer
	queue  *queue.DeliveryQueue
	pusher SystemNotifier
	events *push.EventPublisher
	cfg    config.NotificationConfig
	logger *zap.Logger

	mu      sync.Mutex
	records []model.Notification
	timers  map[string]*time.Timer

	sweepCancel context.CancelFunc
}

// NewManager creates an alert manager for one user. Pass an empty user
// id for the anonymous (logged-out) slot.
func NewManager(userID string, kv kvstore.Store, player CuePlayer, deliveryQueue *queue.DeliveryQueue, pusher SystemNotifier, events *push.EventPublisher, cfg config.NotificationConfig, logger *zap.Logger) *Manager {
	return &Manager{
		userID: userID,
		kv:     kv,
		player: player,
		queue:  deliveryQueue,
		pusher: pusher,
		events: events,
		cfg:    cfg,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Show creates and displays a notification, or queues it when the
// device is offline. The returned record is nil when queued.
func (m *Manager) Show(ctx context.Context, env platform.Env, input model.NotificationInput) (*model.Notification, bool, error) {
	if input.Type == "" {
		input.Type = model.TypeInfo
	}

	if env != nil && !env.Online() {
		m.queue.Enqueue(ctx, input)
		m.events.Publish(push.Event{
			Kind:   "queued",
			UserID: m.userID,
			Title:  input.Title,
			Type:   input.Type,
		})
		return nil, true, nil
	}

	record := model.Notification{
		ID:            uuid.NewString(),
		UserID:        m.userID,
		Title:         input.Title,
		Message:       input.Message,
		Type:          input.Type,
		CreatedAt:     time.Now(),
		ReferenceID:   input.ReferenceID,
		ReferenceType: input.ReferenceType,
		Persistent:    isPersistent(input),
	}

	// Sound and system push are side effects that must never delay or
	// block the visible alert.
	go func() {
		playCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.player.Play(playCtx, env)
	}()
	if env != nil && !env.Focused() && m.pusher != nil {
		go m.attemptSystemPush(record)
	}

	m.mu.Lock()
	record.Group = m.groupForLocked(record.Title, record.Type)
	m.evictAtCapacityLocked(ctx)
	m.records = append(m.records, record)
	if !record.Persistent {
		m.scheduleDismissLocked(ctx, record.ID)
	}
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.events.Publish(push.Event{
		Kind:   "shown",
		UserID: m.userID,
		ID:     record.ID,
		Group:  record.Group,
		Title:  record.Title,
		Type:   record.Type,
	})
	return &record, false, nil
}

// Dismiss marks a single notification read and clears its timer.
func (m *Manager) Dismiss(ctx context.Context, id string) bool {
	m.mu.Lock()
	found := false
	for i := range m.records {
		if m.records[i].ID == id && !m.records[i].Read {
			m.records[i].Read = true
			m.clearTimerLocked(id)
			found = true
			break
		}
	}
	if found {
		m.persistLocked(ctx)
	}
	m.mu.Unlock()

	if found {
		m.events.Publish(push.Event{Kind: "dismissed", UserID: m.userID, ID: id})
	}
	return found
}

// DismissGroup marks every notification sharing a group read in one
// operation, clearing all their timers.
func (m *Manager) DismissGroup(ctx context.Context, group string) int {
	m.mu.Lock()
	count := 0
	for i := range m.records {
		if m.records[i].Group == group && !m.records[i].Read {
			m.records[i].Read = true
			m.clearTimerLocked(m.records[i].ID)
			count++
		}
	}
	if count > 0 {
		m.persistLocked(ctx)
	}
	m.mu.Unlock()

	if count > 0 {
		m.events.Publish(push.Event{Kind: "group_dismissed", UserID: m.userID, Group: group})
	}
	return count
}

// Visible returns the unread records newest first, each carrying its
// stack index for cascade rendering.
func (m *Manager) Visible() []model.VisibleNotification {
	m.mu.Lock()
	defer m.mu.Unlock()

	visible := make([]model.VisibleNotification, 0, m.cfg.MaxVisible)
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].Read {
			continue
		}
		visible = append(visible, model.VisibleNotification{
			Notification: m.records[i],
			StackIndex:   len(visible),
		})
	}
	return visible
}

// Load restores persisted notifications, applying the age filter and
// re-arming auto-dismiss timers for surviving non-persistent records.
// Corrupt data loads as an empty list.
func (m *Manager) Load(ctx context.Context) {
	raw, ok, err := m.kv.Get(ctx, kvstore.NotificationsKey(m.userID))
	if err != nil {
		m.logger.Warn("Failed to read persisted notifications", zap.Error(err))
		return
	}
	if !ok {
		raw, ok = m.loadLegacy(ctx)
		if !ok {
			return
		}
	}

	var records []model.Notification
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		m.logger.Warn("Corrupt persisted notifications, starting empty", zap.Error(err))
		return
	}

	m.mu.Lock()
	m.records = filterByAge(records, m.cfg, time.Now())
	for _, record := range m.records {
		if !record.Read && !record.Persistent {
			m.scheduleDismissLocked(ctx, record.ID)
		}
	}
	m.persistLocked(ctx)
	m.mu.Unlock()
}

// loadLegacy migrates the flat key written by the earlier notification
// handler into the per-user slot.
func (m *Manager) loadLegacy(ctx context.Context) (string, bool) {
	if m.userID == "" {
		return "", false
	}
	raw, ok, err := m.kv.Get(ctx, kvstore.KeyLegacyNotifications)
	if err != nil || !ok {
		return "", false
	}
	if err := m.kv.Delete(ctx, kvstore.KeyLegacyNotifications); err != nil {
		m.logger.Warn("Failed to remove legacy notification key", zap.Error(err))
	}
	m.logger.Info("Migrated legacy persisted notifications", zap.String("user_id", m.userID))
	return raw, true
}

// Prune re-applies the age filter to the in-memory list.
func (m *Manager) Prune(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := filterByAge(m.records, m.cfg, time.Now())
	if len(kept) == len(m.records) {
		return
	}

	surviving := make(map[string]bool, len(kept))
	for _, record := range kept {
		surviving[record.ID] = true
	}
	for id := range m.timers {
		if !surviving[id] {
			m.clearTimerLocked(id)
		}
	}

	m.records = kept
	m.persistLocked(ctx)
}

// StartSweep runs the periodic prune until the context is cancelled.
func (m *Manager) StartSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.sweepCancel = cancel
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				m.Prune(sweepCtx)
			}
		}
	}()
}

// Clear drops every record and the persisted entry, stopping all
// timers. Used on logout so nothing crosses the user boundary.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	for id := range m.timers {
		m.clearTimerLocked(id)
	}
	m.records = nil
	m.mu.Unlock()

	if err := m.kv.Delete(ctx, kvstore.NotificationsKey(m.userID)); err != nil {
		m.logger.Warn("Failed to remove persisted notifications", zap.Error(err))
	}
}

// Close stops the sweep loop and every pending auto-dismiss timer.
// Leaving a timer armed past teardown is a resource leak.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sweepCancel != nil {
		m.sweepCancel()
	}
	for id := range m.timers {
		m.clearTimerLocked(id)
	}
}

// PendingTimers reports how many auto-dismiss timers are armed.
func (m *Manager) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// attemptSystemPush fires a best-effort push when the app lacks focus.
func (m *Manager) attemptSystemPush(record model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := map[string]string{"notification_id": record.ID}
	if record.ReferenceID != nil {
		data["reference_id"] = *record.ReferenceID
	}
	if record.ReferenceType != nil {
		data["reference_type"] = *record.ReferenceType
	}

	_, err := m.pusher.Send(ctx, model.PushPayload{
		UserID: m.userID,
		Title:  record.Title,
		Body:   record.Message,
		Data:   data,
	})
	if err != nil {
		m.logger.Debug("System push attempt failed", zap.Error(err), zap.String("id", record.ID))
	}
}

// groupForLocked reuses the group of the most recent unread record with
// the same title and type so identical alerts stack instead of
// duplicating chrome. Callers hold m.mu.
func (m *Manager) groupForLocked(title, notifType string) string {
	for i := len(m.records) - 1; i >= 0; i-- {
		record := m.records[i]
		if !record.Read && record.Title == title && record.Type == notifType {
			return record.Group
		}
	}
	return uuid.NewString()
}

// evictAtCapacityLocked displaces the oldest unread record once the
// visible set is full, clearing its timer. Callers hold m.mu.
func (m *Manager) evictAtCapacityLocked(ctx context.Context) {
	unread := 0
	oldest := -1
	for i := range m.records {
		if m.records[i].Read {
			continue
		}
		unread++
		if oldest < 0 {
			oldest = i
		}
	}
	if unread < m.cfg.MaxVisible || oldest < 0 {
		return
	}
	m.records[oldest].Read = true
	m.clearTimerLocked(m.records[oldest].ID)
}

// scheduleDismissLocked arms the auto-dismiss timer. Callers hold m.mu.
func (m *Manager) scheduleDismissLocked(ctx context.Context, id string) {
	m.timers[id] = time.AfterFunc(m.cfg.DismissTimeout, func() {
		m.Dismiss(context.Background(), id)
	})
}

// clearTimerLocked stops and forgets a timer handle. Callers hold m.mu.
func (m *Manager) clearTimerLocked(id string) {
	if timer, ok := m.timers[id]; ok {
		timer.Stop()
		delete(m.timers, id)
	}
}

// persistLocked serializes the full list, including recently read
// records, for display continuity across reloads. Callers hold m.mu.
func (m *Manager) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(m.records)
	if err != nil {
		m.logger.Warn("Failed to marshal notifications", zap.Error(err))
		return
	}
	if err := m.kv.Set(ctx, kvstore.NotificationsKey(m.userID), string(raw)); err != nil {
		m.logger.Warn("Failed to persist notifications", zap.Error(err))
	}
}

// isPersistent decides auto-dismiss exemption: errors, task reminders,
// and explicit requests stay until acted on.
func isPersistent(input model.NotificationInput) bool {
	if input.Persistent || input.Type == model.TypeError {
		return true
	}
	return taskReminderPattern.MatchString(input.Title)
}

// filterByAge keeps unread records younger than their persistence-
// dependent threshold and read records younger than the read threshold.
func filterByAge(records []model.Notification, cfg config.NotificationConfig, now time.Time) []model.Notification {
	kept := make([]model.Notification, 0, len(records))
	for _, record := range records {
		age := now.Sub(record.CreatedAt)
		switch {
		case !record.Read && record.Persistent:
			if age < cfg.MaxPersistentAge {
				kept = append(kept, record)
			}
		case !record.Read:
			if age < cfg.MaxAge {
				kept = append(kept, record)
			}
		default:
			if age < cfg.MaxReadAge {
				kept = append(kept, record)
			}
		}
	}
	return kept
}
