// Package queue is the durable best-effort delivery queue for
// notification payloads that failed immediate delivery, typically while
// the device was offline.
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/kvstore"
	"github.com/bryancris/tasqi-sub001/internal/model"
)

// Sender attempts delivery of one queued payload.
type Sender func(ctx context.Context, notification model.NotificationInput) error

// DeliveryQueue persists undelivered notifications and drains them FIFO
// once connectivity returns. Items exceeding the retry budget are
// dropped; a client-side best-effort queue accepts that data loss rather
// than retrying forever.
type DeliveryQueue struct {
	kv     kvstore.Store
	logger *zap.Logger

	maxRetries int
	retryDelay time.Duration

	mu    sync.Mutex
	items []model.QueuedNotification
}

// NewDeliveryQueue creates a queue over the device-local store.
func NewDeliveryQueue(kv kvstore.Store, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *DeliveryQueue {
	return &DeliveryQueue{
		kv:         kv,
		logger:     logger,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Load restores the persisted queue. Corrupt or missing data yields an
// empty queue, never an error.
func (q *DeliveryQueue) Load(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	raw, ok, err := q.kv.Get(ctx, kvstore.KeyNotificationQueue)
	if err != nil || !ok {
		if err != nil {
			q.logger.Warn("Failed to read notification queue, starting empty", zap.Error(err))
		}
		q.items = nil
		return
	}

	var items []model.QueuedNotification
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		q.logger.Warn("Corrupt notification queue, starting empty", zap.Error(err))
		q.items = nil
		return
	}
	q.items = items
}

// Enqueue appends a payload and persists the new queue.
func (q *DeliveryQueue) Enqueue(ctx context.Context, notification model.NotificationInput) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, model.QueuedNotification{
		ID:           uuid.NewString(),
		Notification: notification,
		Timestamp:    time.Now(),
	})
	q.persist(ctx)
}

// Len reports the number of queued items.
func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Process drains the queue strictly FIFO, one item at a time, invoking
// the sender for each. A failed item waits the retry delay and is tried
// again in place; once it has failed maxRetries times it is dropped.
// The queue is persisted after every pop or counter bump so a crash
// mid-drain resumes where it left off.
func (q *DeliveryQueue) Process(ctx context.Context, sender Sender) error {
	wait := backoff.NewConstantBackOff(q.retryDelay)

	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return nil
		}
		item := q.items[0]
		q.mu.Unlock()

		err := sender(ctx, item.Notification)
		if err == nil {
			q.pop(ctx)
			continue
		}

		q.mu.Lock()
		q.items[0].Retries++
		retries := q.items[0].Retries
		q.persist(ctx)
		q.mu.Unlock()

		if retries >= q.maxRetries {
			q.logger.Warn("Dropping notification after retry exhaustion",
				zap.String("id", item.ID),
				zap.String("title", item.Notification.Title),
				zap.Int("retries", retries))
			q.pop(ctx)
			continue
		}

		q.logger.Debug("Notification delivery failed, will retry",
			zap.Error(err),
			zap.String("id", item.ID),
			zap.Int("retries", retries))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait.NextBackOff()):
		}
	}
}

// pop removes the head item and persists the shortened queue.
func (q *DeliveryQueue) pop(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
	q.persist(ctx)
}

// persist writes the queue back to the store. Callers hold q.mu.
func (q *DeliveryQueue) persist(ctx context.Context) {
	if len(q.items) == 0 {
		if err := q.kv.Delete(ctx, kvstore.KeyNotificationQueue); err != nil {
			q.logger.Warn("Failed to clear notification queue", zap.Error(err))
		}
		return
	}

	raw, err := json.Marshal(q.items)
	if err != nil {
		q.logger.Warn("Failed to marshal notification queue", zap.Error(err))
		return
	}
	if err := q.kv.Set(ctx, kvstore.KeyNotificationQueue, string(raw)); err != nil {
		q.logger.Warn("Failed to persist notification queue", zap.Error(err))
	}
}
