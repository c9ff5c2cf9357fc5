package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/queue"
	"github.com/bryancris/tasqi-sub001/internal/reconnect"
)

// QueueFactory returns the loaded delivery queue for a user.
type QueueFactory func(ctx context.Context, userID string) *queue.DeliveryQueue

// QueueService owns queued-notification draining. Each user's device
// gets its own reconnection monitor so one flapping connection cannot
// drain or cool down another's queue.
type QueueService struct {
	queues        QueueFactory
	notifications *NotificationService
	logger        *zap.Logger

	mu       sync.Mutex
	monitors map[string]*reconnect.Monitor
}

// NewQueueService creates a new queue service
func NewQueueService(queues QueueFactory, notifications *NotificationService, logger *zap.Logger) *QueueService {
	return &QueueService{
		queues:        queues,
		notifications: notifications,
		logger:        logger,
		monitors:      make(map[string]*reconnect.Monitor),
	}
}

// Observe records a connectivity sample for the user's device. A stable
// reconnect triggers a queue drain in the background.
func (s *QueueService) Observe(userID string, online bool) {
	s.monitorFor(userID).Observe(online)
}

// Drain synchronously processes the user's queue, re-showing each
// payload now that the device is reachable.
func (s *QueueService) Drain(ctx context.Context, userID string) error {
	deliveryQueue := s.queues(ctx, userID)
	return deliveryQueue.Process(ctx, func(ctx context.Context, input model.NotificationInput) error {
		_, _, err := s.notifications.Show(ctx, userID, reminderEnv{}, input)
		return err
	})
}

// Pending reports how many notifications await delivery for the user.
func (s *QueueService) Pending(ctx context.Context, userID string) int {
	return s.queues(ctx, userID).Len()
}

func (s *QueueService) monitorFor(userID string) *reconnect.Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if monitor, ok := s.monitors[userID]; ok {
		return monitor
	}
	monitor := reconnect.NewMonitor(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.Drain(ctx, userID); err != nil {
			s.logger.Warn("Background queue drain failed", zap.Error(err), zap.String("user_id", userID))
		}
	}, s.logger)
	s.monitors[userID] = monitor
	return monitor
}
