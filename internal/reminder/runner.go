package reminder

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
	"github.com/bryancris/tasqi-sub001/internal/repository"
)

// ZoneResolver maps a user onto their detected IANA time zone.
type ZoneResolver interface {
	Zone(ctx context.Context, userID string) *time.Location
}

// Alerter surfaces a reminder alert for a user.
type Alerter interface {
	ShowReminder(ctx context.Context, userID string, input model.NotificationInput) error
}

// Runner periodically fans the reminder scan out over every user owning
// upcoming reminder-enabled tasks, one scheduler and notified-set pair
// per user.
type Runner struct {
	tasks    *repository.TaskRepository
	alerter  Alerter
	zones    ZoneResolver
	interval time.Duration
	debounce time.Duration
	logger   *zap.Logger

	schedulers map[string]*Scheduler
	notified   map[string]*NotifiedSet
}

// NewRunner creates a reminder runner.
func NewRunner(tasks *repository.TaskRepository, alerter Alerter, zones ZoneResolver, interval, debounce time.Duration, logger *zap.Logger) *Runner {
	return &Runner{
		tasks:      tasks,
		alerter:    alerter,
		zones:      zones,
		interval:   interval,
		debounce:   debounce,
		logger:     logger,
		schedulers: make(map[string]*Scheduler),
		notified:   make(map[string]*NotifiedSet),
	}
}

// Run scans on the configured interval until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scan(ctx)
		}
	}
}

// scan runs one pass over every user with upcoming reminders.
func (r *Runner) scan(ctx context.Context) {
	userIDs, err := r.tasks.GetUsersWithReminders(ctx)
	if err != nil {
		r.logger.Warn("Reminder scan skipped, user query failed", zap.Error(err))
		return
	}

	for _, userID := range userIDs {
		tasks, err := r.tasks.GetUpcomingReminderTasks(ctx, userID)
		if err != nil {
			continue
		}
		r.schedulerFor(userID).Check(ctx, tasks, r.notifiedFor(userID), r.zones.Zone(ctx, userID))
	}
}

func (r *Runner) schedulerFor(userID string) *Scheduler {
	if s, ok := r.schedulers[userID]; ok {
		return s
	}
	s := NewScheduler(r.fireFor(userID), r.debounce, r.logger)
	r.schedulers[userID] = s
	return s
}

func (r *Runner) notifiedFor(userID string) *NotifiedSet {
	if set, ok := r.notified[userID]; ok {
		return set
	}
	set := NewNotifiedSet()
	r.notified[userID] = set
	return set
}

// fireFor builds the FireFunc delegating to the alert manager with the
// task reference attached.
func (r *Runner) fireFor(userID string) FireFunc {
	return func(ctx context.Context, task model.Task, minutesUntil float64) error {
		referenceType := "task"
		taskID := task.ID
		return r.alerter.ShowReminder(ctx, userID, model.NotificationInput{
			Title:         "Task Reminder: " + task.Title,
			Message:       reminderMessage(minutesUntil),
			Type:          model.TypeInfo,
			ReferenceID:   &taskID,
			ReferenceType: &referenceType,
		})
	}
}

func reminderMessage(minutesUntil float64) string {
	if minutesUntil <= windowHalfWidth {
		return "Your task is starting now"
	}
	minutes := int(minutesUntil + 0.5)
	if minutes == 1 {
		return "Your task starts in 1 minute"
	}
	return "Your task starts in " + strconv.Itoa(minutes) + " minutes"
}
