// Package reminder decides when an upcoming task must surface an alert,
// given per-task reminder offsets and the user's time zone.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
)

// The fire window is half a minute wide on each side of the configured
// offset, absorbing scan jitter without double-firing.
const windowHalfWidth = 0.5

// NotifiedSet remembers task ids whose reminder already fired so a
// reminder instance is never re-fired by later scans.
type NotifiedSet struct {
	mu  sync.Mutex
	ids map[string]bool
}

// NewNotifiedSet creates an empty set.
func NewNotifiedSet() *NotifiedSet {
	return &NotifiedSet{ids: make(map[string]bool)}
}

// Contains reports whether a task id was already notified.
func (s *NotifiedSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Add marks a task id notified.
func (s *NotifiedSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = true
}

// FireFunc surfaces one task reminder. A confirmed (error-free) fire
// adds the task to the notified set.
type FireFunc func(ctx context.Context, task model.Task, minutesUntil float64) error

// Scheduler scans task lists for reminders due now. The debounce is a
// rate limit, not a mutex: it suppresses redundant near-simultaneous
// scans but does not serialize slow ones.
type Scheduler struct {
	fire     FireFunc
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	lastScan time.Time
}

// NewScheduler creates a scheduler firing reminders through fire.
func NewScheduler(fire FireFunc, debounce time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		fire:     fire,
		debounce: debounce,
		logger:   logger,
	}
}

// Check scans the tasks and fires any reminder whose window contains
// now. Errors in a single task's processing never abort the scan.
func (s *Scheduler) Check(ctx context.Context, tasks []model.Task, notified *NotifiedSet, loc *time.Location) {
	s.mu.Lock()
	if time.Since(s.lastScan) < s.debounce {
		s.mu.Unlock()
		return
	}
	s.lastScan = time.Now()
	s.mu.Unlock()

	now := time.Now()
	for _, task := range tasks {
		if err := s.checkTask(ctx, task, notified, loc, now); err != nil {
			s.logger.Warn("Reminder check failed for task",
				zap.Error(err),
				zap.String("task_id", task.ID))
		}
	}
}

func (s *Scheduler) checkTask(ctx context.Context, task model.Task, notified *NotifiedSet, loc *time.Location, now time.Time) error {
	if !task.ReminderEnabled || notified.Contains(task.ID) {
		return nil
	}
	if task.Status != model.TaskStatusScheduled || task.Date == nil || task.StartTime == nil {
		return nil
	}

	taskTime, err := resolveTaskTime(task, loc)
	if err != nil {
		return err
	}

	// Past-dated tasks are never reminded. "Today" starts at midnight in
	// the user's zone, not at the UTC day boundary.
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := now.In(loc).Date()
	if taskTime.Before(time.Date(y, mo, d, 0, 0, 0, 0, loc)) {
		return nil
	}

	minutesUntil := taskTime.Sub(now).Minutes()

	// reminder_time 0 means "exactly at start time" and is as valid as
	// any other offset; only the window math may read it. Any truthy
	// check or defaulting here silently disables at-start reminders.
	offset := task.ReminderTime
	windowStart := offset + windowHalfWidth
	windowEnd := offset - windowHalfWidth
	if !(minutesUntil > windowEnd && minutesUntil <= windowStart) {
		return nil
	}

	if err := s.fire(ctx, task, minutesUntil); err != nil {
		return fmt.Errorf("firing reminder: %w", err)
	}
	notified.Add(task.ID)

	s.logger.Info("Task reminder fired",
		zap.String("task_id", task.ID),
		zap.Float64("reminder_time", offset),
		zap.Float64("minutes_until", minutesUntil))
	return nil
}

// resolveTaskTime combines the task's date and start time in the user's
// zone. Seconds in the start time are optional.
func resolveTaskTime(task model.Task, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	stamp := *task.Date + " " + *task.StartTime
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, stamp, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable task time %q", stamp)
}
