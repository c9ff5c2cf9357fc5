package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/model"
)

// TaskRepository handles database reads for reminder scanning
type TaskRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// GetUpcomingReminderTasks retrieves scheduled tasks with reminders
// enabled, dated today or later. The fine-grained window check happens in
// the scheduler; this query only narrows the candidate set.
func (r *TaskRepository) GetUpcomingReminderTasks(ctx context.Context, userID string) ([]model.Task, error) {
	query := `
		SELECT id, user_id, title, status, date, start_time, reminder_enabled, reminder_time
		FROM tasks
		WHERE user_id = $1
		  AND reminder_enabled = TRUE
		  AND status = 'scheduled'
		  AND date IS NOT NULL
		  AND start_time IS NOT NULL
		  AND date >= CURRENT_DATE`

	var tasks []model.Task
	err := r.db.SelectContext(ctx, &tasks, query, userID)
	if err != nil {
		r.logger.Error("Failed to get upcoming reminder tasks", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}
	return tasks, nil
}

// GetUsersWithReminders retrieves the distinct users owning at least one
// upcoming reminder-enabled task, used to fan the periodic scan out.
func (r *TaskRepository) GetUsersWithReminders(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM tasks
		WHERE reminder_enabled = TRUE
		  AND status = 'scheduled'
		  AND date IS NOT NULL
		  AND date >= CURRENT_DATE`

	var userIDs []string
	err := r.db.SelectContext(ctx, &userIDs, query)
	if err != nil {
		r.logger.Error("Failed to get users with reminders", zap.Error(err))
		return nil, err
	}
	return userIDs, nil
}
