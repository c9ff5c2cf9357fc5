package model

// Task status values relevant to reminder scanning
const (
	TaskStatusScheduled = "scheduled"
)

// Task represents the subset of a tasks row the reminder scheduler reads.
// Date is "2006-01-02", StartTime "15:04:05"; both nil when unscheduled.
// ReminderTime is an offset in minutes before the start time; zero is a
// valid value meaning "remind exactly at start time", distinct from the
// reminder being disabled.
type Task struct {
	ID              string  `json:"id" db:"id"`
	UserID          string  `json:"user_id" db:"user_id"`
	Title           string  `json:"title" db:"title"`
	Status          string  `json:"status" db:"status"`
	Date            *string `json:"date" db:"date"`
	StartTime       *string `json:"start_time" db:"start_time"`
	ReminderEnabled bool    `json:"reminder_enabled" db:"reminder_enabled"`
	ReminderTime    float64 `json:"reminder_time" db:"reminder_time"`
}
