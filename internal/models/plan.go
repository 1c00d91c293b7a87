package models

import (
	"time"
)

// DateLayout is the calendar-day format used for task progress entries
const DateLayout = "2006-01-02"

// Timeline bounds for generated plans
const (
	MinTimelineDays = 1
	MaxTimelineDays = 7
)

// Task is a single actionable item inside a health plan. Progress holds the
// set of dates the task was completed on, in DateLayout format.
type Task struct {
	TaskName string   `json:"task_name"`
	Progress []string `json:"progress"`
}

// MarkedOn reports whether the task was completed on the given date
func (t *Task) MarkedOn(date string) bool {
	for _, d := range t.Progress {
		if d == date {
			return true
		}
	}
	return false
}

// Mark records a completion for the given date. Marking the same date
// twice is a no-op; it reports whether the entry was added.
func (t *Task) Mark(date string) bool {
	if t.MarkedOn(date) {
		return false
	}
	t.Progress = append(t.Progress, date)
	return true
}

// Started reports whether the task has at least one completion
func (t *Task) Started() bool {
	return len(t.Progress) > 0
}

// HealthPlan is a condition-specific plan with a task list and a bounded
// timeline. Tasks are stored as a JSON column on the plan row.
type HealthPlan struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	SessionID    string    `json:"session_id" gorm:"index;not null"`
	PlanName     string    `json:"plan_name" gorm:"not null"`
	Condition    string    `json:"condition" gorm:"not null"`
	TimelineDays int       `json:"timeline_days"`
	Tasks        []Task    `json:"tasks" gorm:"serializer:json"`
	Active       bool      `json:"active" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName overrides the table name used by GORM
func (HealthPlan) TableName() string {
	return "health_plans"
}

// StartedTaskCount returns the number of tasks with at least one completion
func (p *HealthPlan) StartedTaskCount() int {
	n := 0
	for i := range p.Tasks {
		if p.Tasks[i].Started() {
			n++
		}
	}
	return n
}

// PendingTasksOn returns the tasks not yet completed on the given date
func (p *HealthPlan) PendingTasksOn(date string) []Task {
	var pending []Task
	for i := range p.Tasks {
		if !p.Tasks[i].MarkedOn(date) {
			pending = append(pending, p.Tasks[i])
		}
	}
	return pending
}

// ClampTimeline bounds a requested timeline to the supported range
func ClampTimeline(days int) int {
	if days < MinTimelineDays {
		return MinTimelineDays
	}
	if days > MaxTimelineDays {
		return MaxTimelineDays
	}
	return days
}
