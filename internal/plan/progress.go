package plan

import (
	"math"
	"sort"

	"health-concierge/backend/internal/models"
)

// DayProgress counts completions on one calendar day
type DayProgress struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Progress summarizes completion state of a single plan. A task counts
// as completed once it has at least one progress entry.
type Progress struct {
	PlanID             string        `json:"plan_id"`
	PlanName           string        `json:"plan_name"`
	Condition          string        `json:"condition"`
	TimelineDays       int           `json:"timeline_days"`
	TotalTasks         int           `json:"total_tasks"`
	CompletedTasks     int           `json:"completed_tasks"`
	ProgressPercentage float64       `json:"progress_percentage"`
	DailyProgress      []DayProgress `json:"daily_progress"`
}

// ComputeProgress derives progress statistics from a plan's task list
func ComputeProgress(p *models.HealthPlan) Progress {
	total := len(p.Tasks)
	started := p.StartedTaskCount()

	byDate := make(map[string]int)
	for i := range p.Tasks {
		for _, date := range p.Tasks[i].Progress {
			byDate[date]++
		}
	}

	daily := make([]DayProgress, 0, len(byDate))
	for date, completed := range byDate {
		daily = append(daily, DayProgress{Date: date, Completed: completed, Total: total})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	var pct float64
	if total > 0 {
		pct = math.Round(float64(started) / float64(total) * 100)
	}

	return Progress{
		PlanID:             p.ID,
		PlanName:           p.PlanName,
		Condition:          p.Condition,
		TimelineDays:       p.TimelineDays,
		TotalTasks:         total,
		CompletedTasks:     started,
		ProgressPercentage: pct,
		DailyProgress:      daily,
	}
}

// Activity is one recent task completion shown on the dashboard
type Activity struct {
	Date     string `json:"date"`
	PlanName string `json:"plan_name"`
	TaskName string `json:"task_name"`
	Type     string `json:"type"`
}

// DashboardSummary aggregates progress across all active plans
type DashboardSummary struct {
	TotalActivePlans int        `json:"total_active_plans"`
	TotalTasks       int        `json:"total_tasks"`
	CompletedTasks   int        `json:"completed_tasks"`
	OverallProgress  float64    `json:"overall_progress"`
	RecentActivity   []Activity `json:"recent_activity"`
}

// Summarize builds the dashboard summary from the active plan set
func Summarize(plans []models.HealthPlan) DashboardSummary {
	summary := DashboardSummary{RecentActivity: []Activity{}}
	if len(plans) == 0 {
		return summary
	}

	for pi := range plans {
		p := &plans[pi]
		summary.TotalActivePlans++
		summary.TotalTasks += len(p.Tasks)
		summary.CompletedTasks += p.StartedTaskCount()

		for ti := range p.Tasks {
			task := &p.Tasks[ti]
			// Last three completions per task
			start := len(task.Progress) - 3
			if start < 0 {
				start = 0
			}
			for _, date := range task.Progress[start:] {
				summary.RecentActivity = append(summary.RecentActivity, Activity{
					Date:     date,
					PlanName: p.PlanName,
					TaskName: task.TaskName,
					Type:     "task_completed",
				})
			}
		}
	}

	sort.SliceStable(summary.RecentActivity, func(i, j int) bool {
		return summary.RecentActivity[i].Date > summary.RecentActivity[j].Date
	})
	if len(summary.RecentActivity) > 10 {
		summary.RecentActivity = summary.RecentActivity[:10]
	}

	if summary.TotalTasks > 0 {
		summary.OverallProgress = math.Round(float64(summary.CompletedTasks)/float64(summary.TotalTasks)*1000) / 10
	}

	return summary
}

// PendingTask is a task not yet completed on a given date
type PendingTask struct {
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`
	TaskName string `json:"task_name"`
}

// PendingOn collects the tasks still open on a date across active plans
func PendingOn(plans []models.HealthPlan, date string) []PendingTask {
	var pending []PendingTask
	for pi := range plans {
		p := &plans[pi]
		for ti := range p.Tasks {
			if !p.Tasks[ti].MarkedOn(date) {
				pending = append(pending, PendingTask{
					PlanID:   p.ID,
					PlanName: p.PlanName,
					TaskName: p.Tasks[ti].TaskName,
				})
			}
		}
	}
	return pending
}
