package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-concierge/backend/internal/models"
)

func TestComputeProgress(t *testing.T) {
	p := &models.HealthPlan{
		ID:           "p1",
		PlanName:     "Back Pain Relief Plan",
		Condition:    "back pain",
		TimelineDays: 7,
		Tasks: []models.Task{
			{TaskName: "Stretch", Progress: []string{"2026-03-01", "2026-03-02"}},
			{TaskName: "Walk", Progress: []string{"2026-03-02"}},
			{TaskName: "Ice pack", Progress: []string{}},
		},
	}

	got := ComputeProgress(p)
	assert.Equal(t, 3, got.TotalTasks)
	assert.Equal(t, 2, got.CompletedTasks)
	assert.Equal(t, float64(67), got.ProgressPercentage)

	require.Len(t, got.DailyProgress, 2)
	assert.Equal(t, DayProgress{Date: "2026-03-01", Completed: 1, Total: 3}, got.DailyProgress[0])
	assert.Equal(t, DayProgress{Date: "2026-03-02", Completed: 2, Total: 3}, got.DailyProgress[1])
}

func TestComputeProgressEmptyPlan(t *testing.T) {
	got := ComputeProgress(&models.HealthPlan{ID: "p1"})
	assert.Equal(t, 0, got.TotalTasks)
	assert.Equal(t, float64(0), got.ProgressPercentage)
	assert.Empty(t, got.DailyProgress)
}

func TestSummarize(t *testing.T) {
	plans := []models.HealthPlan{
		{
			PlanName: "Back Pain Relief Plan",
			Tasks: []models.Task{
				{TaskName: "Stretch", Progress: []string{"2026-03-01", "2026-03-02", "2026-03-03", "2026-03-04"}},
				{TaskName: "Walk", Progress: []string{"2026-03-05"}},
			},
		},
		{
			PlanName: "Stress Management Plan",
			Tasks: []models.Task{
				{TaskName: "Meditate", Progress: []string{}},
				{TaskName: "Journal", Progress: []string{"2026-03-06"}},
			},
		},
	}

	got := Summarize(plans)
	assert.Equal(t, 2, got.TotalActivePlans)
	assert.Equal(t, 4, got.TotalTasks)
	assert.Equal(t, 3, got.CompletedTasks)
	assert.Equal(t, 75.0, got.OverallProgress)

	// Last three entries per task only, newest dates first.
	require.Len(t, got.RecentActivity, 5)
	assert.Equal(t, "2026-03-06", got.RecentActivity[0].Date)
	assert.Equal(t, "Journal", got.RecentActivity[0].TaskName)
	assert.Equal(t, "2026-03-05", got.RecentActivity[1].Date)
	assert.Equal(t, "2026-03-04", got.RecentActivity[2].Date)
	assert.Equal(t, "2026-03-02", got.RecentActivity[4].Date)
	for _, a := range got.RecentActivity {
		assert.Equal(t, "task_completed", a.Type)
	}
}

func TestSummarizeCapsActivityAtTen(t *testing.T) {
	var tasks []models.Task
	for i := 0; i < 6; i++ {
		tasks = append(tasks, models.Task{
			TaskName: "Task",
			Progress: []string{"2026-03-01", "2026-03-02", "2026-03-03"},
		})
	}
	got := Summarize([]models.HealthPlan{{PlanName: "Plan", Tasks: tasks}})
	assert.Len(t, got.RecentActivity, 10)
}

func TestSummarizeRoundsToOneDecimal(t *testing.T) {
	plans := []models.HealthPlan{{
		PlanName: "Plan",
		Tasks: []models.Task{
			{TaskName: "A", Progress: []string{"2026-03-01"}},
			{TaskName: "B"},
			{TaskName: "C"},
		},
	}}
	got := Summarize(plans)
	assert.Equal(t, 33.3, got.OverallProgress)
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	assert.Equal(t, 0, got.TotalActivePlans)
	assert.Equal(t, 0.0, got.OverallProgress)
	assert.NotNil(t, got.RecentActivity)
	assert.Empty(t, got.RecentActivity)
}

func TestPendingOn(t *testing.T) {
	plans := []models.HealthPlan{
		{
			ID:       "p1",
			PlanName: "Back Pain Relief Plan",
			Tasks: []models.Task{
				{TaskName: "Stretch", Progress: []string{"2026-03-01"}},
				{TaskName: "Walk", Progress: []string{"2026-02-28"}},
			},
		},
	}

	pending := PendingOn(plans, "2026-03-01")
	require.Len(t, pending, 1)
	assert.Equal(t, "Walk", pending[0].TaskName)
	assert.Equal(t, "p1", pending[0].PlanID)

	assert.Empty(t, PendingOn(nil, "2026-03-01"))
}
