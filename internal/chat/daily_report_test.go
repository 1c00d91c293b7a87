package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
)

func seedReportPlan(t *testing.T, f *fixture, condition string, tasks ...string) *models.HealthPlan {
	t.Helper()
	p := &models.HealthPlan{
		SessionID: "s1",
		PlanName:  condition + " Relief Plan",
		Condition: condition,
		Active:    true,
	}
	for _, name := range tasks {
		p.Tasks = append(p.Tasks, models.Task{TaskName: name})
	}
	require.NoError(t, f.plans.Create(context.Background(), p))
	return p
}

func TestDailyReportRequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.DailyReport(context.Background(), DailyReportRequest{Message: "all done"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestDailyReportMarkAllFlag(t *testing.T) {
	f := newFixture(t)
	seedReportPlan(t, f, "back pain", "Morning stretches", "Evening walk")

	resp, err := f.service.DailyReport(context.Background(), DailyReportRequest{
		SessionID:       "s1",
		Message:         "I did everything on my back pain plan",
		MarkAllComplete: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.UpdatedTasks)
	assert.Contains(t, resp.Message, "Excellent!")

	today := f.now.UTC().Format(models.DateLayout)
	stored, err := f.plans.ListActiveBySession(context.Background(), "s1")
	require.NoError(t, err)
	for _, task := range stored[0].Tasks {
		assert.True(t, task.MarkedOn(today))
	}
}

func TestDailyReportMarkAllPhrase(t *testing.T) {
	f := newFixture(t)
	seedReportPlan(t, f, "back pain", "Morning stretches")

	resp, err := f.service.DailyReport(context.Background(), DailyReportRequest{
		SessionID: "s1",
		Message:   "mark all tasks on my back pain plan",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.UpdatedTasks)
}

func TestDailyReportSpecificCondition(t *testing.T) {
	f := newFixture(t)
	seedReportPlan(t, f, "back pain", "Morning stretches")
	seedReportPlan(t, f, "insomnia", "Screen curfew")

	resp, err := f.service.DailyReport(context.Background(), DailyReportRequest{
		SessionID:             "s1",
		Message:               "mark all done",
		SpecificPlanCondition: "insomnia",
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.UpdatedTasks)
	assert.Equal(t, []string{"Screen curfew"}, resp.TasksMarked)
}

func TestDailyReportMentionedTask(t *testing.T) {
	f := newFixture(t)
	seedReportPlan(t, f, "back pain", "Morning stretches", "Evening walk")

	resp, err := f.service.DailyReport(context.Background(), DailyReportRequest{
		SessionID: "s1",
		Message:   "I finished my stretches today",
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.UpdatedTasks)
	assert.Equal(t, []string{"Morning stretches"}, resp.TasksMarked)
}

func TestDailyReportNoCompletionSignal(t *testing.T) {
	f := newFixture(t)
	seedReportPlan(t, f, "back pain", "Morning stretches")

	resp, err := f.service.DailyReport(context.Background(), DailyReportRequest{
		SessionID: "s1",
		Message:   "today was hard, I skipped my plan",
	})
	require.NoError(t, err)
	assert.Zero(t, resp.UpdatedTasks)
	assert.Contains(t, resp.Message, "consistency is key")
}
