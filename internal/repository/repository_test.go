package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"health-concierge/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Message{}, &models.HealthPlan{}))
	return db
}

func seedMessages(t *testing.T, repo MessageRepository, sessionID string, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		speaker := "user"
		if i%2 == 1 {
			role = models.RoleAssistant
			speaker = "Ruby"
		}
		msg := &models.Message{
			SessionID: sessionID,
			Role:      role,
			Speaker:   speaker,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, msg))
	}
}

func TestListPageMostRecentFirst(t *testing.T) {
	repo := NewGormMessageRepository(setupTestDB(t))
	seedMessages(t, repo, "s1", 5)

	page, err := repo.ListPage(context.Background(), "s1", 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "message 4", page[0].Content)
	assert.Equal(t, "message 3", page[1].Content)
	assert.Equal(t, "message 2", page[2].Content)
}

func TestListPagePrefixStability(t *testing.T) {
	repo := NewGormMessageRepository(setupTestDB(t))
	seedMessages(t, repo, "s1", 6)
	ctx := context.Background()

	first, err := repo.ListPage(ctx, "s1", 2, 0)
	require.NoError(t, err)
	second, err := repo.ListPage(ctx, "s1", 2, 2)
	require.NoError(t, err)
	combined, err := repo.ListPage(ctx, "s1", 4, 0)
	require.NoError(t, err)

	require.Len(t, combined, 4)
	assert.Equal(t, first[0].ID, combined[0].ID)
	assert.Equal(t, first[1].ID, combined[1].ID)
	assert.Equal(t, second[0].ID, combined[2].ID)
	assert.Equal(t, second[1].ID, combined[3].ID)
}

func TestListRecentChronological(t *testing.T) {
	repo := NewGormMessageRepository(setupTestDB(t))
	seedMessages(t, repo, "s1", 5)

	recent, err := repo.ListRecent(context.Background(), "s1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "message 2", recent[0].Content)
	assert.Equal(t, "message 3", recent[1].Content)
	assert.Equal(t, "message 4", recent[2].Content)
}

func TestListAssistantSince(t *testing.T) {
	repo := NewGormMessageRepository(setupTestDB(t))
	seedMessages(t, repo, "s1", 6)

	msgs, err := repo.ListAssistantSince(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		assert.Equal(t, models.RoleAssistant, m.Role)
	}
}

func TestListSessionsOrderedByActivity(t *testing.T) {
	repo := NewGormMessageRepository(setupTestDB(t))
	ctx := context.Background()
	seedMessages(t, repo, "older", 2)

	later := &models.Message{
		SessionID: "newer",
		Role:      models.RoleUser,
		Speaker:   "user",
		Content:   "hello",
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, later))

	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].SessionID)
	assert.Equal(t, int64(1), sessions[0].MessageCount)
	assert.Equal(t, "older", sessions[1].SessionID)
	assert.Equal(t, int64(2), sessions[1].MessageCount)
}

func TestDeleteSession(t *testing.T) {
	repo := NewGormMessageRepository(setupTestDB(t))
	ctx := context.Background()
	seedMessages(t, repo, "s1", 4)
	seedMessages(t, repo, "s2", 2)

	deleted, err := repo.DeleteSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	count, err := repo.CountBySession(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err = repo.DeleteSession(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func newPlan(sessionID, condition string, tasks ...string) *models.HealthPlan {
	plan := &models.HealthPlan{
		SessionID:    sessionID,
		PlanName:     condition + " Management Plan",
		Condition:    condition,
		TimelineDays: 7,
		Active:       true,
	}
	for _, name := range tasks {
		plan.Tasks = append(plan.Tasks, models.Task{TaskName: name})
	}
	return plan
}

func TestPlanCreateAssignsID(t *testing.T) {
	repo := NewGormPlanRepository(setupTestDB(t))
	plan := newPlan("s1", "Diabetes", "Check glucose")

	require.NoError(t, repo.Create(context.Background(), plan))
	assert.NotEmpty(t, plan.ID)

	got, err := repo.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Diabetes", got.Condition)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "Check glucose", got.Tasks[0].TaskName)
}

func TestFindActiveByConditionCaseInsensitive(t *testing.T) {
	repo := NewGormPlanRepository(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPlan("s1", "Diabetes", "Check glucose")))

	got, err := repo.FindActiveByCondition(ctx, "s1", "diabetes")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Diabetes", got.Condition)

	got, err = repo.FindActiveByCondition(ctx, "s1", "hypertension")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.FindActiveByCondition(ctx, "other-session", "diabetes")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeactivate(t *testing.T) {
	repo := NewGormPlanRepository(setupTestDB(t))
	ctx := context.Background()
	plan := newPlan("s1", "Diabetes", "Check glucose")
	require.NoError(t, repo.Create(ctx, plan))

	require.NoError(t, repo.Deactivate(ctx, plan.ID))

	active, err := repo.ListActiveBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, active)

	got, err := repo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	err = repo.Deactivate(ctx, "no-such-plan")
	assert.Error(t, err)
}

func TestDeactivateBySession(t *testing.T) {
	repo := NewGormPlanRepository(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPlan("s1", "Diabetes", "Check glucose")))
	require.NoError(t, repo.Create(ctx, newPlan("s1", "Back Pain", "Stretch")))
	require.NoError(t, repo.Create(ctx, newPlan("s2", "Insomnia", "No screens after 9pm")))

	n, err := repo.DeactivateBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := repo.ListActiveBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, active)

	other, err := repo.ListActiveBySession(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// Unknown sessions deactivate nothing without erroring.
	n, err = repo.DeactivateBySession(ctx, "s9")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMarkTask(t *testing.T) {
	repo := NewGormPlanRepository(setupTestDB(t))
	ctx := context.Background()
	plan := newPlan("s1", "Diabetes", "Check glucose", "Walk 20 minutes")
	require.NoError(t, repo.Create(ctx, plan))

	found, added, err := repo.MarkTask(ctx, plan.ID, "Check glucose", "2026-03-01")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, added)

	// Marking the same date again is not an error and adds nothing.
	found, added, err = repo.MarkTask(ctx, plan.ID, "Check glucose", "2026-03-01")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, added)

	found, _, err = repo.MarkTask(ctx, plan.ID, "Unknown task", "2026-03-01")
	require.NoError(t, err)
	assert.False(t, found)

	got, err := repo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01"}, got.Tasks[0].Progress)
	assert.Empty(t, got.Tasks[1].Progress)
}

func TestListActiveNewestFirst(t *testing.T) {
	repo := NewGormPlanRepository(setupTestDB(t))
	ctx := context.Background()

	first := newPlan("s1", "Diabetes", "Check glucose")
	first.CreatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, first))

	second := newPlan("s2", "Hypertension", "Measure blood pressure")
	second.CreatedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, second))

	plans, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Hypertension", plans[0].Condition)
	assert.Equal(t, "Diabetes", plans[1].Condition)
}
