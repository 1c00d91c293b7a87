package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/oracle"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/resilience"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func testBreaker(log *logger.Logger) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("test"), log)
}

// fakePlanRepo is an in-memory PlanRepository for engine tests
type fakePlanRepo struct {
	plans  map[string]*models.HealthPlan
	nextID int
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[string]*models.HealthPlan)}
}

func (r *fakePlanRepo) Create(_ context.Context, p *models.HealthPlan) error {
	r.nextID++
	p.ID = fmt.Sprintf("plan-%d", r.nextID)
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) Update(_ context.Context, p *models.HealthPlan) error {
	if _, ok := r.plans[p.ID]; !ok {
		return apperrors.NewNotFoundError("plan not found")
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id string) (*models.HealthPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) ListActive(_ context.Context) ([]models.HealthPlan, error) {
	var out []models.HealthPlan
	for _, p := range r.plans {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) ListActiveBySession(_ context.Context, sessionID string) ([]models.HealthPlan, error) {
	var out []models.HealthPlan
	for _, p := range r.plans {
		if p.Active && p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) FindActiveByCondition(_ context.Context, sessionID, condition string) (*models.HealthPlan, error) {
	for _, p := range r.plans {
		if p.Active && p.SessionID == sessionID && strings.EqualFold(p.Condition, condition) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) Deactivate(_ context.Context, id string) error {
	p, ok := r.plans[id]
	if !ok {
		return apperrors.NewNotFoundError("plan not found")
	}
	p.Active = false
	return nil
}

func (r *fakePlanRepo) DeactivateBySession(_ context.Context, sessionID string) (int64, error) {
	var n int64
	for _, p := range r.plans {
		if p.Active && p.SessionID == sessionID {
			p.Active = false
			n++
		}
	}
	return n, nil
}

func (r *fakePlanRepo) MarkTask(_ context.Context, planID, taskName, date string) (bool, bool, error) {
	p, ok := r.plans[planID]
	if !ok {
		return false, false, apperrors.NewNotFoundError("plan not found")
	}
	for i := range p.Tasks {
		if p.Tasks[i].TaskName == taskName {
			return true, p.Tasks[i].Mark(date), nil
		}
	}
	return false, false, nil
}

// fakeOracle scripts oracle responses for tests
type fakeOracle struct {
	draft    *oracle.PlanDraft
	draftErr error
	reply    string
	replyErr error
	label    string
	labelErr error

	detectCalls int
}

func (f *fakeOracle) Complete(context.Context, oracle.CompletionRequest) (string, error) {
	return f.reply, f.replyErr
}

func (f *fakeOracle) Classify(context.Context, string, []string) (string, error) {
	return f.label, f.labelErr
}

func (f *fakeOracle) DetectPlan(context.Context, string, string) (*oracle.PlanDraft, error) {
	f.detectCalls++
	return f.draft, f.draftErr
}

func backPainDraft() *oracle.PlanDraft {
	return &oracle.PlanDraft{
		NeedsPlan:    true,
		Condition:    "back pain",
		PlanName:     "Back Pain Relief Plan",
		TimelineDays: 3,
		Tasks:        []string{"Day 1: Stretch", "Day 2: Walk", "Day 3: Strengthen"},
	}
}

func TestProcessMessageCreatesPlan(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	ora := &fakeOracle{draft: backPainDraft()}
	engine := NewEngine(repo, ora, testBreaker(log), log)

	out, err := engine.ProcessMessage(context.Background(), "s1", "my back pain is getting worse", "")
	require.NoError(t, err)
	assert.True(t, out.Created)
	require.NotNil(t, out.Plan)
	assert.True(t, out.Plan.Active)
	assert.Equal(t, "back pain", out.Plan.Condition)
	assert.Len(t, out.Plan.Tasks, 3)
}

func TestProcessMessageSkipsProgressRequests(t *testing.T) {
	log := testLogger()
	ora := &fakeOracle{draft: backPainDraft()}
	engine := NewEngine(newFakePlanRepo(), ora, testBreaker(log), log)

	out, err := engine.ProcessMessage(context.Background(), "s1", "mark my back pain tasks as done", "")
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Nil(t, out.Plan)
	assert.Zero(t, ora.detectCalls)
}

func TestProcessMessageReusesExistingPlan(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	ora := &fakeOracle{draft: backPainDraft()}
	engine := NewEngine(repo, ora, testBreaker(log), log)
	ctx := context.Background()

	first, err := engine.CreateFromDraft(ctx, "s1", backPainDraft())
	require.NoError(t, err)

	out, err := engine.ProcessMessage(ctx, "s1", "my back still hurts a lot", "")
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.True(t, out.Existing)
	require.NotNil(t, out.Plan)
	assert.Equal(t, first.ID, out.Plan.ID)
	assert.Zero(t, ora.detectCalls)
}

func TestProcessMessageNoPlanNeeded(t *testing.T) {
	log := testLogger()
	ora := &fakeOracle{draft: &oracle.PlanDraft{NeedsPlan: false, Reason: "general question"}}
	engine := NewEngine(newFakePlanRepo(), ora, testBreaker(log), log)

	out, err := engine.ProcessMessage(context.Background(), "s1", "how do vitamins work?", "")
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Nil(t, out.Plan)
}

func TestProcessMessageOracleFailure(t *testing.T) {
	log := testLogger()
	ora := &fakeOracle{draftErr: errors.New("upstream timeout")}
	engine := NewEngine(newFakePlanRepo(), ora, testBreaker(log), log)

	_, err := engine.ProcessMessage(context.Background(), "s1", "terrible headache today", "")
	assert.Error(t, err)
}

func TestCreateFromDraftRefreshesExisting(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	engine := NewEngine(repo, &fakeOracle{}, testBreaker(log), log)
	ctx := context.Background()

	first, err := engine.CreateFromDraft(ctx, "s1", backPainDraft())
	require.NoError(t, err)

	// Record progress on a task that survives the refresh.
	found, added, err := engine.MarkTask(ctx, first.ID, "Day 1: Stretch", "2026-03-01")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, added)

	refreshed := backPainDraft()
	refreshed.Condition = "Back Pain" // different casing, same condition
	refreshed.PlanName = "Updated Back Pain Plan"
	refreshed.Tasks = []string{"Day 1: Stretch", "Day 2: Swim"}

	second, err := engine.CreateFromDraft(ctx, "s1", refreshed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Updated Back Pain Plan", second.PlanName)
	require.Len(t, second.Tasks, 2)
	assert.Equal(t, []string{"2026-03-01"}, second.Tasks[0].Progress)
	assert.Empty(t, second.Tasks[1].Progress)
}

func TestCreateFromDraftClampsTimeline(t *testing.T) {
	log := testLogger()
	engine := NewEngine(newFakePlanRepo(), &fakeOracle{}, testBreaker(log), log)

	draft := backPainDraft()
	draft.TimelineDays = 30
	created, err := engine.CreateFromDraft(context.Background(), "s1", draft)
	require.NoError(t, err)
	assert.Equal(t, models.MaxTimelineDays, created.TimelineDays)
}

func TestProcessReply(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	engine := NewEngine(repo, &fakeOracle{}, testBreaker(log), log)

	reply := "Try this plan for your back pain:\nDay 1: Stretch gently.\nDay 2: Short walk."
	out, err := engine.ProcessReply(context.Background(), "s1", reply)
	require.NoError(t, err)
	assert.True(t, out.Created)
	require.NotNil(t, out.Plan)
	assert.Len(t, out.Plan.Tasks, 2)

	// A second reply about the same condition reuses the stored plan.
	out2, err := engine.ProcessReply(context.Background(), "s1", reply)
	require.NoError(t, err)
	assert.False(t, out2.Created)
	assert.True(t, out2.Existing)
}

func TestProcessReplyWithoutPlanStructure(t *testing.T) {
	log := testLogger()
	engine := NewEngine(newFakePlanRepo(), &fakeOracle{}, testBreaker(log), log)

	out, err := engine.ProcessReply(context.Background(), "s1", "Stay hydrated and rest.")
	require.NoError(t, err)
	assert.False(t, out.Created)
}

func TestDeactivateMatching(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	engine := NewEngine(repo, &fakeOracle{}, testBreaker(log), log)
	ctx := context.Background()

	created, err := engine.CreateFromDraft(ctx, "s1", backPainDraft())
	require.NoError(t, err)

	name, ok, err := engine.DeactivateMatching(ctx, "s1", "please stop my back pain plan")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, created.PlanName, name)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestDeactivateMatchingNoTarget(t *testing.T) {
	log := testLogger()
	engine := NewEngine(newFakePlanRepo(), &fakeOracle{}, testBreaker(log), log)

	_, ok, err := engine.DeactivateMatching(context.Background(), "s1", "stop everything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeactivateIdempotent(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	engine := NewEngine(repo, &fakeOracle{}, testBreaker(log), log)
	ctx := context.Background()

	created, err := engine.CreateFromDraft(ctx, "s1", backPainDraft())
	require.NoError(t, err)
	require.NoError(t, engine.Deactivate(ctx, created))

	// Deactivating again is a no-op.
	require.NoError(t, engine.Deactivate(ctx, created))
	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestMarkAllComplete(t *testing.T) {
	log := testLogger()
	repo := newFakePlanRepo()
	engine := NewEngine(repo, &fakeOracle{}, testBreaker(log), log)
	ctx := context.Background()

	created, err := engine.CreateFromDraft(ctx, "s1", backPainDraft())
	require.NoError(t, err)

	updated, err := engine.MarkAllComplete(ctx, created, "2026-03-01")
	require.NoError(t, err)
	assert.Len(t, updated, 3)

	// All tasks already marked for that date.
	updated, err = engine.MarkAllComplete(ctx, created, "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, updated)
}
