package plan

import (
	"context"
	"strings"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/oracle"
	"health-concierge/backend/internal/repository"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/resilience"
	"health-concierge/backend/shared/observability"
)

// Outcome is the result of examining a chat turn for plan activity
type Outcome struct {
	// Created is true when a new plan was stored this turn
	Created bool
	// Plan is the created or matched plan, nil when neither applies
	Plan *models.HealthPlan
	// Existing is true when an active plan for a similar condition
	// already covered the message.
	Existing bool
}

// Engine owns the plan lifecycle: detection from user messages and
// specialist replies, dedup against existing plans, progress marking and
// deactivation.
type Engine struct {
	plans   repository.PlanRepository
	oracle  oracle.Client
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewEngine creates a plan engine
func NewEngine(plans repository.PlanRepository, client oracle.Client, breaker *resilience.CircuitBreaker, log *logger.Logger) *Engine {
	return &Engine{
		plans:   plans,
		oracle:  client,
		breaker: breaker,
		log:     log,
	}
}

// ProcessMessage examines a user message for a condition that warrants a
// plan. Progress-tracking messages never create plans, and a message about
// a condition that already has an active plan reuses it.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message, contextText string) (Outcome, error) {
	if IsProgressRequest(message) {
		return Outcome{}, nil
	}

	if existing, err := e.findSimilarActive(ctx, sessionID, message); err != nil {
		return Outcome{}, err
	} else if existing != nil {
		e.log.Info("Active plan already covers condition",
			"session_id", sessionID,
			"plan_id", existing.ID,
			"plan_name", existing.PlanName,
		)
		return Outcome{Plan: existing, Existing: true}, nil
	}

	var draft *oracle.PlanDraft
	err := e.breaker.Execute(func() error {
		var err error
		draft, err = e.oracle.DetectPlan(ctx, message, contextText)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	if draft == nil || !draft.NeedsPlan {
		return Outcome{}, nil
	}

	created, err := e.CreateFromDraft(ctx, sessionID, draft)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Created: true, Plan: created}, nil
}

// ProcessReply examines a specialist reply for an inline day-by-day plan
// and stores it, subject to the same dedup rules as user messages.
func (e *Engine) ProcessReply(ctx context.Context, sessionID, reply string) (Outcome, error) {
	draft, ok := ExtractDraftFromReply(reply)
	if !ok {
		return Outcome{}, nil
	}

	if existing, err := e.findSimilarActive(ctx, sessionID, draft.Condition); err != nil {
		return Outcome{}, err
	} else if existing != nil {
		return Outcome{Plan: existing, Existing: true}, nil
	}

	created, err := e.CreateFromDraft(ctx, sessionID, draft)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Created: true, Plan: created}, nil
}

// CreateFromDraft stores a plan from a draft. If the session already has
// an active plan for the same condition (case-insensitive) that plan is
// refreshed in place instead of creating a duplicate row; progress carries
// over for tasks that keep their name.
func (e *Engine) CreateFromDraft(ctx context.Context, sessionID string, draft *oracle.PlanDraft) (*models.HealthPlan, error) {
	tasks := make([]models.Task, 0, len(draft.Tasks))
	for _, name := range draft.Tasks {
		tasks = append(tasks, models.Task{TaskName: name, Progress: []string{}})
	}

	existing, err := e.plans.FindActiveByCondition(ctx, sessionID, draft.Condition)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		carried := make(map[string][]string, len(existing.Tasks))
		for i := range existing.Tasks {
			carried[existing.Tasks[i].TaskName] = existing.Tasks[i].Progress
		}
		for i := range tasks {
			if prev, ok := carried[tasks[i].TaskName]; ok {
				tasks[i].Progress = prev
			}
		}

		existing.PlanName = draft.PlanName
		existing.TimelineDays = models.ClampTimeline(draft.TimelineDays)
		existing.Tasks = tasks
		if err := e.plans.Update(ctx, existing); err != nil {
			return nil, err
		}
		e.log.Info("Refreshed existing plan",
			"session_id", sessionID,
			"plan_id", existing.ID,
			"condition", existing.Condition,
		)
		return existing, nil
	}

	lc := NewLifecycle(StateNone)
	if err := lc.Activate(); err != nil {
		return nil, err
	}

	created := &models.HealthPlan{
		SessionID:    sessionID,
		PlanName:     draft.PlanName,
		Condition:    draft.Condition,
		TimelineDays: models.ClampTimeline(draft.TimelineDays),
		Tasks:        tasks,
		Active:       lc.State() == StateActive,
	}
	if err := e.plans.Create(ctx, created); err != nil {
		return nil, err
	}

	observability.PlansCreatedTotal.Inc()
	e.log.Info("Created health plan",
		"session_id", sessionID,
		"plan_id", created.ID,
		"condition", created.Condition,
		"tasks", len(created.Tasks),
	)
	return created, nil
}

// findSimilarActive returns the session's active plan whose condition
// shares a significant word with the text, or nil.
func (e *Engine) findSimilarActive(ctx context.Context, sessionID, text string) (*models.HealthPlan, error) {
	plans, err := e.plans.ListActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	for i := range plans {
		words := significantWords(plans[i].Condition)
		if mentionsAnyWord(lower, words) {
			return &plans[i], nil
		}
	}
	return nil, nil
}

// MatchByText returns the active plan whose condition or name shares a
// significant word with the text, searching the given plan set.
func MatchByText(plans []models.HealthPlan, text string) *models.HealthPlan {
	lower := strings.ToLower(text)
	for i := range plans {
		words := append(significantWords(plans[i].Condition), significantWords(plans[i].PlanName)...)
		if mentionsAnyWord(lower, words) {
			return &plans[i]
		}
	}
	return nil
}

// DeactivateMatching finds the session's active plan referenced by the
// message and deactivates it. It returns the plan name and whether a plan
// was deactivated.
func (e *Engine) DeactivateMatching(ctx context.Context, sessionID, message string) (string, bool, error) {
	plans, err := e.plans.ListActiveBySession(ctx, sessionID)
	if err != nil {
		return "", false, err
	}

	target := MatchByText(plans, message)
	if target == nil {
		e.log.Warn("Could not identify which plan to deactivate", "session_id", sessionID)
		return "", false, nil
	}

	return target.PlanName, true, e.Deactivate(ctx, target)
}

// Deactivate transitions a plan to inactive. Deactivating a plan that is
// already inactive is a no-op, so repeated requests are harmless.
func (e *Engine) Deactivate(ctx context.Context, p *models.HealthPlan) error {
	lc := LifecycleOf(p.Active)
	if !lc.CanDeactivate() {
		return nil
	}
	if err := lc.Deactivate(); err != nil {
		return err
	}

	if err := e.plans.Deactivate(ctx, p.ID); err != nil {
		return err
	}
	p.Active = false

	observability.PlansDeactivatedTotal.Inc()
	e.log.Info("Deactivated plan", "plan_id", p.ID, "plan_name", p.PlanName)
	return nil
}

// MarkAllComplete marks every task of the plan done on the given date in
// one write. It returns the names of the tasks that were newly marked.
func (e *Engine) MarkAllComplete(ctx context.Context, p *models.HealthPlan, date string) ([]string, error) {
	var updated []string
	for i := range p.Tasks {
		if p.Tasks[i].Mark(date) {
			updated = append(updated, p.Tasks[i].TaskName)
		}
	}
	if len(updated) == 0 {
		return nil, nil
	}

	if err := e.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkTask records one task completion on a plan
func (e *Engine) MarkTask(ctx context.Context, planID, taskName, date string) (bool, bool, error) {
	return e.plans.MarkTask(ctx, planID, taskName, date)
}
