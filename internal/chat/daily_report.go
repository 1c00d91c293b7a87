package chat

import (
	"context"
	"fmt"
	"strings"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/plan"
	"health-concierge/backend/internal/specialist"
	apperrors "health-concierge/backend/pkg/errors"
)

var (
	progressIndicators = []string{"done", "completed", "finished", "did", "yes", "✅", "✓", "all", "everything"}
)

// DailyReportRequest is a conversational progress report
type DailyReportRequest struct {
	SessionID             string `json:"session_id"`
	Message               string `json:"message" binding:"required"`
	MarkAllComplete       bool   `json:"mark_all_complete"`
	SpecificPlanCondition string `json:"specific_plan_condition,omitempty"`
}

// DailyReportResponse summarizes what the report changed
type DailyReportResponse struct {
	Message      string   `json:"message"`
	UpdatedTasks int      `json:"updated_tasks"`
	TasksMarked  []string `json:"tasks_marked"`
}

// DailyReport interprets a free-text progress report, marks the matching
// tasks complete for today and answers with an encouraging reply from the
// concierge.
func (s *Service) DailyReport(ctx context.Context, req DailyReportRequest) (*DailyReportResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("message must not be empty")
	}
	if req.SessionID == "" {
		return nil, apperrors.NewValidationError("session_id is required")
	}

	lock := s.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.storeUserMessage(ctx, &Request{SessionID: req.SessionID, Message: req.Message}); err != nil {
		return nil, err
	}

	plans, err := s.plans.ListActiveBySession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Format(models.DateLayout)
	messageLower := strings.ToLower(req.Message)
	markAll := req.MarkAllComplete ||
		strings.Contains(messageLower, "mark all") ||
		strings.Contains(messageLower, "all tasks")

	var updated []string
	if markAll {
		target := s.findReportTarget(plans, req.SpecificPlanCondition, messageLower)
		if target != nil {
			marked, err := s.engine.MarkAllComplete(ctx, target, today)
			if err != nil {
				return nil, err
			}
			updated = marked
		}
	} else {
		updated, err = s.markMentionedTasks(ctx, plans, messageLower, today)
		if err != nil {
			return nil, err
		}
	}

	reply := dailyReportReply(updated, today)
	if err := s.storeAssistantMessage(ctx, req.SessionID, specialist.DefaultName, reply); err != nil {
		return nil, err
	}

	return &DailyReportResponse{
		Message:      reply,
		UpdatedTasks: len(updated),
		TasksMarked:  updated,
	}, nil
}

// findReportTarget picks the plan a report refers to, preferring an
// explicit condition over keywords in the message text.
func (s *Service) findReportTarget(plans []models.HealthPlan, condition, messageLower string) *models.HealthPlan {
	if condition != "" {
		if target := plan.MatchByText(plans, condition); target != nil {
			return target
		}
		return nil
	}
	return plan.MatchByText(plans, messageLower)
}

// markMentionedTasks marks individual tasks the report plausibly refers
// to: the message must signal completion, and either name words of the
// task or carry at least two completion indicators.
func (s *Service) markMentionedTasks(ctx context.Context, plans []models.HealthPlan, messageLower, today string) ([]string, error) {
	indicatorHits := 0
	for _, ind := range progressIndicators {
		if strings.Contains(messageLower, ind) {
			indicatorHits++
		}
	}
	if indicatorHits == 0 {
		return nil, nil
	}

	var updated []string
	for pi := range plans {
		p := &plans[pi]
		for ti := range p.Tasks {
			task := &p.Tasks[ti]
			if task.MarkedOn(today) {
				continue
			}

			mentioned := false
			for _, w := range strings.Fields(strings.ToLower(task.TaskName)) {
				if len(w) > 3 && strings.Contains(messageLower, w) {
					mentioned = true
					break
				}
			}

			if mentioned || indicatorHits >= 2 {
				found, added, err := s.engine.MarkTask(ctx, p.ID, task.TaskName, today)
				if err != nil {
					return updated, err
				}
				if found && added {
					updated = append(updated, task.TaskName)
				}
			}
		}
	}
	return updated, nil
}

func dailyReportReply(updated []string, today string) string {
	if len(updated) == 0 {
		return "I understand. Remember that consistency is key, and it's okay to have challenging days. Try to do what you can, and don't be too hard on yourself. Tomorrow is a new opportunity! 🌟"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Excellent! I've marked %d tasks as completed for today (%s):\n\n", len(updated), today)
	for i, name := range updated {
		if i == 5 {
			fmt.Fprintf(&b, "... and %d more tasks!\n", len(updated)-5)
			break
		}
		short := name
		if len(short) > 60 {
			short = short[:60] + "..."
		}
		fmt.Fprintf(&b, "✅ %d. %s\n", i+1, short)
	}
	b.WriteString("\nFantastic progress! Keep up the excellent work! 💪")
	return b.String()
}
