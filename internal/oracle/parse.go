package oracle

import (
	"encoding/json"
	"regexp"
	"strings"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParsePlanDraft extracts a PlanDraft from model output. The payload may
// arrive inside a fenced code block or as bare JSON. Timelines are clamped
// to the supported range and drafts without tasks are rejected.
func ParsePlanDraft(raw string) (*PlanDraft, error) {
	payload := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		payload = m[1]
	} else {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, apperrors.NewOracleUnavailableError("no JSON object in plan detection output", nil)
		}
		payload = raw[start : end+1]
	}

	var draft PlanDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return nil, apperrors.NewOracleUnavailableError("malformed plan detection JSON", err)
	}

	if !draft.NeedsPlan {
		return &draft, nil
	}

	if len(draft.Tasks) == 0 {
		return nil, apperrors.NewOracleUnavailableError("plan draft has no tasks", nil)
	}
	if draft.Condition == "" {
		draft.Condition = "General Health"
	}
	if draft.PlanName == "" {
		draft.PlanName = "Health Plan"
	}
	draft.TimelineDays = models.ClampTimeline(draft.TimelineDays)

	return &draft, nil
}
