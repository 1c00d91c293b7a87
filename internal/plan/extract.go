package plan

import (
	"fmt"
	"regexp"
	"strings"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/oracle"
)

var (
	dayHeaderPattern = regexp.MustCompile(`(?i)Day\s*(\d+)\s*:`)
	conditionPattern = regexp.MustCompile(`(?i)back\s*pain|neck\s*pain|stress|anxiety|injury|muscle|joint`)
	titledPlanName   = regexp.MustCompile(`(?i)(\d+)-Day\s+([^:\n]+(?:Plan|Management|Program))`)
	barePlanName     = regexp.MustCompile(`(?i)([^:\n]+(?:Plan|Management|Program))`)
)

// ExtractDraftFromReply scans a specialist reply for an inline day-by-day
// plan ("Day 1: ...", "Day 2: ...") and converts it into a draft. It
// reports false when the reply contains no such structure.
func ExtractDraftFromReply(reply string) (*oracle.PlanDraft, bool) {
	headers := dayHeaderPattern.FindAllStringSubmatchIndex(reply, -1)
	if len(headers) == 0 {
		return nil, false
	}

	condition := "health condition"
	if m := conditionPattern.FindString(strings.ToLower(reply)); m != "" {
		condition = m
	}

	planName := "Health Management Plan"
	if m := titledPlanName.FindStringSubmatch(reply); m != nil {
		planName = fmt.Sprintf("%s-Day %s", m[1], strings.TrimSpace(m[2]))
	} else if m := barePlanName.FindStringSubmatch(reply); m != nil {
		planName = strings.TrimSpace(m[1])
	}

	tasks := make([]string, 0, len(headers))
	for i, header := range headers {
		dayNum := reply[header[2]:header[3]]

		// Task content runs from this header to the next one
		start := header[1]
		end := len(reply)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		content := strings.Join(strings.Fields(reply[start:end]), " ")
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		tasks = append(tasks, fmt.Sprintf("Day %s: %s", dayNum, content))
	}

	return &oracle.PlanDraft{
		NeedsPlan:    true,
		Condition:    condition,
		PlanName:     planName,
		TimelineDays: models.ClampTimeline(len(tasks)),
		Tasks:        tasks,
	}, true
}
