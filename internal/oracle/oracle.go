package oracle

import "context"

// Turn is one prior exchange included in a completion request
type Turn struct {
	Role    string
	Speaker string
	Content string
}

// CompletionRequest carries everything a specialist reply needs
type CompletionRequest struct {
	Persona string
	Context string
	History []Turn
	Input   string
}

// PlanDraft is the structured result of plan detection. When NeedsPlan is
// false the other fields are empty except Reason.
type PlanDraft struct {
	NeedsPlan    bool     `json:"needs_plan"`
	Condition    string   `json:"condition"`
	PlanName     string   `json:"plan_name"`
	TimelineDays int      `json:"timeline_days"`
	Tasks        []string `json:"tasks"`
	Reason       string   `json:"reason,omitempty"`
}

// Client is the language-model oracle behind routing, replies and plan
// detection. Implementations must be safe for concurrent use.
type Client interface {
	// Complete produces a specialist reply for the given request
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Classify picks the best candidate label for a message. The result
	// is one of the candidates verbatim, or an error.
	Classify(ctx context.Context, message string, candidates []string) (string, error)

	// DetectPlan analyzes a message (with conversation context) for a
	// health condition that warrants a structured daily plan.
	DetectPlan(ctx context.Context, message, context string) (*PlanDraft, error)
}
