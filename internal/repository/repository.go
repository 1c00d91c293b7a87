package repository

import (
	"context"
	"time"

	"health-concierge/backend/internal/models"
)

// SessionInfo summarizes a chat session derived from its stored messages
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	MessageCount int64     `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
}

// MessageRepository persists and queries chat messages
type MessageRepository interface {
	// Create stores a new message
	Create(ctx context.Context, msg *models.Message) error

	// ListPage returns one page of a session's messages, most recent
	// first. Pages are stable under growth at the head: page boundaries
	// only shift when new messages arrive.
	ListPage(ctx context.Context, sessionID string, limit, offset int) ([]models.Message, error)

	// ListRecent returns the last limit messages of a session in
	// chronological order, for prompt context assembly.
	ListRecent(ctx context.Context, sessionID string, limit int) ([]models.Message, error)

	// ListAssistantSince returns assistant messages created at or after
	// the given time, across all sessions, for analytics.
	ListAssistantSince(ctx context.Context, since time.Time) ([]models.Message, error)

	// CountBySession returns the number of messages in a session
	CountBySession(ctx context.Context, sessionID string) (int64, error)

	// ListSessions returns all known sessions with message counts and
	// last activity, most recently active first.
	ListSessions(ctx context.Context) ([]SessionInfo, error)

	// DeleteSession removes all messages of a session and returns how
	// many rows were deleted.
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

// PlanRepository persists and queries health plans
type PlanRepository interface {
	// Create stores a new plan
	Create(ctx context.Context, plan *models.HealthPlan) error

	// Update saves a modified plan
	Update(ctx context.Context, plan *models.HealthPlan) error

	// GetByID returns a plan by id regardless of active state
	GetByID(ctx context.Context, id string) (*models.HealthPlan, error)

	// ListActive returns all active plans, newest first
	ListActive(ctx context.Context) ([]models.HealthPlan, error)

	// ListActiveBySession returns a session's active plans, newest first
	ListActiveBySession(ctx context.Context, sessionID string) ([]models.HealthPlan, error)

	// FindActiveByCondition returns the session's active plan whose
	// condition matches case-insensitively, or nil when there is none.
	FindActiveByCondition(ctx context.Context, sessionID, condition string) (*models.HealthPlan, error)

	// Deactivate marks a plan inactive
	Deactivate(ctx context.Context, id string) error

	// DeactivateBySession marks all of a session's active plans inactive
	// and returns how many were affected.
	DeactivateBySession(ctx context.Context, sessionID string) (int64, error)

	// MarkTask records a completion date for one task of a plan. It
	// reports whether the task existed and whether the date was new.
	MarkTask(ctx context.Context, planID, taskName, date string) (found, added bool, err error)
}
