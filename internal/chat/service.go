package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"health-concierge/backend/internal/assembler"
	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/oracle"
	"health-concierge/backend/internal/plan"
	"health-concierge/backend/internal/repository"
	"health-concierge/backend/internal/routing"
	"health-concierge/backend/internal/similarity"
	"health-concierge/backend/internal/specialist"
	"health-concierge/backend/internal/ws"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/resilience"
	"health-concierge/backend/shared/observability"
)

// apologyReply is returned when the oracle cannot produce a reply. A chat
// turn always answers, even with every upstream down.
const apologyReply = "I'm sorry, I encountered an issue processing your request. Could you please try again?"

// greetingReply opens every new session so the history never starts with
// an unanswered user turn.
const greetingReply = "Hi, I'm Ruby, your personal health concierge. Tell me what's on your mind and I'll bring in the right specialist from our team."

// Request is one incoming chat turn
type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
	ImageData string `json:"image_data,omitempty"`
	PDFText   string `json:"pdf_text,omitempty"`
}

// Response is the reply to one chat turn
type Response struct {
	Message             string             `json:"message"`
	SpecialistName      string             `json:"specialist_name"`
	Avatar              string             `json:"avatar"`
	SessionID           string             `json:"session_id"`
	Timestamp           time.Time          `json:"timestamp"`
	PlanCreated         bool               `json:"plan_created"`
	PlanID              string             `json:"plan_id,omitempty"`
	Plan                *models.HealthPlan `json:"plan,omitempty"`
	PlanDeactivated     bool               `json:"plan_deactivated"`
	DeactivatedPlanName string             `json:"deactivated_plan_name,omitempty"`
}

// Invalidator is notified when new assistant output changes analytics
type Invalidator interface {
	Invalidate()
}

// Service orchestrates a chat turn: context assembly, plan gates, routing,
// completion and persistence. Turns within one session run serialized;
// different sessions run concurrently.
type Service struct {
	registry  *specialist.Registry
	router    *routing.Router
	assembler *assembler.Assembler
	engine    *plan.Engine
	oracle    oracle.Client
	breaker   *resilience.CircuitBreaker
	messages  repository.MessageRepository
	plans     repository.PlanRepository
	searcher  similarity.Searcher
	hub       *ws.Hub
	analytics Invalidator
	log       *logger.Logger

	maxMessages int64
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Options wires the chat service dependencies
type Options struct {
	Registry    *specialist.Registry
	Router      *routing.Router
	Assembler   *assembler.Assembler
	Engine      *plan.Engine
	Oracle      oracle.Client
	Breaker     *resilience.CircuitBreaker
	Messages    repository.MessageRepository
	Plans       repository.PlanRepository
	Searcher    similarity.Searcher
	Hub         *ws.Hub
	Analytics   Invalidator
	Logger      *logger.Logger
	MaxMessages int64
	Now         func() time.Time
}

// NewService creates the chat service
func NewService(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		registry:    opts.Registry,
		router:      opts.Router,
		assembler:   opts.Assembler,
		engine:      opts.Engine,
		oracle:      opts.Oracle,
		breaker:     opts.Breaker,
		messages:    opts.Messages,
		plans:       opts.Plans,
		searcher:    opts.Searcher,
		hub:         opts.Hub,
		analytics:   opts.Analytics,
		log:         opts.Logger,
		maxMessages: opts.MaxMessages,
		now:         opts.Now,
		locks:       make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing one session's turns
func (s *Service) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// Send processes one chat turn and always produces a reply
func (s *Service) Send(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.NewValidationError("message must not be empty")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	lock := s.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.messages.CountBySession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if s.maxMessages > 0 && count >= s.maxMessages {
		return nil, apperrors.NewValidationError("session message limit reached")
	}

	if count == 0 {
		if err := s.storeAssistantMessage(ctx, req.SessionID, specialist.DefaultName, greetingReply); err != nil {
			return nil, err
		}
	}

	if err := s.storeUserMessage(ctx, &req); err != nil {
		return nil, err
	}

	assembled, err := s.assembler.Assemble(ctx, req.SessionID, req.Message)
	if err != nil {
		return nil, err
	}

	planNote, outcome := s.applyPlanGates(ctx, req, assembled)

	input := req.Message
	if req.PDFText != "" {
		input += "\n\nPDF Content:\n" + req.PDFText
	}
	if planNote != "" {
		input += planNote
	}

	spec := s.router.Route(ctx, input)

	if plan.IsProgressRequest(req.Message) {
		if info := s.currentTasksInfo(ctx, req.SessionID); info != "" {
			input += "\n\n" + info
		}
	}

	reply := s.complete(ctx, spec, assembled, input, req.ImageData)

	resp := &Response{
		SessionID:      req.SessionID,
		SpecialistName: spec.Name,
		Avatar:         spec.Avatar,
		Timestamp:      s.now().UTC(),
	}
	s.applyOutcome(resp, outcome)

	// A reply that lays out a day-by-day plan becomes a stored plan too
	if !resp.PlanCreated && !outcome.deactivated {
		replyOutcome, err := s.engine.ProcessReply(ctx, req.SessionID, reply)
		if err != nil {
			s.log.Warn("Plan extraction from reply failed", "session_id", req.SessionID, "error", err.Error())
		} else if replyOutcome.Created {
			resp.PlanCreated = true
			resp.PlanID = replyOutcome.Plan.ID
			resp.Plan = replyOutcome.Plan
			reply += fmt.Sprintf(
				"\n\n✅ I've created a personalized %d-day plan for you. You can track your progress on the dashboard.",
				replyOutcome.Plan.TimelineDays,
			)
		}
	}

	if plan.IsProgressRequest(req.Message) {
		reply = s.applyBulkProgress(ctx, req, reply)
	}

	resp.Message = reply

	if err := s.storeAssistantMessage(ctx, req.SessionID, spec.Name, reply); err != nil {
		return nil, err
	}

	s.publishEvents(req.SessionID, resp)
	return resp, nil
}

func (s *Service) storeUserMessage(ctx context.Context, req *Request) error {
	msg := &models.Message{
		SessionID: req.SessionID,
		Role:      models.RoleUser,
		Content:   req.Message,
		ImageData: req.ImageData,
		PDFText:   req.PDFText,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}

	if err := s.searcher.Index(ctx, msg); err != nil {
		s.log.Debug("Similarity indexing failed", "session_id", req.SessionID, "error", err.Error())
	}
	return nil
}

func (s *Service) storeAssistantMessage(ctx context.Context, sessionID, speaker, content string) error {
	msg := &models.Message{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Speaker:   speaker,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return err
	}

	if err := s.searcher.Index(ctx, msg); err != nil {
		s.log.Debug("Similarity indexing failed", "session_id", sessionID, "error", err.Error())
	}

	observability.ChatMessagesTotal.WithLabelValues(speaker).Inc()
	if s.analytics != nil {
		s.analytics.Invalidate()
	}
	return nil
}

// gateOutcome carries what the pre-routing plan gates decided
type gateOutcome struct {
	planOutcome     plan.Outcome
	deactivated     bool
	deactivatedName string
}

// applyPlanGates runs the keyword gates over the user message. Failures
// here are logged and absorbed: the user still gets a reply.
func (s *Service) applyPlanGates(ctx context.Context, req Request, assembled *assembler.Context) (string, gateOutcome) {
	var out gateOutcome

	switch {
	case plan.IsDeactivationRequest(req.Message):
		name, ok, err := s.engine.DeactivateMatching(ctx, req.SessionID, req.Message)
		if err != nil {
			s.log.Warn("Plan deactivation failed", "session_id", req.SessionID, "error", err.Error())
			return "", out
		}
		if !ok {
			return "", out
		}
		out.deactivated = true
		out.deactivatedName = name
		return fmt.Sprintf(
			"\n\n[SYSTEM: I have successfully deactivated the '%s' plan as requested. The plan is no longer active and will not appear in the dashboard.]",
			name,
		), out

	case plan.IsProgressRequest(req.Message):
		// Progress tracking never creates plans
		return "", out

	case plan.HasConditionKeywords(req.Message):
		outcome, err := s.engine.ProcessMessage(ctx, req.SessionID, req.Message, assembled.Render())
		if err != nil {
			s.log.Warn("Plan detection failed", "session_id", req.SessionID, "error", err.Error())
			return "", out
		}
		out.planOutcome = outcome
		if outcome.Created {
			return fmt.Sprintf(
				"\n\n[SYSTEM: I have created a personalized %d-day plan for %s with %d daily tasks. The user can view and track progress on the dashboard.]",
				outcome.Plan.TimelineDays, outcome.Plan.Condition, len(outcome.Plan.Tasks),
			), out
		}
	}

	return "", out
}

func (s *Service) applyOutcome(resp *Response, out gateOutcome) {
	if out.planOutcome.Created {
		resp.PlanCreated = true
		resp.PlanID = out.planOutcome.Plan.ID
		resp.Plan = out.planOutcome.Plan
	} else if out.planOutcome.Existing {
		resp.PlanID = out.planOutcome.Plan.ID
		resp.Plan = out.planOutcome.Plan
	}
	if out.deactivated {
		resp.PlanDeactivated = true
		resp.DeactivatedPlanName = out.deactivatedName
	}
}

// complete asks the oracle for the specialist reply, degrading to an
// apology when the oracle is unavailable.
func (s *Service) complete(ctx context.Context, spec specialist.Specialist, assembled *assembler.Context, input, imageData string) string {
	if imageData != "" {
		input += "\n[Note: the user attached an image to this message]"
	}

	var reply string
	err := s.breaker.Execute(func() error {
		var err error
		reply, err = s.oracle.Complete(ctx, oracle.CompletionRequest{
			Persona: spec.Persona,
			Context: assembled.Render(),
			History: assembled.HistoryTurns(),
			Input:   input,
		})
		return err
	})
	if err != nil {
		s.log.Error("Oracle completion failed", "specialist", spec.Name, "error", err.Error())
		return apologyReply
	}
	return reply
}

// currentTasksInfo renders the session's active plans and today's task
// state for inclusion in the prompt.
func (s *Service) currentTasksInfo(ctx context.Context, sessionID string) string {
	plans, err := s.plans.ListActiveBySession(ctx, sessionID)
	if err != nil || len(plans) == 0 {
		return ""
	}

	today := s.now().UTC().Format(models.DateLayout)
	var b strings.Builder
	b.WriteString("=== CURRENT ACTIVE PLANS ===")

	for i := range plans {
		p := &plans[i]
		fmt.Fprintf(&b, "\n\nPlan: %s\nCondition: %s\nTimeline: %d days", p.PlanName, p.Condition, p.TimelineDays)

		var pending, completed []string
		for ti := range p.Tasks {
			if p.Tasks[ti].MarkedOn(today) {
				completed = append(completed, p.Tasks[ti].TaskName)
			} else {
				pending = append(pending, p.Tasks[ti].TaskName)
			}
		}

		if len(pending) > 0 {
			b.WriteString("\nPENDING TODAY:")
			for _, name := range pending {
				b.WriteString("\n  - " + name)
			}
		}
		if len(completed) > 0 {
			b.WriteString("\nCOMPLETED TODAY:")
			for _, name := range completed {
				b.WriteString("\n  - " + name)
			}
		}
	}

	return b.String()
}

// applyBulkProgress marks the referenced plan's remaining tasks complete
// for today and reflects what actually changed in the reply.
func (s *Service) applyBulkProgress(ctx context.Context, req Request, reply string) string {
	plans, err := s.plans.ListActiveBySession(ctx, req.SessionID)
	if err != nil || len(plans) == 0 {
		return reply
	}

	target := plan.MatchByText(plans, req.Message)
	if target == nil {
		return reply
	}

	today := s.now().UTC().Format(models.DateLayout)
	updated, err := s.engine.MarkAllComplete(ctx, target, today)
	if err != nil {
		s.log.Warn("Bulk progress update failed", "plan_id", target.ID, "error", err.Error())
		return reply
	}

	if len(updated) == 0 {
		return reply + fmt.Sprintf("\n\n📋 Note: all tasks for today (%s) are already marked complete!", today)
	}

	s.hub.Publish(ws.Event{
		Type:      ws.EventTasksMarked,
		SessionID: req.SessionID,
		Payload:   map[string]interface{}{"plan_id": target.ID, "tasks": updated, "date": today},
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n✅ I have marked %d tasks as completed for today (%s):\n", reply, len(updated), today)
	for i, name := range updated {
		if i == 3 {
			fmt.Fprintf(&b, "... and %d more tasks!\n", len(updated)-3)
			break
		}
		short := name
		if len(short) > 50 {
			short = short[:50] + "..."
		}
		fmt.Fprintf(&b, "%d. %s ✅\n", i+1, short)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) publishEvents(sessionID string, resp *Response) {
	s.hub.Publish(ws.Event{
		Type:      ws.EventMessage,
		SessionID: sessionID,
		Payload: map[string]interface{}{
			"specialist": resp.SpecialistName,
			"message":    resp.Message,
		},
	})

	if resp.PlanCreated {
		s.hub.Publish(ws.Event{
			Type:      ws.EventPlanCreated,
			SessionID: sessionID,
			Payload:   resp.Plan,
		})
	}
	if resp.PlanDeactivated {
		s.hub.Publish(ws.Event{
			Type:      ws.EventPlanDeactivated,
			SessionID: sessionID,
			Payload:   map[string]interface{}{"plan_name": resp.DeactivatedPlanName},
		})
	}
}

// History returns one page of a session's messages, most recent first
func (s *Service) History(ctx context.Context, sessionID string, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.ListPage(ctx, sessionID, limit, offset)
}

// Sessions lists all known sessions
func (s *Service) Sessions(ctx context.Context) ([]repository.SessionInfo, error) {
	return s.messages.ListSessions(ctx)
}

// ClearSession deletes a session's messages and retires its active plans.
// Deleting an unknown session is an error.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.messages.DeleteSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperrors.NewNotFoundError("session not found")
	}

	if _, err := s.plans.DeactivateBySession(ctx, sessionID); err != nil {
		s.log.Warn("Plan deactivation on session clear failed", "session_id", sessionID, "error", err.Error())
	}

	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()
	return nil
}

// Specialists returns the roster
func (s *Service) Specialists() []specialist.Specialist {
	return s.registry.List()
}
