package assembler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/oracle"
	"health-concierge/backend/internal/repository"
	"health-concierge/backend/internal/similarity"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/pkg/resilience"
)

// Context is the assembled prompt context for one chat turn
type Context struct {
	// Recent holds the session's last messages in chronological order
	Recent []models.Message
	// Similar holds semantically related past messages, oldest first,
	// with anything already in Recent filtered out. Empty when the
	// similarity service is unavailable.
	Similar []similarity.ScoredMessage
	// Degraded is true when similarity lookup failed and the context
	// fell back to recency only.
	Degraded bool
}

// Assembler builds per-turn context from recent history plus similarity
// search. Similarity failures never fail assembly.
type Assembler struct {
	messages      repository.MessageRepository
	searcher      similarity.Searcher
	breaker       *resilience.CircuitBreaker
	recencyWindow int
	topK          int
	log           *logger.Logger
}

// New creates a context assembler
func New(messages repository.MessageRepository, searcher similarity.Searcher, breaker *resilience.CircuitBreaker, recencyWindow, topK int, log *logger.Logger) *Assembler {
	return &Assembler{
		messages:      messages,
		searcher:      searcher,
		breaker:       breaker,
		recencyWindow: recencyWindow,
		topK:          topK,
		log:           log,
	}
}

// Assemble gathers context for a new user message. Recent history comes
// from storage; similar messages come from the similarity service behind
// a circuit breaker.
func (a *Assembler) Assemble(ctx context.Context, sessionID, query string) (*Context, error) {
	recent, err := a.messages.ListRecent(ctx, sessionID, a.recencyWindow)
	if err != nil {
		return nil, err
	}

	result := &Context{Recent: recent}

	var similar []similarity.ScoredMessage
	searchErr := a.breaker.Execute(func() error {
		var err error
		similar, err = a.searcher.Search(ctx, sessionID, query, a.topK)
		return err
	})
	if searchErr != nil {
		a.log.Warn("Similarity search unavailable, using recency-only context",
			"session_id", sessionID,
			"error", searchErr.Error(),
		)
		result.Degraded = true
		return result, nil
	}

	result.Similar = dedupeAndOrder(similar, recent)
	return result, nil
}

// dedupeAndOrder drops matches already covered by the recency window and
// arranges the rest oldest first, so the relevant block reads in the
// order the conversation happened. Equal timestamps keep the service's
// best-score-first order.
func dedupeAndOrder(similar []similarity.ScoredMessage, recent []models.Message) []similarity.ScoredMessage {
	if len(similar) == 0 {
		return similar
	}

	inWindow := make(map[uint]struct{}, len(recent))
	for _, m := range recent {
		inWindow[m.ID] = struct{}{}
	}

	kept := similar[:0]
	for _, m := range similar {
		if _, dup := inWindow[m.MessageID]; dup {
			continue
		}
		kept = append(kept, m)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedAt.Before(kept[j].CreatedAt)
	})
	return kept
}

// Render formats the assembled context as a prompt block. An empty
// context renders to the empty string.
func (c *Context) Render() string {
	var b strings.Builder

	if len(c.Similar) > 0 {
		b.WriteString("=== RELEVANT CONVERSATION HISTORY ===\n")
		for _, m := range c.Similar {
			speaker := m.Speaker
			if speaker == "" {
				speaker = m.Role
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
		}
		b.WriteString("\n")
	}

	if len(c.Recent) > 0 {
		b.WriteString("=== RECENT CONVERSATION ===\n")
		for _, m := range c.Recent {
			speaker := m.Speaker
			if speaker == "" {
				speaker = m.Role
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// HistoryTurns converts the recent messages into oracle turns
func (c *Context) HistoryTurns() []oracle.Turn {
	turns := make([]oracle.Turn, 0, len(c.Recent))
	for _, m := range c.Recent {
		content := m.Content
		if m.PDFText != "" {
			pdf := m.PDFText
			if len(pdf) > 1000 {
				pdf = pdf[:1000] + "..."
			}
			content += "\n\nPDF Content: " + pdf
		}
		if m.ImageData != "" {
			content += "\n[Note: this message included an image]"
		}
		turns = append(turns, oracle.Turn{Role: m.Role, Speaker: m.Speaker, Content: content})
	}
	return turns
}
