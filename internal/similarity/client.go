package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

// ScoredMessage is one semantically similar past message. MessageID and
// CreatedAt echo what was indexed, so context assembly can drop matches
// already present in the recency window and order the rest by time.
type ScoredMessage struct {
	MessageID uint      `json:"message_id"`
	Role      string    `json:"role"`
	Speaker   string    `json:"speaker,omitempty"`
	Content   string    `json:"content"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Searcher finds past messages semantically similar to a query. Context
// assembly treats any failure as "no similar messages" and degrades to
// recency only.
type Searcher interface {
	// Search returns up to topK similar messages for the session
	Search(ctx context.Context, sessionID, query string, topK int) ([]ScoredMessage, error)

	// Index submits a stored message for embedding so later searches can
	// find it
	Index(ctx context.Context, msg *models.Message) error
}

// HTTPSearcher talks to an external embedding/search service
type HTTPSearcher struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewHTTPSearcher creates a similarity client for the given service URL
func NewHTTPSearcher(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPSearcher {
	return &HTTPSearcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type searchRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
}

type searchResponse struct {
	Matches []ScoredMessage `json:"matches"`
}

func (s *HTTPSearcher) Search(ctx context.Context, sessionID, query string, topK int) ([]ScoredMessage, error) {
	body, err := json.Marshal(searchRequest{SessionID: sessionID, Query: query, TopK: topK})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewOracleUnavailableError("similarity search failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewOracleUnavailableError(
			fmt.Sprintf("similarity service returned status %d", resp.StatusCode), nil)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewOracleUnavailableError("malformed similarity response", err)
	}

	if len(parsed.Matches) > topK {
		parsed.Matches = parsed.Matches[:topK]
	}
	return parsed.Matches, nil
}

type indexRequest struct {
	MessageID uint      `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Speaker   string    `json:"speaker,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *HTTPSearcher) Index(ctx context.Context, msg *models.Message) error {
	body, err := json.Marshal(indexRequest{
		MessageID: msg.ID,
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Speaker:   msg.Speaker,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/index", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.NewOracleUnavailableError("similarity indexing failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apperrors.NewOracleUnavailableError(
			fmt.Sprintf("similarity service returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// Disabled is a Searcher used when no similarity service is configured.
// Searches return nothing and indexing is a no-op.
type Disabled struct{}

func (Disabled) Search(context.Context, string, string, int) ([]ScoredMessage, error) {
	return nil, nil
}

func (Disabled) Index(context.Context, *models.Message) error {
	return nil
}
