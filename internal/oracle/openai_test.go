package oracle

import (
	"context"
	"errors"
	"io"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

// scriptedAPI returns canned completions and records requests
type scriptedAPI struct {
	content  string
	err      error
	requests []openai.ChatCompletionRequest
}

func (s *scriptedAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

func newTestClient(api *scriptedAPI) *OpenAIClient {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	return NewOpenAIClientWithAPI(api, "test-model", log)
}

func TestCompleteBuildsMessages(t *testing.T) {
	api := &scriptedAPI{content: "  Take it easy today.  "}
	client := newTestClient(api)

	reply, err := client.Complete(context.Background(), CompletionRequest{
		Persona: "You are Ruby.",
		Context: "=== RECENT CONVERSATION ===",
		History: []Turn{
			{Role: models.RoleUser, Speaker: "user", Content: "hi"},
			{Role: models.RoleAssistant, Speaker: "Ruby", Content: "hello"},
		},
		Input: "my back hurts",
	})
	require.NoError(t, err)
	assert.Equal(t, "Take it easy today.", reply)

	require.Len(t, api.requests, 1)
	msgs := api.requests[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "You are Ruby.")
	assert.Contains(t, msgs[0].Content, "RECENT CONVERSATION")
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "[Ruby] hello", msgs[2].Content)
	assert.Equal(t, "my back hurts", msgs[3].Content)
}

func TestCompleteFailure(t *testing.T) {
	client := newTestClient(&scriptedAPI{err: errors.New("connection refused")})

	_, err := client.Complete(context.Background(), CompletionRequest{Input: "hi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeOracleUnavailable))
}

func TestClassify(t *testing.T) {
	api := &scriptedAPI{content: "dr_warren\n"}
	client := newTestClient(api)

	got, err := client.Classify(context.Background(), "my blood pressure is high",
		[]string{"Ruby", "Dr_Warren", "Advik"})
	require.NoError(t, err)
	assert.Equal(t, "Dr_Warren", got)
}

func TestClassifyUnknownLabel(t *testing.T) {
	client := newTestClient(&scriptedAPI{content: "Dr_House"})

	_, err := client.Classify(context.Background(), "hello", []string{"Ruby", "Advik"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeOracleUnavailable))
}

func TestDetectPlan(t *testing.T) {
	api := &scriptedAPI{content: "```json\n{\"needs_plan\": true, \"condition\": \"back pain\", \"plan_name\": \"Back Pain Relief Plan\", \"timeline_days\": 7, \"tasks\": [\"Stretch\", \"Walk\"]}\n```"}
	client := newTestClient(api)

	draft, err := client.DetectPlan(context.Background(), "my back hurts", "no prior context")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.True(t, draft.NeedsPlan)
	assert.Equal(t, "back pain", draft.Condition)

	require.Len(t, api.requests, 1)
	assert.Contains(t, api.requests[0].Messages[0].Content, "my back hurts")
}

func TestDetectPlanFailure(t *testing.T) {
	client := newTestClient(&scriptedAPI{err: errors.New("rate limited")})

	_, err := client.DetectPlan(context.Background(), "headache", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeOracleUnavailable))
}
