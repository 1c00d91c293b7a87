package oracle

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"health-concierge/backend/internal/models"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
	"health-concierge/backend/shared/observability"
)

// chatCompleter is the slice of the OpenAI client the oracle needs.
// Tests substitute a scripted implementation.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements Client on top of an OpenAI-compatible API
type OpenAIClient struct {
	api         chatCompleter
	model       string
	temperature float32
	log         *logger.Logger
}

// Options configures the OpenAI oracle client
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// NewOpenAIClient creates an oracle client against an OpenAI-compatible endpoint
func NewOpenAIClient(opts Options, log *logger.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIClient{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		log:         log,
	}
}

// NewOpenAIClientWithAPI creates an oracle client with an injected API,
// used by tests.
func NewOpenAIClientWithAPI(api chatCompleter, model string, log *logger.Logger) *OpenAIClient {
	return &OpenAIClient{api: api, model: model, log: log}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)

	system := req.Persona
	if req.Context != "" {
		system += "\n\n" + req.Context
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})

	for _, turn := range req.History {
		role := openai.ChatMessageRoleUser
		content := turn.Content
		if turn.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
			if turn.Speaker != "" {
				content = fmt.Sprintf("[%s] %s", turn.Speaker, turn.Content)
			}
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Input,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		observability.OracleFailuresTotal.WithLabelValues("complete").Inc()
		return "", apperrors.NewOracleUnavailableError("completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		observability.OracleFailuresTotal.WithLabelValues("complete").Inc()
		return "", apperrors.NewOracleUnavailableError("completion returned no choices", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Classify(ctx context.Context, message string, candidates []string) (string, error) {
	prompt := fmt.Sprintf(
		"Pick exactly one label from this list for the message below. Respond with the label only.\n\nLabels: %s\n\nMessage: %q",
		strings.Join(candidates, ", "), message,
	)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   16,
	})
	if err != nil {
		observability.OracleFailuresTotal.WithLabelValues("classify").Inc()
		return "", apperrors.NewOracleUnavailableError("classification request failed", err)
	}
	if len(resp.Choices) == 0 {
		observability.OracleFailuresTotal.WithLabelValues("classify").Inc()
		return "", apperrors.NewOracleUnavailableError("classification returned no choices", nil)
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	for _, candidate := range candidates {
		if strings.EqualFold(answer, candidate) {
			return candidate, nil
		}
	}
	return "", apperrors.NewOracleUnavailableError(
		fmt.Sprintf("classification produced unknown label %q", answer), nil)
}

const planDetectionPrompt = `You are a physician creating personalized health plans.

A user has mentioned a health condition or concern. Your task is to:
1. Analyze if this requires a structured plan with daily tasks
2. If yes, create a comprehensive plan with specific daily tasks

Health conditions that typically need structured plans include:
- Pain conditions (back pain, neck pain, joint pain)
- Mobility issues
- Stress/anxiety management
- Sleep disorders
- Recovery from injuries
- Chronic conditions requiring daily management
- Fitness goals

User's message: %q

Context from previous conversations:
%s

If this message indicates a health condition that would benefit from a structured plan, respond with:
` + "```json" + `
{
    "needs_plan": true,
    "condition": "brief description of the condition",
    "plan_name": "descriptive plan name",
    "timeline_days": 7,
    "tasks": ["Task 1", "Task 2", "Task 3", "Task 4", "Task 5"]
}
` + "```" + `

If this is just a general health question or doesn't need a structured plan, respond with:
` + "```json" + `
{
    "needs_plan": false,
    "reason": "explanation why no plan is needed"
}
` + "```" + `

Guidelines for creating plans:
- Maximum 7 days timeline
- 5-8 specific, actionable tasks
- Tasks should be daily activities
- Focus on evidence-based interventions
- Make tasks realistic and achievable

Be strict about when plans are needed.`

func (c *OpenAIClient) DetectPlan(ctx context.Context, message, context string) (*PlanDraft, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(planDetectionPrompt, message, context),
			},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		observability.OracleFailuresTotal.WithLabelValues("detect_plan").Inc()
		return nil, apperrors.NewOracleUnavailableError("plan detection request failed", err)
	}
	if len(resp.Choices) == 0 {
		observability.OracleFailuresTotal.WithLabelValues("detect_plan").Inc()
		return nil, apperrors.NewOracleUnavailableError("plan detection returned no choices", nil)
	}

	draft, err := ParsePlanDraft(resp.Choices[0].Message.Content)
	if err != nil {
		c.log.Warn("Plan detection produced unparseable output", "error", err.Error())
		return nil, err
	}
	return draft, nil
}
