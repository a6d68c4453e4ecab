package chatbot

import (
	"context"
	"strings"
	"time"

	"finlit-api/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const systemPrompt = "You are FinLit, a friendly and knowledgeable financial literacy assistant. " +
	"Provide helpful, educational, and neutral financial information. Do not give direct investment advice."

// FallbackResponse is returned whenever the completion service cannot
// be reached or answers with garbage. The relay never surfaces an
// error to its caller.
const FallbackResponse = "I'm sorry, I'm having trouble connecting to my knowledge base right now. Please try again later."

// Message is one turn of a conversation sent to the completion API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Relay forwards user queries to the chat completion API.
type Relay struct {
	client      *resty.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

func NewRelay(cfg config.OpenAI, logger *zap.Logger) *Relay {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Relay{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		logger:      logger,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Ask sends the query, preceded by the system prompt and any prior
// history, and returns the trimmed completion text. Any failure along
// the way (rate-limit wait, transport, non-200 status, empty choices)
// yields FallbackResponse; Ask never returns an error.
func (r *Relay) Ask(ctx context.Context, query string, history []Message) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("chat relay rate limit wait aborted", zap.Error(err))
		return FallbackResponse
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: query})

	var result completionResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       r.model,
			Messages:    messages,
			MaxTokens:   r.maxTokens,
			Temperature: r.temperature,
		}).
		SetResult(&result).
		Post("/chat/completions")

	if err != nil {
		r.logger.Warn("chat completion request failed", zap.Error(err))
		return FallbackResponse
	}
	if resp.StatusCode() != 200 || len(result.Choices) == 0 {
		r.logger.Warn("chat completion returned no usable answer",
			zap.Int("status", resp.StatusCode()))
		return FallbackResponse
	}

	return strings.TrimSpace(result.Choices[0].Message.Content)
}
