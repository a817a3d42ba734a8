package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobFeed/internal/sanitizer"

	"github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	MaxTokens         int
	RequestsPerMinute int
	TokensPerHour     int
}

type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	logger      Logger
	sanitizer   *sanitizer.DataSanitizer
	rateLimiter *RateLimiter
}

var ErrEmptyResponse = errors.New("пустой ответ от OpenAI")

func NewClient(cfg Config, logger Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
		sanitizer:   sanitizer.New(),
		rateLimiter: NewRateLimiter(cfg.RequestsPerMinute, cfg.TokensPerHour),
	}
}

func (c *Client) Model() string {
	return c.model
}

// Chat отправляет историю диалога вместе с доступными инструментами
// и возвращает сообщение ассистента (текст или вызовы инструментов).
func (c *Client) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: c.maxTokens,
	}

	resp, err := c.createChatCompletionWithRateLimit(ctx, req)
	if err != nil {
		c.log(ctx, RoleChatError, formatMessages(messages), err.Error(), 0)
		return openai.ChatCompletionMessage{}, fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.log(ctx, RoleChatError, formatMessages(messages), ErrEmptyResponse.Error(), resp.Usage.TotalTokens)
		return openai.ChatCompletionMessage{}, ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	c.log(ctx, RoleChat, formatMessages(messages), formatMessage(msg), resp.Usage.TotalTokens)
	return msg, nil
}

// Complete выполняет одиночный запрос без инструментов.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	}

	resp, err := c.createChatCompletionWithRateLimit(ctx, req)
	if err != nil {
		c.log(ctx, RoleAnalysisError, prompt, err.Error(), 0)
		return "", fmt.Errorf("ошибка запроса к OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		c.log(ctx, RoleAnalysisError, prompt, ErrEmptyResponse.Error(), resp.Usage.TotalTokens)
		return "", ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	c.log(ctx, RoleAnalysis, prompt, content, resp.Usage.TotalTokens)
	return content, nil
}

// createChatCompletionWithRateLimit выполняет запрос с проверкой rate limit
func (c *Client) createChatCompletionWithRateLimit(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := c.rateLimiter.WaitRequest(ctx); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	// Грубая оценка: ~4 символа на токен
	estimatedTokens := 0
	for _, msg := range req.Messages {
		estimatedTokens += len(msg.Content) / 4
	}
	estimatedTokens += req.MaxTokens

	if err := c.rateLimiter.AllowTokens(estimatedTokens); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, err
	}

	// Корректируем использованные токены (теперь знаем точное значение)
	if resp.Usage.TotalTokens > estimatedTokens {
		c.rateLimiter.ConsumeTokens(resp.Usage.TotalTokens - estimatedTokens)
	}

	return resp, nil
}

func (c *Client) log(ctx context.Context, role, prompt, response string, tokens int) {
	if c.logger == nil {
		return
	}
	_ = c.logger.LogLLMRequest(ctx, RunIDFromContext(ctx), role,
		c.sanitizer.Sanitize(prompt), c.sanitizer.Sanitize(response), c.model, tokens)
}

func formatMessages(messages []openai.ChatCompletionMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(formatMessage(m))
	}
	return b.String()
}

func formatMessage(m openai.ChatCompletionMessage) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(m.Role)
	if m.Name != "" {
		b.WriteString(":")
		b.WriteString(m.Name)
	}
	b.WriteString("] ")
	b.WriteString(m.Content)
	for _, call := range m.ToolCalls {
		fmt.Fprintf(&b, "\n-> %s(%s)", call.Function.Name, call.Function.Arguments)
	}
	return b.String()
}
