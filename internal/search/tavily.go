// Package search - поиск описания компании через Tavily.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobFeed/internal/logger"
	"jobFeed/internal/retry"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://api.tavily.com/search"
	defaultTimeout  = 30 * time.Second
)

var ErrNoAPIKey = errors.New("не задан TAVILY_API_KEY")

type request struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer string `json:"include_answer"`
}

type response struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	attempts   int
	retryDelay time.Duration
	log        *logger.Zap
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

func NewClient(apiKey string, log *logger.Zap, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		attempts:   3,
		retryDelay: 2 * time.Second,
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search возвращает краткое описание компании: поле answer,
// а если оно пустое, склеенные content результатов.
func (c *Client) Search(ctx context.Context, company string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(request{
		Query:         fmt.Sprintf("who are %s as a company", company),
		MaxResults:    1,
		IncludeAnswer: "advanced",
	})
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	var resp response
	err = retry.Do(ctx, c.attempts, c.retryDelay, func() error {
		var callErr error
		resp, callErr = c.do(ctx, body)
		return callErr
	})
	if err != nil {
		c.log.Warn("Ошибка поиска компании", zap.String("company", company), zap.Error(err))
		return "", fmt.Errorf("tavily: %w", err)
	}

	if answer := strings.TrimSpace(resp.Answer); answer != "" {
		return answer, nil
	}

	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if content := strings.TrimSpace(r.Content); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func (c *Client) do(ctx context.Context, body []byte) (response, error) {
	var out response

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return out, &retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("некорректный ответ: %w", err)
	}
	return out, nil
}
