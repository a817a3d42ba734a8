// Package retry классифицирует ошибки внешних вызовов и повторяет временные сбои.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Class int

const (
	Temporary Class = iota
	Critical
	Retryable
)

func (c Class) String() string {
	switch c {
	case Temporary:
		return "temporary"
	case Critical:
		return "critical"
	case Retryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// StatusError - неуспешный HTTP-ответ внешнего сервиса.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("неожиданный статус %d", e.Code)
	}
	return fmt.Sprintf("неожиданный статус %d: %s", e.Code, e.Body)
}

const maxDelay = 30 * time.Second

func classifyStatus(code int) Class {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return Retryable
	case code >= 500:
		return Retryable
	default:
		return Critical
	}
}

// Classify определяет, стоит ли повторять вызов.
func Classify(err error) Class {
	if err == nil {
		return Temporary
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.Code)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.Canceled) {
		return Critical
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Retryable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Critical
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "econnrefused") ||
		strings.Contains(errStr, "etimedout") ||
		strings.Contains(errStr, "unexpected eof") {
		return Retryable
	}

	return Critical
}

// Do вызывает fn до attempts раз с экспоненциальной задержкой, начиная с baseDelay.
// Критическая ошибка возвращается сразу.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(baseDelay) * math.Pow(2, float64(attempt-1)))
			if delay > maxDelay {
				delay = maxDelay
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if Classify(err) == Critical {
			return err
		}
	}

	return fmt.Errorf("после %d попыток: %w", attempts, lastErr)
}
