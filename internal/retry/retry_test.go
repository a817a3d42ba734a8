package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"rate limited", &StatusError{Code: 429}, Retryable},
		{"server error", fmt.Errorf("tavily: %w", &StatusError{Code: 502}), Retryable},
		{"bad request", &StatusError{Code: 400}, Critical},
		{"openai overloaded", &openai.APIError{HTTPStatusCode: 503}, Retryable},
		{"openai unauthorized", &openai.APIError{HTTPStatusCode: 401}, Critical},
		{"canceled", context.Canceled, Critical},
		{"connection reset", errors.New("read tcp: connection reset by peer"), Retryable},
		{"other", errors.New("invalid argument"), Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDo_RetriesRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &StatusError{Code: 503}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnCritical(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return &StatusError{Code: 404}
	})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return &StatusError{Code: 500}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "после 2 попыток")
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 3, time.Hour, func() error {
		calls++
		cancel()
		return &StatusError{Code: 500}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
