package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает частоту запросов (RPM, с ожиданием)
// и часовой бюджет токенов (TPH, без ожидания).
type RateLimiter struct {
	requests *rate.Limiter

	tokensPerHour  int
	tokenBudget    int
	tokenMu        sync.Mutex
	tokenLastCheck time.Time
	now            func() time.Time
}

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(requestsPerMinute, tokensPerHour int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if tokensPerHour <= 0 {
		tokensPerHour = 400000
	}

	perRequest := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimiter{
		requests:       rate.NewLimiter(rate.Every(perRequest), requestsPerMinute),
		tokensPerHour:  tokensPerHour,
		tokenBudget:    tokensPerHour,
		tokenLastCheck: time.Now(),
		now:            time.Now,
	}
}

// WaitRequest блокируется до появления свободного слота запроса или отмены контекста.
func (rl *RateLimiter) WaitRequest(ctx context.Context) error {
	if err := rl.requests.Wait(ctx); err != nil {
		return fmt.Errorf("ожидание лимита запросов: %w", err)
	}
	return nil
}

// refillTokenBudget пополняет бюджет пропорционально прошедшему времени
func (rl *RateLimiter) refillTokenBudget() {
	now := rl.now()
	elapsed := now.Sub(rl.tokenLastCheck)

	tokensToAdd := int(elapsed.Hours() * float64(rl.tokensPerHour))
	if tokensToAdd <= 0 {
		return
	}

	rl.tokenBudget += tokensToAdd
	if rl.tokenBudget > rl.tokensPerHour {
		rl.tokenBudget = rl.tokensPerHour
	}
	rl.tokenLastCheck = now
}

// AllowTokens резервирует tokens из часового бюджета.
func (rl *RateLimiter) AllowTokens(tokens int) error {
	rl.tokenMu.Lock()
	defer rl.tokenMu.Unlock()

	rl.refillTokenBudget()

	if rl.tokenBudget < tokens {
		deficit := tokens - rl.tokenBudget
		waitTime := time.Duration(float64(time.Hour) * float64(deficit) / float64(rl.tokensPerHour))
		return fmt.Errorf("превышен лимит токенов (%d TPH): требуется %d, доступно %d, повторите через %v",
			rl.tokensPerHour, tokens, rl.tokenBudget, waitTime.Round(time.Second))
	}

	rl.tokenBudget -= tokens
	return nil
}

// ConsumeTokens списывает токены после успешного запроса
func (rl *RateLimiter) ConsumeTokens(tokens int) {
	rl.tokenMu.Lock()
	defer rl.tokenMu.Unlock()

	rl.tokenBudget -= tokens
	if rl.tokenBudget < 0 {
		rl.tokenBudget = 0
	}
}

// TokensAvailable возвращает остаток часового бюджета.
func (rl *RateLimiter) TokensAvailable() int {
	rl.tokenMu.Lock()
	defer rl.tokenMu.Unlock()
	rl.refillTokenBudget()
	return rl.tokenBudget
}
