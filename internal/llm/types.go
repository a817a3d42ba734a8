// Package llm - клиент OpenAI-совместимой модели с вызовом инструментов.
// Включает rate limiting и логирование запросов в БД.
package llm

import "context"

// Logger определяет интерфейс для логирования LLM запросов.
type Logger interface {
	// LogLLMRequest сохраняет информацию о запросе к LLM в базу данных.
	LogLLMRequest(ctx context.Context, runID *uint, role, promptText, responseText, model string, tokensUsed int) error
}

// Роли записей в llm_logs.
const (
	RoleChat          = "chat"
	RoleChatError     = "chat_error"
	RoleAnalysis      = "analysis"
	RoleAnalysisError = "analysis_error"
)

type runIDKey struct{}

// ContextWithRunID привязывает запросы к запуску пайплайна для llm_logs.
func ContextWithRunID(ctx context.Context, runID uint) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFromContext(ctx context.Context) *uint {
	if id, ok := ctx.Value(runIDKey{}).(uint); ok {
		return &id
	}
	return nil
}
