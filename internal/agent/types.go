// Package agent реализует граф оркестрации агента поиска вакансий:
// вызов модели, выполнение инструментов, обработчики результатов,
// обогащение вакансий и параллельный анализ соответствия профилю.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatModel - модель с поддержкой вызова инструментов.
type ChatModel interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// Completer - одиночный запрос к модели без инструментов.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ToolExecutor выполняет инструмент по имени.
type ToolExecutor interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// CompanySearcher возвращает краткое описание компании.
type CompanySearcher interface {
	Search(ctx context.Context, company string) (string, error)
}

// JobScraper возвращает текст описания вакансии по URL.
type JobScraper interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ProfileStore читает JSON-профиль кандидата.
type ProfileStore interface {
	Read(path string) (any, error)
}

// Node - состояние графа.
type Node int

const (
	NodeCallModel Node = iota
	NodeDispatchTools
	NodeHandleTool
	NodeAnalyzeResults
	NodeEnd
)

func (n Node) String() string {
	switch n {
	case NodeCallModel:
		return "call_model"
	case NodeDispatchTools:
		return "dispatch_tools"
	case NodeHandleTool:
		return "handle_tool"
	case NodeAnalyzeResults:
		return "analyze_results"
	case NodeEnd:
		return "end"
	default:
		return "unknown"
	}
}

// EnrichPolicy определяет реакцию на ошибку получения данных одной вакансии.
type EnrichPolicy int

const (
	// PolicyIsolate: поле остаётся пустым, обработка продолжается.
	PolicyIsolate EnrichPolicy = iota
	// PolicyAbort: ошибка прерывает обогащение и весь запуск графа.
	PolicyAbort
)

func ParseEnrichPolicy(s string) (EnrichPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "isolate":
		return PolicyIsolate, nil
	case "abort":
		return PolicyAbort, nil
	default:
		return PolicyIsolate, fmt.Errorf("неизвестная политика обогащения: %q", s)
	}
}

func (p EnrichPolicy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "isolate"
}

// Config содержит конфигурацию графа и шагов обогащения и анализа.
type Config struct {
	MaxSteps       int           // Лимит переходов графа за один запуск
	Retries        int           // Попытки для временных ошибок модели и инструментов
	RetryDelay     time.Duration // Базовая задержка между попытками
	EnrichMinDelay time.Duration // Пауза перед каждой вакансией: нижняя граница
	EnrichMaxDelay time.Duration // Пауза перед каждой вакансией: верхняя граница
	EnrichPolicy   EnrichPolicy
	MaxConcurrency int    // Одновременных запросов анализа
	ProfilePath    string // Путь к JSON-профилю кандидата
}

func (c Config) withDefaults() Config {
	if c.MaxSteps == 0 {
		c.MaxSteps = 25
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.EnrichMinDelay == 0 && c.EnrichMaxDelay == 0 {
		c.EnrichMinDelay = 3 * time.Second
		c.EnrichMaxDelay = 10 * time.Second
	}
	if c.EnrichMaxDelay < c.EnrichMinDelay {
		c.EnrichMaxDelay = c.EnrichMinDelay
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 5
	}
	return c
}
