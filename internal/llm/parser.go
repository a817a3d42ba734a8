package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ParseArguments разбирает JSON аргументов вызова инструмента.
// Пустая строка даёт пустой набор аргументов.
func ParseArguments(call openai.ToolCall) (map[string]any, error) {
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("ошибка парсинга аргументов %s: %w", call.Function.Name, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
