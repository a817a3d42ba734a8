package llm

import (
	"jobFeed/internal/tools"

	"github.com/sashabaranov/go-openai"
)

var emptySchema = map[string]any{
	"type":       "object",
	"properties": map[string]any{},
}

// ToOpenAITools превращает дескрипторы инструментов в function tools.
func ToOpenAITools(descriptors []tools.Descriptor) []openai.Tool {
	if len(descriptors) == 0 {
		return nil
	}

	out := make([]openai.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		schema := d.Schema
		if schema == nil {
			schema = emptySchema
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  schema,
			},
		})
	}
	return out
}
