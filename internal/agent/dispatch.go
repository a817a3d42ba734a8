package agent

import (
	"context"

	"jobFeed/internal/llm"
	"jobFeed/internal/retry"
	"jobFeed/internal/tools"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// dispatchTools выполняет все вызовы инструментов из последнего сообщения модели.
// На каждый вызов добавляется одно сообщение с результатом; ошибки превращаются
// в текст "Error: ...", чтобы модель могла на них отреагировать.
// Маршрут выбирается по имени инструмента последнего результата.
func (g *Graph) dispatchTools(ctx context.Context, state *State) (Node, tools.Kind, error) {
	calls := state.last().ToolCalls

	for _, call := range calls {
		content := g.executeCall(ctx, call)
		if err := ctx.Err(); err != nil {
			return NodeEnd, tools.KindUnknown, err
		}
		state.append(openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Name:       call.Function.Name,
			ToolCallID: call.ID,
			Content:    content,
		})
	}

	name := state.last().Name
	kind := tools.ParseKind(name)
	if kind == tools.KindUnknown {
		g.log.Warn("Неизвестный инструмент, завершение графа", zap.String("tool", name))
		return NodeEnd, kind, nil
	}
	return NodeHandleTool, kind, nil
}

func (g *Graph) executeCall(ctx context.Context, call openai.ToolCall) string {
	args, err := llm.ParseArguments(call)
	if err != nil {
		return "Error: " + err.Error()
	}

	var out string
	err = retry.Do(ctx, g.cfg.Retries, g.cfg.RetryDelay, func() error {
		var callErr error
		out, callErr = g.executor.Invoke(ctx, call.Function.Name, args)
		return callErr
	})
	if err != nil {
		g.log.Warn("Ошибка выполнения инструмента",
			zap.String("tool", call.Function.Name),
			zap.Error(err),
		)
		return "Error: " + err.Error()
	}

	g.log.Info("Инструмент выполнен",
		zap.String("tool", call.Function.Name),
		zap.Int("bytes", len(out)),
	)
	return out
}
