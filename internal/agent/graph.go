package agent

import (
	"context"
	"errors"
	"fmt"

	"jobFeed/internal/logger"
	"jobFeed/internal/retry"
	"jobFeed/internal/tools"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var ErrStepLimit = errors.New("превышен лимит шагов графа")

const seedPrompt = "search for jobs using the following query: %s"

// State - история диалога одного запуска. Сообщения только добавляются,
// кроме результата search_jobs, который заменяется обогащённой версией.
type State struct {
	Messages []openai.ChatCompletionMessage
}

func (s *State) last() *openai.ChatCompletionMessage {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

func (s *State) append(msg openai.ChatCompletionMessage) {
	s.Messages = append(s.Messages, msg)
}

// Graph - конечный автомат:
// call_model → dispatch_tools → handle_<tool> → call_model | analyze_results → end.
type Graph struct {
	model    ChatModel
	tools    []openai.Tool
	executor ToolExecutor
	enricher *Enricher
	analyzer *Analyzer
	log      *logger.Zap
	cfg      Config
}

func NewGraph(model ChatModel, toolDefs []openai.Tool, executor ToolExecutor, enricher *Enricher, analyzer *Analyzer, log *logger.Zap, cfg Config) *Graph {
	return &Graph{
		model:    model,
		tools:    toolDefs,
		executor: executor,
		enricher: enricher,
		analyzer: analyzer,
		log:      log,
		cfg:      cfg.withDefaults(),
	}
}

// Run запускает граф с одним пользовательским сообщением и возвращает
// содержимое последнего сообщения.
func (g *Graph) Run(ctx context.Context, query string) (string, error) {
	state := &State{}
	state.append(openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf(seedPrompt, query),
	})

	node := NodeCallModel
	kind := tools.KindUnknown

	for step := 0; node != NodeEnd; step++ {
		if step >= g.cfg.MaxSteps {
			return "", fmt.Errorf("%w (%d)", ErrStepLimit, g.cfg.MaxSteps)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		g.log.Debug("Переход графа", zap.Int("step", step+1), zap.Stringer("node", node))

		var err error
		switch node {
		case NodeCallModel:
			node, err = g.callModel(ctx, state)
		case NodeDispatchTools:
			node, kind, err = g.dispatchTools(ctx, state)
		case NodeHandleTool:
			node, err = g.handleTool(ctx, state, kind)
		case NodeAnalyzeResults:
			node, err = g.analyzeResults(ctx, state)
		default:
			return "", fmt.Errorf("неизвестное состояние графа: %v", node)
		}
		if err != nil {
			return "", err
		}
	}

	return state.last().Content, nil
}

func (g *Graph) callModel(ctx context.Context, state *State) (Node, error) {
	var msg openai.ChatCompletionMessage
	err := retry.Do(ctx, g.cfg.Retries, g.cfg.RetryDelay, func() error {
		var callErr error
		msg, callErr = g.model.Chat(ctx, state.Messages, g.tools)
		return callErr
	})
	if err != nil {
		return NodeEnd, fmt.Errorf("ошибка вызова модели: %w", err)
	}

	msg.Role = openai.ChatMessageRoleAssistant
	state.append(msg)

	if len(msg.ToolCalls) > 0 {
		return NodeDispatchTools, nil
	}
	return NodeEnd, nil
}

func (g *Graph) analyzeResults(ctx context.Context, state *State) (Node, error) {
	out, err := g.analyzer.Analyze(ctx, state.last().Content)
	if err != nil {
		return NodeEnd, err
	}
	state.append(openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: out,
	})
	return NodeEnd, nil
}
