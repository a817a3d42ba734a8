package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"jobFeed/internal/tools"

	"github.com/sashabaranov/go-openai"
)

// scriptedModel отдаёт заранее заданные ответы по очереди и запоминает,
// с какой историей его вызывали.
type scriptedModel struct {
	mu        sync.Mutex
	responses []openai.ChatCompletionMessage
	repeat    *openai.ChatCompletionMessage
	calls     [][]openai.ChatCompletionMessage
	tools     [][]openai.Tool
}

func (m *scriptedModel) Chat(_ context.Context, messages []openai.ChatCompletionMessage, toolDefs []openai.Tool) (openai.ChatCompletionMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]openai.ChatCompletionMessage, len(messages))
	copy(history, messages)
	m.calls = append(m.calls, history)
	m.tools = append(m.tools, toolDefs)

	if len(m.responses) == 0 {
		if m.repeat != nil {
			return *m.repeat, nil
		}
		return openai.ChatCompletionMessage{}, errors.New("сценарий модели исчерпан")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func toolCall(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:   id,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

func answer(text string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}
}

type fakeExecutor struct {
	mu      sync.Mutex
	results map[string]string
	errs    map[string]error
	invoked []string
}

func (f *fakeExecutor) Invoke(_ context.Context, name string, _ map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoked = append(f.invoked, name)
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	if out, ok := f.results[name]; ok {
		return out, nil
	}
	return "", fmt.Errorf("%w: %s", tools.ErrToolNotBound, name)
}

// fakeInvoker - удалённый сервер инструментов для тестов Agent.
type fakeInvoker struct {
	fakeExecutor
	descriptors []tools.Descriptor
	listErr     error
}

func (f *fakeInvoker) ListTools(context.Context) ([]tools.Descriptor, error) {
	return f.descriptors, f.listErr
}

func (f *fakeInvoker) InvokeTool(ctx context.Context, name string, args map[string]any) (string, error) {
	return f.Invoke(ctx, name, args)
}

type fakeSearcher struct {
	mu    sync.Mutex
	descs map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeSearcher) Search(_ context.Context, company string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, company)
	if err, ok := f.errs[company]; ok {
		return "", err
	}
	if d, ok := f.descs[company]; ok {
		return d, nil
	}
	return "about " + company, nil
}

type fakeScraper struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []string
}

func (f *fakeScraper) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return "description of " + url, nil
}

// fakeCompleter отвечает "html:<title>" для вакансии, название которой есть в промпте.
// delays задаёт паузу ответа по названию, errs - ошибку.
type fakeCompleter struct {
	titles []string
	delays map[string]time.Duration
	errs   map[string]error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	title := ""
	for _, t := range f.titles {
		if strings.Contains(prompt, fmt.Sprintf("%q: %q", "job_title", t)) {
			title = t
			break
		}
	}

	if d := f.delays[title]; d > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d):
		}
	}
	if err, ok := f.errs[title]; ok {
		return "", err
	}
	return "html:" + title, nil
}

type fakeProfiles struct {
	profile any
	err     error
}

func (f fakeProfiles) Read(string) (any, error) {
	return f.profile, f.err
}

func testConfig() Config {
	return Config{
		MaxSteps:       25,
		Retries:        1,
		RetryDelay:     time.Millisecond,
		EnrichMinDelay: time.Millisecond,
		EnrichMaxDelay: time.Millisecond,
		MaxConcurrency: 5,
		ProfilePath:    "profile.json",
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

func zeroDelay(time.Duration, time.Duration) time.Duration { return 0 }
