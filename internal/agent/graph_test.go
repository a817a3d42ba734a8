package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"jobFeed/internal/logger"
	"jobFeed/internal/tools"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(model ChatModel, exec ToolExecutor, completer Completer, cfg Config) *Graph {
	log := logger.NewNop()
	enricher := NewEnricher(&fakeSearcher{}, &fakeScraper{}, log, cfg)
	enricher.sleep = noSleep
	enricher.randDelay = zeroDelay
	analyzer := NewAnalyzer(completer, fakeProfiles{profile: map[string]any{"name": "Test"}}, log, cfg)
	return NewGraph(model, nil, exec, enricher, analyzer, log, cfg)
}

func TestGraph_NoToolCallsEndsWithModelAnswer(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{answer("nothing to do")}}
	g := newTestGraph(model, &fakeExecutor{}, &fakeCompleter{}, testConfig())

	out, err := g.Run(context.Background(), "Go Developer")
	require.NoError(t, err)
	assert.Equal(t, "nothing to do", out)

	require.Len(t, model.calls, 1)
	require.Len(t, model.calls[0], 1)
	assert.Equal(t, openai.ChatMessageRoleUser, model.calls[0][0].Role)
	assert.Equal(t, "search for jobs using the following query: Go Developer", model.calls[0][0].Content)
}

func TestGraph_SearchJobsGoesToAnalysis(t *testing.T) {
	jobs := `[
		{"job_title": "Backend Engineer", "company": "Acme", "linkedin_url": "https://example.com/1"},
		{"job_title": "Platform Engineer", "company": "Globex", "linkedin_url": "https://example.com/2"}
	]`
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", tools.NameSearchJobs, `{"keywords":"go"}`),
	}}
	exec := &fakeExecutor{results: map[string]string{tools.NameSearchJobs: jobs}}
	completer := &fakeCompleter{titles: []string{"Backend Engineer", "Platform Engineer"}}

	g := newTestGraph(model, exec, completer, testConfig())
	out, err := g.Run(context.Background(), "go")
	require.NoError(t, err)

	// после search_jobs модель больше не вызывается
	assert.Len(t, model.calls, 1)

	var results []JobAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, JobAnalysis{JobTitle: "Backend Engineer", JobHTML: "html:Backend Engineer"}, results[0])
	assert.Equal(t, JobAnalysis{JobTitle: "Platform Engineer", JobHTML: "html:Platform Engineer"}, results[1])

	// в промпт анализа попали обогащённые поля
	require.NotEmpty(t, completer.prompts)
	assert.Contains(t, completer.prompts[0], "company_description")
	assert.Contains(t, completer.prompts[0], "job_description")
}

func TestGraph_OtherToolsReturnToModel(t *testing.T) {
	// перебор до первого Kind без имени: новый инструмент попадёт в тест автоматически
	var kinds []tools.Kind
	for k := tools.KindUnknown + 1; k.String() != "unknown"; k++ {
		if k != tools.KindSearchJobs {
			kinds = append(kinds, k)
		}
	}
	require.Len(t, kinds, 6)

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			name := kind.String()
			model := &scriptedModel{responses: []openai.ChatCompletionMessage{
				toolCall("call_1", name, `{"job_id":"42"}`),
				answer("done"),
			}}
			exec := &fakeExecutor{results: map[string]string{name: `{"title":"x"}`}}

			g := newTestGraph(model, exec, &fakeCompleter{}, testConfig())
			out, err := g.Run(context.Background(), "go")
			require.NoError(t, err)
			assert.Equal(t, "done", out)

			require.Len(t, model.calls, 2)
			second := model.calls[1]
			require.Len(t, second, 3)
			toolMsg := second[2]
			assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
			assert.Equal(t, name, toolMsg.Name)
			assert.Equal(t, "call_1", toolMsg.ToolCallID)
			assert.Equal(t, `{"title":"x"}`, toolMsg.Content)
		})
	}
}

func TestGraph_ToolErrorBecomesMessage(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", tools.NameGetCompanyProfile, `{}`),
		answer("recovered"),
	}}
	exec := &fakeExecutor{errs: map[string]error{tools.NameGetCompanyProfile: errors.New("boom")}}

	g := newTestGraph(model, exec, &fakeCompleter{}, testConfig())
	out, err := g.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)

	require.Len(t, model.calls, 2)
	assert.Equal(t, "Error: boom", model.calls[1][2].Content)
}

func TestGraph_InvalidArgumentsBecomeMessage(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", tools.NameGetJobDetails, `{not json`),
		answer("ok"),
	}}
	exec := &fakeExecutor{results: map[string]string{tools.NameGetJobDetails: "unused"}}

	g := newTestGraph(model, exec, &fakeCompleter{}, testConfig())
	_, err := g.Run(context.Background(), "go")
	require.NoError(t, err)

	assert.Empty(t, exec.invoked)
	assert.Contains(t, model.calls[1][2].Content, "Error: ")
}

func TestGraph_UnknownToolEnds(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", "delete_everything", `{}`),
	}}
	g := newTestGraph(model, &fakeExecutor{}, &fakeCompleter{}, testConfig())

	out, err := g.Run(context.Background(), "go")
	require.NoError(t, err)
	assert.Len(t, model.calls, 1)
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "delete_everything")
}

func TestGraph_MultipleCallsRouteOnLast(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{ID: "a", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: tools.NameGetJobDetails, Arguments: `{}`}},
			{ID: "b", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: tools.NameSearchJobs, Arguments: `{}`}},
		},
	}
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{msg}}
	exec := &fakeExecutor{results: map[string]string{
		tools.NameGetJobDetails: "details",
		tools.NameSearchJobs:    `[{"job_title":"Only"}]`,
	}}
	completer := &fakeCompleter{titles: []string{"Only"}}

	g := newTestGraph(model, exec, completer, testConfig())
	out, err := g.Run(context.Background(), "go")
	require.NoError(t, err)

	assert.Equal(t, []string{tools.NameGetJobDetails, tools.NameSearchJobs}, exec.invoked)

	var results []JobAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "html:Only", results[0].JobHTML)
}

func TestGraph_StepLimit(t *testing.T) {
	loop := toolCall("call", tools.NameGetJobDetails, `{}`)
	model := &scriptedModel{repeat: &loop}
	exec := &fakeExecutor{results: map[string]string{tools.NameGetJobDetails: "again"}}

	cfg := testConfig()
	cfg.MaxSteps = 7
	g := newTestGraph(model, exec, &fakeCompleter{}, cfg)

	_, err := g.Run(context.Background(), "go")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepLimit)
}

func TestGraph_ModelErrorFailsRun(t *testing.T) {
	model := &scriptedModel{}
	g := newTestGraph(model, &fakeExecutor{}, &fakeCompleter{}, testConfig())

	_, err := g.Run(context.Background(), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка вызова модели")
}

func TestGraph_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &scriptedModel{responses: []openai.ChatCompletionMessage{answer("never")}}
	g := newTestGraph(model, &fakeExecutor{}, &fakeCompleter{}, testConfig())

	_, err := g.Run(ctx, "go")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, model.calls)
}

func TestGraph_EnrichAbortFailsRun(t *testing.T) {
	model := &scriptedModel{responses: []openai.ChatCompletionMessage{
		toolCall("call_1", tools.NameSearchJobs, `{}`),
	}}
	exec := &fakeExecutor{results: map[string]string{
		tools.NameSearchJobs: `[{"job_title":"A","company":"Acme","linkedin_url":"u"}]`,
	}}

	cfg := testConfig()
	cfg.EnrichPolicy = PolicyAbort
	log := logger.NewNop()
	enricher := NewEnricher(&fakeSearcher{errs: map[string]error{"Acme": errors.New("quota")}}, &fakeScraper{}, log, cfg)
	enricher.sleep = noSleep
	analyzer := NewAnalyzer(&fakeCompleter{}, fakeProfiles{profile: map[string]any{}}, log, cfg)
	g := NewGraph(model, nil, exec, enricher, analyzer, log, cfg)

	_, err := g.Run(context.Background(), "go")
	require.Error(t, err)

	var enrichErr *EnrichError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, 0, enrichErr.Index)
	assert.Equal(t, fieldCompanyDescription, enrichErr.Field)
}

func TestNode_String(t *testing.T) {
	assert.Equal(t, "call_model", NodeCallModel.String())
	assert.Equal(t, "analyze_results", NodeAnalyzeResults.String())
	assert.Equal(t, "end", NodeEnd.String())
	assert.Equal(t, "unknown", Node(99).String())
}

func TestParseEnrichPolicy(t *testing.T) {
	p, err := ParseEnrichPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyIsolate, p)

	p, err = ParseEnrichPolicy(" Abort ")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	_, err = ParseEnrichPolicy("retry")
	assert.Error(t, err)
}

func TestGraph_SearchJobsEdgeContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "not json", msgInvalidJobData},
		{"empty list", "[]", msgNoJobs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{responses: []openai.ChatCompletionMessage{
				toolCall("call_1", tools.NameSearchJobs, `{"keywords":"AI Engineer"}`),
			}}
			exec := &fakeExecutor{results: map[string]string{tools.NameSearchJobs: tt.content}}
			completer := &fakeCompleter{}

			g := newTestGraph(model, exec, completer, testConfig())
			out, err := g.Run(context.Background(), "AI Engineer")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Empty(t, completer.prompts)
		})
	}
}
