// Package pipeline выполняет один цикл обновления ленты: запуск агента,
// публикацию результата и учёт запуска в базе.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"jobFeed/internal/database"
	"jobFeed/internal/feed"
	"jobFeed/internal/llm"
	"jobFeed/internal/logger"

	"go.uber.org/zap"
)

const (
	logSource     = "RSS_Feed"
	fallbackQuery = "AI Engineer"
	summaryLimit  = 2000
)

var ErrRunInProgress = errors.New("обновление ленты уже выполняется")

// DefaultQueries - запросы, из которых выбирается случайный, если запрос не задан.
var DefaultQueries = []string{
	"Azure AI Engineer",
	"Senior AI Engineer",
	"IoT Solutions Developer",
	"Cloud AI Developer",
	"Python AI Engineer",
	"LangChain Developer",
	"Generative AI Engineer",
	"Semantic Kernel Engineer",
	"Azure IoT Developer",
	"Azure Cognitive Services",
	`"AI Engineer" AND (Python OR C#) AND Azure`,
	`"Software Engineer" AND (LangChain OR LangGraph)`,
	`"IoT Developer" AND (Azure OR Python)`,
	`"Automation Engineer" AND (AI OR Azure)`,
}

type Agent interface {
	Run(ctx context.Context, query string) (string, error)
}

type Publisher interface {
	Publish(content string) (feed.Result, error)
	Path() string
}

type RunStore interface {
	CreateRun(run *database.PipelineRun) error
	MarkRunStarted(id uint) error
	FinishRun(id uint, status, summary string, jobsPublished int) error
}

type LogStore interface {
	ClearLogs(ctx context.Context) (int64, error)
}

// Sink - приёмник записей (level, source, message, details).
type Sink interface {
	Info(ctx context.Context, source, message string, details map[string]any)
	Warn(ctx context.Context, source, message string, details map[string]any)
	Error(ctx context.Context, source, message string, details map[string]any)
}

// Deps собирается в cmd и передаётся в Runner целиком.
type Deps struct {
	Agent   Agent
	Feed    Publisher
	Runs    RunStore
	Logs    LogStore
	Sink    Sink
	Log     *logger.Zap
	Queries []string
	// Rand возвращает число из [0, n). По умолчанию math/rand/v2.
	Rand func(n int) int
}

type Runner struct {
	d       Deps
	running atomic.Bool
}

func NewRunner(d Deps) *Runner {
	if len(d.Queries) == 0 {
		d.Queries = DefaultQueries
	}
	if d.Rand == nil {
		d.Rand = rand.IntN
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return &Runner{d: d}
}

// InProgress сообщает, выполняется ли сейчас обновление.
func (r *Runner) InProgress() bool {
	return r.running.Load()
}

// PickQuery возвращает случайный запрос из списка.
func (r *Runner) PickQuery() string {
	if len(r.d.Queries) == 0 {
		return fallbackQuery
	}
	q := r.d.Queries[r.d.Rand(len(r.d.Queries))]
	if q == "" {
		return fallbackQuery
	}
	return q
}

// Run выполняет обновление синхронно. Пустой запрос заменяется случайным.
// Параллельный вызов получает ErrRunInProgress.
func (r *Runner) Run(ctx context.Context, query string) (*database.PipelineRun, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	run, err := r.create(query)
	if err != nil {
		return nil, err
	}
	return run, r.execute(ctx, run)
}

// Start регистрирует запуск и выполняет его в фоне. Возвращается копия
// записи в статусе pending.
func (r *Runner) Start(ctx context.Context, query string) (database.PipelineRun, error) {
	if !r.running.CompareAndSwap(false, true) {
		return database.PipelineRun{}, ErrRunInProgress
	}

	run, err := r.create(query)
	if err != nil {
		r.running.Store(false)
		return database.PipelineRun{}, err
	}
	snapshot := *run

	go func() {
		defer r.running.Store(false)
		_ = r.execute(ctx, run)
	}()
	return snapshot, nil
}

// UpdateFeed - задача планировщика: обновление со случайным запросом.
// Пересечение с идущим запуском только логируется.
func (r *Runner) UpdateFeed(ctx context.Context) {
	if _, err := r.Run(ctx, ""); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			r.d.Log.Warn("Обновление ленты пропущено: предыдущий запуск ещё идёт")
			return
		}
		r.d.Log.Error("Ошибка обновления ленты", zap.Error(err))
	}
}

// ClearLogs очищает таблицу logs.
func (r *Runner) ClearLogs(ctx context.Context) {
	n, err := r.d.Logs.ClearLogs(ctx)
	if err != nil {
		r.d.Log.Error("Ошибка очистки логов", zap.Error(err))
		return
	}
	r.d.Log.Info("Логи очищены", zap.Int64("deleted", n))
}

func (r *Runner) create(query string) (*database.PipelineRun, error) {
	if query == "" {
		query = r.PickQuery()
	}
	run := &database.PipelineRun{Query: query, Status: database.RunStatusPending}
	if err := r.d.Runs.CreateRun(run); err != nil {
		return nil, fmt.Errorf("ошибка создания записи запуска: %w", err)
	}
	return run, nil
}

func (r *Runner) execute(ctx context.Context, run *database.PipelineRun) error {
	ctx = llm.ContextWithRunID(ctx, run.ID)
	log := r.d.Log.With(zap.Uint("run_id", run.ID), zap.String("query", run.Query))

	if err := r.d.Runs.MarkRunStarted(run.ID); err != nil {
		log.Warn("Не удалось обновить статус запуска", zap.Error(err))
	}
	run.Status = database.RunStatusRunning

	r.d.Sink.Info(ctx, logSource, "Starting RSS feed update.", map[string]any{"query": run.Query, "run_id": run.ID})
	log.Info("Обновление ленты запущено")

	content, err := r.d.Agent.Run(ctx, run.Query)
	if err != nil {
		return r.fail(ctx, log, run, err)
	}
	r.d.Sink.Info(ctx, logSource, "Agent run completed.", map[string]any{"content_length": len(content)})

	res, err := r.d.Feed.Publish(content)
	if err != nil {
		return r.fail(ctx, log, run, err)
	}

	summary := fmt.Sprintf("опубликовано записей: %d", res.Entries)
	if res.ParseErr != nil {
		r.d.Sink.Error(ctx, logSource, "Error processing job analysis.", map[string]any{
			"error":      res.ParseErr.Error(),
			"raw_output": content,
		})
		summary = truncate(content, summaryLimit)
	} else {
		r.d.Sink.Info(ctx, logSource, "Successfully parsed agent output and generated feed entries.", map[string]any{"entries": res.Entries})
	}
	r.d.Sink.Info(ctx, logSource, fmt.Sprintf("RSS Feed updated and saved to %s.", r.d.Feed.Path()), nil)

	if err := r.d.Runs.FinishRun(run.ID, database.RunStatusCompleted, summary, res.Entries); err != nil {
		log.Warn("Не удалось сохранить итог запуска", zap.Error(err))
	}
	run.Status = database.RunStatusCompleted
	run.JobsPublished = res.Entries
	run.ResultSummary = summary

	log.Info("Лента обновлена", zap.Int("entries", res.Entries), zap.String("path", r.d.Feed.Path()))
	return nil
}

func (r *Runner) fail(ctx context.Context, log *zap.Logger, run *database.PipelineRun, cause error) error {
	r.d.Sink.Error(ctx, logSource, "Error updating RSS feed.", map[string]any{"error": cause.Error()})
	log.Error("Ошибка обновления ленты", zap.Error(cause))

	if err := r.d.Runs.FinishRun(run.ID, database.RunStatusFailed, truncate(cause.Error(), summaryLimit), 0); err != nil {
		log.Warn("Не удалось сохранить итог запуска", zap.Error(err))
	}
	run.Status = database.RunStatusFailed
	run.ResultSummary = truncate(cause.Error(), summaryLimit)
	return cause
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
