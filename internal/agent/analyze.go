package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobFeed/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobAnalysis - результат анализа одной вакансии.
type JobAnalysis struct {
	JobTitle string `json:"job_title"`
	JobHTML  string `json:"job_html"`
}

// Analyzer сравнивает каждую вакансию с профилем кандидата.
// Запросы к модели идут параллельно, не больше maxConcurrency одновременно;
// ошибка одной вакансии превращается в HTML-фрагмент с ошибкой.
type Analyzer struct {
	completer      Completer
	profiles       ProfileStore
	profilePath    string
	maxConcurrency int
	log            *logger.Zap
	now            func() time.Time
}

func NewAnalyzer(completer Completer, profiles ProfileStore, log *logger.Zap, cfg Config) *Analyzer {
	cfg = cfg.withDefaults()
	if profiles == nil {
		profiles = FileProfileStore{}
	}
	return &Analyzer{
		completer:      completer,
		profiles:       profiles,
		profilePath:    cfg.ProfilePath,
		maxConcurrency: cfg.MaxConcurrency,
		log:            log,
		now:            time.Now,
	}
}

// Analyze возвращает JSON-массив JobAnalysis в порядке входных вакансий
// либо одно текстовое сообщение, если анализировать нечего.
// Ошибка возвращается только при отмене контекста.
func (a *Analyzer) Analyze(ctx context.Context, content string) (string, error) {
	jobs, msg := parseJobs(content)
	if msg != "" {
		a.log.Warn("Анализ пропущен", zap.String("reason", msg))
		return msg, nil
	}

	profile, err := a.profiles.Read(a.profilePath)
	if err != nil {
		a.log.Error("Ошибка чтения профиля", zap.String("path", a.profilePath), zap.Error(err))
		return profileMessage(a.profilePath, err), nil
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Sprintf(msgProfileInvalid, a.profilePath), nil
	}

	date := a.now().Format(dateLayout)
	results := make([]JobAnalysis, len(jobs))

	a.log.Info("Запуск анализа вакансий",
		zap.Int("jobs", len(jobs)),
		zap.Int("concurrency", a.maxConcurrency),
	)

	var g errgroup.Group
	g.SetLimit(a.maxConcurrency)
	for i, job := range jobs {
		g.Go(func() error {
			title := jobTitle(job)
			html, err := a.analyzeOne(ctx, string(profileJSON), job, date)
			if err != nil {
				a.log.Warn("Ошибка анализа вакансии", zap.String("job", title), zap.Error(err))
				html = fmt.Sprintf(errorFragment, title, err)
			}
			results[i] = JobAnalysis{JobTitle: title, JobHTML: html}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации результатов анализа: %w", err)
	}
	return string(out), nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, profile string, job any, date string) (string, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации вакансии: %w", err)
	}

	prompt, err := renderJobMatchPrompt(jobMatchData{
		Date:    date,
		Profile: profile,
		Job:     string(jobJSON),
	})
	if err != nil {
		return "", fmt.Errorf("ошибка шаблона промпта: %w", err)
	}

	return a.completer.Complete(ctx, prompt)
}

// parseJobs: массив остаётся массивом, объект оборачивается в массив из одного
// элемента, прочие JSON-значения дают пустой список.
func parseJobs(content string) ([]any, string) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, msgInvalidJobData
	}

	var jobs []any
	switch t := v.(type) {
	case []any:
		jobs = t
	case map[string]any:
		jobs = []any{t}
	}

	if len(jobs) == 0 {
		return nil, msgNoJobs
	}
	return jobs, ""
}

func profileMessage(path string, err error) string {
	var perr *ProfileError
	if errors.As(err, &perr) && perr.Kind == ProfileNotFound {
		return fmt.Sprintf(msgProfileNotFound, path)
	}
	return fmt.Sprintf(msgProfileInvalid, path)
}

func jobTitle(job any) string {
	m, ok := job.(map[string]any)
	if !ok {
		return "N/A"
	}
	v, ok := m["job_title"]
	if !ok || v == nil {
		return "N/A"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
