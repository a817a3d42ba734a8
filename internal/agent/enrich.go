package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"jobFeed/internal/logger"

	"go.uber.org/zap"
)

const (
	fieldCompany            = "company"
	fieldLinkedInURL        = "linkedin_url"
	fieldCompanyDescription = "company_description"
	fieldJobDescription     = "job_description"

	breakerSearch  = "company_search"
	breakerScraper = "job_scraper"
)

// EnrichError - ошибка получения данных одной вакансии при PolicyAbort.
type EnrichError struct {
	Index int
	Field string
	Err   error
}

func (e *EnrichError) Error() string {
	return fmt.Sprintf("вакансия #%d, поле %s: %v", e.Index, e.Field, e.Err)
}

func (e *EnrichError) Unwrap() error {
	return e.Err
}

// Enricher последовательно дополняет вакансии описанием компании и текстом вакансии.
// Перед каждой вакансией выдерживается случайная пауза, чтобы не упереться в лимиты LinkedIn.
type Enricher struct {
	search   CompanySearcher
	scraper  JobScraper
	breakers *CircuitBreakerPool
	policy   EnrichPolicy
	minDelay time.Duration
	maxDelay time.Duration
	log      *logger.Zap

	sleep     func(ctx context.Context, d time.Duration) error
	randDelay func(min, max time.Duration) time.Duration
}

func NewEnricher(search CompanySearcher, scraper JobScraper, log *logger.Zap, cfg Config) *Enricher {
	cfg = cfg.withDefaults()
	return &Enricher{
		search:    search,
		scraper:   scraper,
		breakers:  NewCircuitBreakerPool(3, 5*time.Minute),
		policy:    cfg.EnrichPolicy,
		minDelay:  cfg.EnrichMinDelay,
		maxDelay:  cfg.EnrichMaxDelay,
		log:       log,
		sleep:     sleepContext,
		randDelay: uniformDelay,
	}
}

// Enrich принимает вывод search_jobs. Если это не JSON-массив, содержимое
// возвращается без изменений. Порядок вакансий сохраняется; элементы, не
// являющиеся объектами, пропускаются без изменений.
func (e *Enricher) Enrich(ctx context.Context, content string) (string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		e.log.Warn("Результат search_jobs не является JSON-массивом, обогащение пропущено", zap.Error(err))
		return content, nil
	}

	// отказы прошлого запуска не переносятся на новую пачку
	e.breakers.ResetAll()

	records := make([]any, len(raw))
	for i, item := range raw {
		var job map[string]any
		if err := json.Unmarshal(item, &job); err != nil || job == nil {
			records[i] = item
			continue
		}

		if err := e.sleep(ctx, e.randDelay(e.minDelay, e.maxDelay)); err != nil {
			return "", err
		}

		if err := e.enrichOne(ctx, i, job); err != nil {
			return "", err
		}
		records[i] = job
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации вакансий: %w", err)
	}

	e.log.Info("Вакансии обогащены", zap.Int("count", len(records)))
	return string(out), nil
}

func (e *Enricher) enrichOne(ctx context.Context, index int, job map[string]any) error {
	company, err := stringField(job, fieldCompany)
	if err == nil {
		err = e.breakers.Get(breakerSearch).Call(ctx, func() error {
			desc, searchErr := e.search.Search(ctx, company)
			if searchErr == nil {
				job[fieldCompanyDescription] = desc
			}
			return searchErr
		})
	}
	if err != nil {
		if err := e.fail(ctx, index, fieldCompanyDescription, err, job); err != nil {
			return err
		}
	}

	url, err := stringField(job, fieldLinkedInURL)
	if err == nil {
		err = e.breakers.Get(breakerScraper).Call(ctx, func() error {
			desc, fetchErr := e.scraper.Fetch(ctx, url)
			if fetchErr == nil {
				job[fieldJobDescription] = desc
			}
			return fetchErr
		})
	}
	if err != nil {
		if err := e.fail(ctx, index, fieldJobDescription, err, job); err != nil {
			return err
		}
	}

	return nil
}

// fail применяет политику: при PolicyAbort возвращает ошибку,
// при PolicyIsolate оставляет поле пустым.
func (e *Enricher) fail(ctx context.Context, index int, field string, err error, job map[string]any) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if e.policy == PolicyAbort {
		return &EnrichError{Index: index, Field: field, Err: err}
	}

	e.log.Warn("Не удалось получить данные вакансии",
		zap.Int("index", index),
		zap.String("field", field),
		zap.Error(err),
	)
	job[field] = ""
	return nil
}

func stringField(job map[string]any, key string) (string, error) {
	v, ok := job[key]
	if !ok {
		return "", fmt.Errorf("нет поля %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("поле %s пустое или не строка", key)
	}
	return s, nil
}

func uniformDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
