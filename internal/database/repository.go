package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRun(run *PipelineRun) error {
	return r.db.Create(run).Error
}

func (r *Repository) GetRunByID(id uint) (*PipelineRun, error) {
	var run PipelineRun
	if err := r.db.First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *Repository) ListRuns(limit, offset int) ([]PipelineRun, error) {
	var runs []PipelineRun
	if err := r.db.Order("id DESC").Limit(limit).Offset(offset).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// MarkRunStarted переводит запуск в статус running и проставляет время старта.
func (r *Repository) MarkRunStarted(id uint) error {
	now := time.Now()
	return r.db.Model(&PipelineRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     RunStatusRunning,
			"started_at": now,
		}).Error
}

func (r *Repository) FinishRun(id uint, status, summary string, jobsPublished int) error {
	now := time.Now()
	return r.db.Model(&PipelineRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         status,
			"result_summary": summary,
			"jobs_published": jobsPublished,
			"finished_at":    now,
		}).Error
}

func (r *Repository) InsertLog(ctx context.Context, entry *LogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListLogs(limit int) ([]LogEntry, error) {
	var entries []LogEntry
	if err := r.db.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearLogs удаляет все записи из таблицы logs и возвращает их количество.
func (r *Repository) ClearLogs(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&LogEntry{})
	return res.RowsAffected, res.Error
}

// LogLLMRequest реализует llm.Logger.
func (r *Repository) LogLLMRequest(ctx context.Context, runID *uint, role, promptText, responseText, model string, tokensUsed int) error {
	return r.db.WithContext(ctx).Create(&LlmLog{
		RunID:        runID,
		Role:         role,
		PromptText:   promptText,
		ResponseText: responseText,
		Model:        model,
		TokensUsed:   tokensUsed,
	}).Error
}
