// Package database предоставляет модели данных и репозиторий для работы с PostgreSQL.
// Использует GORM ORM с prepared statements для защиты от SQL injection.
package database

import (
	"time"

	"gorm.io/datatypes"
)

// Статусы запуска пайплайна.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// PipelineRun представляет один запуск пайплайна: поиск, обогащение, анализ, публикация фида.
type PipelineRun struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Query         string     `gorm:"type:text;not null" json:"query"`                                      // Поисковый запрос
	Status        string     `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`            // Статус выполнения
	JobsPublished int        `gorm:"not null;default:0" json:"jobs_published"`                             // Количество записей в фиде
	ResultSummary string     `gorm:"type:text" json:"result_summary"`                                      // Итог или текст ошибки
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LogEntry - запись в таблице logs: (level, source, message, details).
type LogEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Level     string         `gorm:"type:varchar(20);not null" json:"level"`
	Source    string         `gorm:"type:varchar(255);not null" json:"source"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
}

func (LogEntry) TableName() string {
	return "logs"
}

// LlmLog представляет лог запроса к LLM.
// Сохраняет промпт, ответ, модель и количество использованных токенов.
type LlmLog struct {
	ID           uint      `gorm:"primaryKey"`
	RunID        *uint     `gorm:"index"`                     // ID запуска (опционально)
	Role         string    `gorm:"type:varchar(16);not null"` // Роль (assistant, error)
	PromptText   string    `gorm:"type:text;not null"`        // Текст промпта
	ResponseText string    `gorm:"type:text"`                 // Текст ответа
	Model        string    `gorm:"type:varchar(64)"`          // Модель
	TokensUsed   int       // Количество токенов
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
