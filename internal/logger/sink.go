package logger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"jobFeed/internal/database"
	"jobFeed/internal/sanitizer"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Уровни записей в таблице logs.
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// EntryWriter сохраняет запись лога. Реализуется database.Repository.
type EntryWriter interface {
	InsertLog(ctx context.Context, entry *database.LogEntry) error
}

// DBSink пишет записи (level, source, message, details) в таблицу logs.
// Ошибка записи не прерывает вызывающий код: запись уходит в консоль через zap.
type DBSink struct {
	writer    EntryWriter
	console   *Zap
	sanitizer *sanitizer.DataSanitizer
	now       func() time.Time
}

func NewDBSink(writer EntryWriter, console *Zap) *DBSink {
	if console == nil {
		console = NewNop()
	}
	return &DBSink{
		writer:    writer,
		console:   console,
		sanitizer: sanitizer.New(),
		now:       time.Now,
	}
}

func (s *DBSink) Info(ctx context.Context, source, message string, details map[string]any) {
	s.Log(ctx, LevelInfo, source, message, details)
}

func (s *DBSink) Warn(ctx context.Context, source, message string, details map[string]any) {
	s.Log(ctx, LevelWarning, source, message, details)
}

func (s *DBSink) Error(ctx context.Context, source, message string, details map[string]any) {
	s.Log(ctx, LevelError, source, message, details)
}

func (s *DBSink) Log(ctx context.Context, level, source, message string, details map[string]any) {
	level = strings.ToUpper(level)
	entry := &database.LogEntry{
		Timestamp: s.now().UTC(),
		Level:     level,
		Source:    source,
		Message:   s.sanitizer.Sanitize(message),
	}

	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			s.console.Warn("не удалось сериализовать details",
				zap.String("source", source),
				zap.Error(err),
			)
		} else {
			entry.Details = datatypes.JSON(s.sanitizer.Sanitize(string(raw)))
		}
	}

	if s.writer == nil {
		s.toConsole(entry)
		return
	}

	if err := s.writer.InsertLog(ctx, entry); err != nil {
		s.console.Warn("ошибка записи лога в БД, вывод в консоль", zap.Error(err))
		s.toConsole(entry)
	}
}

func (s *DBSink) toConsole(entry *database.LogEntry) {
	fields := []zap.Field{zap.String("source", entry.Source)}
	if len(entry.Details) > 0 {
		fields = append(fields, zap.String("details", string(entry.Details)))
	}

	switch entry.Level {
	case LevelError, "CRITICAL":
		s.console.Error(entry.Message, fields...)
	case LevelWarning, "WARN":
		s.console.Warn(entry.Message, fields...)
	case LevelDebug:
		s.console.Debug(entry.Message, fields...)
	default:
		s.console.Info(entry.Message, fields...)
	}
}
