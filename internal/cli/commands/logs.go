package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"jobFeed/internal/cli/ui"
	"jobFeed/internal/database"
	"jobFeed/internal/logger"

	"go.uber.org/zap"
)

const defaultLogLimit = 20

type LogStore interface {
	ListLogs(limit int) ([]database.LogEntry, error)
	ClearLogs(ctx context.Context) (int64, error)
}

// LogsHandler обрабатывает команды просмотра и очистки логов
type LogsHandler struct {
	repo LogStore
	log  *zap.Logger
	out  io.Writer
}

func NewLogsHandler(repo LogStore, log *zap.Logger, out io.Writer) *LogsHandler {
	return &LogsHandler{
		repo: repo,
		log:  log,
		out:  out,
	}
}

// Show выводит последние n записей таблицы logs
func (h *LogsHandler) Show(nStr string) {
	limit := defaultLogLimit
	if nStr != "" {
		n, err := strconv.Atoi(nStr)
		if err != nil || n <= 0 {
			fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Неверное количество записей"+ui.ColorReset)
			return
		}
		limit = n
	}

	entries, err := h.repo.ListLogs(limit)
	if err != nil {
		h.log.Error("Ошибка чтения логов", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения логов"+ui.ColorReset)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Логи пусты"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== "+ui.IconList+" Последние записи (%d) ==="+ui.ColorReset+"\n", len(entries))
	// из базы приходят от новых к старым, выводим в хронологическом порядке
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(h.out, ui.ColorGray+"[%s]"+ui.ColorReset+" %s%-7s"+ui.ColorReset+" "+ui.ColorCyan+"%s"+ui.ColorReset+" %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), levelColor(e.Level), e.Level, e.Source, e.Message)
		if len(e.Details) > 0 && string(e.Details) != "null" {
			fmt.Fprintf(h.out, "  "+ui.ColorGray+"%s"+ui.ColorReset+"\n", ui.Truncate(string(e.Details), 200))
		}
	}
	fmt.Fprintln(h.out)
}

// Clear удаляет все записи таблицы logs
func (h *LogsHandler) Clear(ctx context.Context) {
	n, err := h.repo.ClearLogs(ctx)
	if err != nil {
		h.log.Error("Ошибка очистки логов", zap.Error(err))
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}
	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Удалено записей: %d"+ui.ColorReset+"\n", n)
}

func levelColor(level string) string {
	switch level {
	case logger.LevelError:
		return ui.ColorRed
	case logger.LevelWarning:
		return ui.ColorYellow
	case logger.LevelDebug:
		return ui.ColorGray
	default:
		return ui.ColorGreen
	}
}
