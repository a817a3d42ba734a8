package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"jobFeed/internal/cli/ui"
	"jobFeed/internal/database"
	"jobFeed/internal/pipeline"

	"go.uber.org/zap"
)

// Runner выполняет обновление ленты синхронно.
type Runner interface {
	Run(ctx context.Context, query string) (*database.PipelineRun, error)
}

// RunStore - чтение истории запусков.
type RunStore interface {
	GetRunByID(id uint) (*database.PipelineRun, error)
	ListRuns(limit, offset int) ([]database.PipelineRun, error)
}

// RunHandler обрабатывает команды запуска и списка запусков
type RunHandler struct {
	runner Runner
	repo   RunStore
	log    *zap.Logger
	out    io.Writer
}

func NewRunHandler(runner Runner, repo RunStore, log *zap.Logger, out io.Writer) *RunHandler {
	return &RunHandler{
		runner: runner,
		repo:   repo,
		log:    log,
		out:    out,
	}
}

// Run запускает обновление ленты. Пустой запрос означает случайный из списка.
func (h *RunHandler) Run(ctx context.Context, query string) {
	if query == "" {
		fmt.Fprintln(h.out, ui.ColorCyan+ui.IconPlay+" Запуск со случайным запросом..."+ui.ColorReset)
	} else {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconPlay+" Запуск:"+ui.ColorReset+" %s\n", query)
	}

	run, err := h.runner.Run(ctx, query)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			fmt.Fprintln(h.out, ui.ColorYellow+ui.IconClock+" Обновление уже выполняется, дождитесь завершения"+ui.ColorReset)
			return
		}
		h.log.Error("Ошибка запуска", zap.Error(err))
		fmt.Fprintf(h.out, ui.ColorRed+ui.IconCross+" Ошибка:"+ui.ColorReset+" %v\n", err)
		return
	}

	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Запуск #%d завершён, записей в ленте: %d"+ui.ColorReset+"\n", run.ID, run.JobsPublished)
}

// List выводит последние запуски
func (h *RunHandler) List() {
	runs, err := h.repo.ListRuns(50, 0)
	if err != nil {
		h.log.Error("Ошибка чтения запусков", zap.Error(err))
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Ошибка чтения запусков"+ui.ColorReset)
		return
	}
	if len(runs) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Запусков пока нет"+ui.ColorReset)
		return
	}

	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconList+" Запуски:"+ui.ColorReset)
	fmt.Fprintln(h.out)
	for _, r := range runs {
		icon, color, text := ui.FormatStatus(r.Status)
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"#%d"+ui.ColorReset+" %s%s %s"+ui.ColorReset+"\n", r.ID, color, icon, text)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"└─"+ui.ColorReset+" %s\n", r.Query)
		fmt.Fprintln(h.out)
	}
}
