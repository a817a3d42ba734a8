package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"jobFeed/internal/cli/ui"

	"go.uber.org/zap"
)

// ShowHandler выводит детали запуска
type ShowHandler struct {
	repo RunStore
	log  *zap.Logger
	out  io.Writer
}

func NewShowHandler(repo RunStore, log *zap.Logger, out io.Writer) *ShowHandler {
	return &ShowHandler{
		repo: repo,
		log:  log,
		out:  out,
	}
}

func (h *ShowHandler) Show(idStr string) {
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Неверный ID запуска"+ui.ColorReset)
		return
	}
	run, err := h.repo.GetRunByID(uint(id))
	if err != nil {
		fmt.Fprintln(h.out, ui.ColorRed+ui.IconCross+" Запуск не найден"+ui.ColorReset)
		return
	}

	_, _, statusText := ui.FormatStatus(run.Status)

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Запуск #%d ==="+ui.ColorReset+"\n", run.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconDocument+" Запрос:"+ui.ColorReset+" %s\n", run.Query)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChart+" Статус:"+ui.ColorReset+" %s\n", statusText)
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconTime+" Создан:"+ui.ColorReset+" %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.StartedAt != nil && run.FinishedAt != nil {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconClock+" Длительность:"+ui.ColorReset+" %s\n", run.FinishedAt.Sub(*run.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(h.out, ui.ColorCyan+ui.IconGlobe+" Записей в ленте:"+ui.ColorReset+" %d\n", run.JobsPublished)
	if run.ResultSummary != "" {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconChat+" Результат:"+ui.ColorReset+" %s\n", run.ResultSummary)
	}
	fmt.Fprintln(h.out)
}
