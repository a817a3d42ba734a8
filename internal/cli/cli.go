package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"jobFeed/internal/cli/commands"
	"jobFeed/internal/cli/ui"
	"jobFeed/internal/logger"

	"github.com/chzyer/readline"
)

type Deps struct {
	Runner commands.Runner
	Runs   commands.RunStore
	Logs   commands.LogStore
	Log    *logger.Zap
}

type CLI struct {
	log         *logger.Zap
	rl          *readline.Instance
	stdin       *bufio.Reader
	out         io.Writer
	runHandler  *commands.RunHandler
	showHandler *commands.ShowHandler
	logsHandler *commands.LogsHandler
}

func New(d Deps) *CLI {
	// Инициализация readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     ".jobfeed-history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("run"),
			readline.PcItem("runs"),
			readline.PcItem("show"),
			readline.PcItem("logs"),
			readline.PcItem("clear-logs"),
			readline.PcItem("clear"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		d.Log.Warn("Не удалось инициализировать readline, будет использован fallback режим")
		return newCLI(d, os.Stdout)
	}

	cli := newCLI(d, rl.Stdout())
	cli.rl = rl
	return cli
}

func newCLI(d Deps, out io.Writer) *CLI {
	return &CLI{
		log:         d.Log,
		stdin:       bufio.NewReader(os.Stdin),
		out:         out,
		runHandler:  commands.NewRunHandler(d.Runner, d.Runs, d.Log.Logger, out),
		showHandler: commands.NewShowHandler(d.Runs, d.Log.Logger, out),
		logsHandler: commands.NewLogsHandler(d.Logs, d.Log.Logger, out),
	}
}

func (c *CLI) readLine() (string, error) {
	if c.rl != nil {
		return c.rl.Readline()
	}
	// Fallback для работы без readline
	fmt.Fprint(c.out, ui.ColorCyan+"> "+ui.ColorReset)
	line, err := c.stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *CLI) closeReadline() {
	if c.rl != nil {
		c.rl.Close()
	}
}

// Run читает команды до exit, EOF или отмены ctx.
func (c *CLI) Run(ctx context.Context) {
	ui.PrintWelcome(c.out)
	defer c.closeReadline()

	for {
		// Проверка отмены контекста
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\n"+ui.ColorCyan+ui.IconWave+" Получен сигнал завершения..."+ui.ColorReset)
			return
		default:
		}

		line, err := c.readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		} else if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !c.handleCommand(ctx, line) {
			return
		}
	}
}

// handleCommand выполняет одну команду. false означает выход.
func (c *CLI) handleCommand(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "exit":
		fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
		return false

	case "clear":
		ui.ClearScreen()

	case "run":
		c.runHandler.Run(ctx, arg)

	case "runs":
		c.runHandler.List()

	case "show":
		c.showHandler.Show(arg)

	case "logs":
		c.logsHandler.Show(arg)

	case "clear-logs":
		c.logsHandler.Clear(ctx)

	default:
		ui.PrintHelp(c.out)
	}
	return true
}
