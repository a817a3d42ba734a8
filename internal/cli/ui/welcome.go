package ui

import (
	"fmt"
	"io"
	"os"
)

// PrintWelcome выводит приветствие и лого
func PrintWelcome(w io.Writer) {
	logoBytes, err := os.ReadFile("logo.txt")
	if err == nil {
		fmt.Fprintln(w, ColorCyan+string(logoBytes)+ColorReset)
	}
	fmt.Fprintln(w, ColorBold+IconRobot+" jobFeed"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Поиск вакансий LinkedIn, анализ соответствия профилю и Atom-лента"+ColorReset)
	fmt.Fprintln(w)
	PrintHelp(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Совет:"+ColorReset+" "+ColorYellow+"run"+ColorReset+" без аргументов выбирает случайный запрос из списка")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ColorGray+"⬆️ ⬇️"+ColorReset+" Используйте стрелки для навигации по истории команд")
	fmt.Fprintln(w)
}

// PrintHelp выводит список доступных команд
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Доступные команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"run"+ColorReset+" [запрос]        - Обновить ленту (без запроса - случайный)")
	fmt.Fprintln(w, "  "+ColorGreen+"runs"+ColorReset+"                - Список запусков")
	fmt.Fprintln(w, "  "+ColorGreen+"show"+ColorReset+" <id>           - Детали запуска")
	fmt.Fprintln(w, "  "+ColorGreen+"logs"+ColorReset+" [n]            - Последние записи лога")
	fmt.Fprintln(w, "  "+ColorGreen+"clear-logs"+ColorReset+"          - Очистить таблицу логов")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"               - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"                - Выход")
	fmt.Fprintln(w)
}
