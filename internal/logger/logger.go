// Package logger оборачивает zap и предоставляет приёмник логов в базу данных.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zap - общий логгер приложения. Встраивает *zap.Logger, поэтому методы
// Info/Warn/Error доступны напрямую.
type Zap struct {
	*zap.Logger
}

// New создаёт логгер: env=prod даёт JSON-вывод, иначе консольный dev-формат.
func New(env, level string) (*Zap, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("неизвестный уровень логирования %q: %w", level, err)
	}

	var cfg zap.Config
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации zap: %w", err)
	}
	return &Zap{Logger: l}, nil
}

// NewNop возвращает логгер, который ничего не пишет. Используется в тестах.
func NewNop() *Zap {
	return &Zap{Logger: zap.NewNop()}
}

// Named возвращает дочерний логгер с именем компонента.
func (z *Zap) Named(name string) *Zap {
	return &Zap{Logger: z.Logger.Named(name)}
}
