package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
)

// ConfigEntry описывает один инструмент в файле конфигурации.
type ConfigEntry struct {
	Name       string `json:"name" validate:"required"`
	Restricted bool   `json:"restricted"`
}

// Config - категория → список инструментов. Загружается один раз при старте
// и дальше только читается.
type Config map[string][]ConfigEntry

// ConfigError - ошибка конфигурации инструментов. Не повторяется.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("конфигурация инструментов %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var validate = validator.New()

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("файл не найден: %w", err)}
		}
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("ошибка чтения: %w", err)}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("некорректный JSON: %w", err)}
	}
	if cfg == nil {
		return nil, &ConfigError{Path: path, Err: errors.New("пустая конфигурация")}
	}

	for category, entries := range cfg {
		for i, entry := range entries {
			if err := validate.Struct(entry); err != nil {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("%s[%d]: %w", category, i, err)}
			}
		}
	}

	return cfg, nil
}

// Unrestricted возвращает имена инструментов, не помеченных restricted.
// Если инструмент указан в нескольких категориях и хотя бы в одной ограничен, он исключается.
func (c Config) Unrestricted() map[string]struct{} {
	restricted := make(map[string]struct{})
	allowed := make(map[string]struct{})
	for _, entries := range c {
		for _, entry := range entries {
			if entry.Restricted {
				restricted[entry.Name] = struct{}{}
				continue
			}
			allowed[entry.Name] = struct{}{}
		}
	}
	for name := range restricted {
		delete(allowed, name)
	}
	return allowed
}
