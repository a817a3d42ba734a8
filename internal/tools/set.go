// Package tools связывает конфигурацию инструментов с удалённым MCP-сервером
// и локальными инструментами и отдаёт модели итоговый набор.
package tools

import (
	"context"
	"errors"
	"fmt"
)

// Descriptor - инструмент, доступный модели.
type Descriptor struct {
	Name        string
	Description string
	Schema      any // JSON Schema аргументов
}

// Invoker - удалённый сервер инструментов.
type Invoker interface {
	ListTools(ctx context.Context) ([]Descriptor, error)
	InvokeTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// LocalTool - инструмент, выполняемый внутри процесса.
type LocalTool interface {
	Descriptor() Descriptor
	Invoke(ctx context.Context, args map[string]any) (string, error)
	// AlwaysOn: инструмент доступен даже без записи в конфигурации.
	AlwaysOn() bool
}

var ErrToolNotBound = errors.New("инструмент не подключен")

// Set - итоговый набор инструментов одного запуска.
type Set struct {
	descriptors []Descriptor
	local       map[string]LocalTool
	remote      map[string]struct{}
	invoker     Invoker
}

// Bind оставляет удалённые инструменты, которые есть в конфигурации и не ограничены,
// и локальные инструменты, разрешённые конфигурацией или помеченные AlwaysOn.
// Ограниченный инструмент не попадает в набор никогда.
func Bind(cfg Config, remote []Descriptor, local []LocalTool, invoker Invoker) *Set {
	allowed := cfg.Unrestricted()
	restricted := make(map[string]struct{})
	for _, entries := range cfg {
		for _, e := range entries {
			if e.Restricted {
				restricted[e.Name] = struct{}{}
			}
		}
	}

	s := &Set{
		local:   make(map[string]LocalTool),
		remote:  make(map[string]struct{}),
		invoker: invoker,
	}

	for _, d := range remote {
		if _, ok := allowed[d.Name]; !ok {
			continue
		}
		if _, dup := s.remote[d.Name]; dup {
			continue
		}
		s.remote[d.Name] = struct{}{}
		s.descriptors = append(s.descriptors, d)
	}

	for _, t := range local {
		d := t.Descriptor()
		if _, ok := restricted[d.Name]; ok {
			continue
		}
		if _, ok := allowed[d.Name]; !ok && !t.AlwaysOn() {
			continue
		}
		// локальный инструмент перекрывает одноимённый удалённый
		if _, ok := s.remote[d.Name]; ok {
			delete(s.remote, d.Name)
			s.descriptors = removeDescriptor(s.descriptors, d.Name)
		}
		s.local[d.Name] = t
		s.descriptors = append(s.descriptors, d)
	}

	return s
}

// Discover запрашивает список инструментов у сервера и связывает его с конфигурацией.
func Discover(ctx context.Context, cfg Config, invoker Invoker, local []LocalTool) (*Set, error) {
	var remote []Descriptor
	if invoker != nil {
		var err error
		remote, err = invoker.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения списка инструментов: %w", err)
		}
	}
	return Bind(cfg, remote, local, invoker), nil
}

func (s *Set) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

func (s *Set) Names() []string {
	names := make([]string, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		names = append(names, d.Name)
	}
	return names
}

func (s *Set) Has(name string) bool {
	if _, ok := s.local[name]; ok {
		return true
	}
	_, ok := s.remote[name]
	return ok
}

// Invoke выполняет инструмент из набора: локальный внутри процесса, остальные через сервер.
func (s *Set) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	if t, ok := s.local[name]; ok {
		return t.Invoke(ctx, args)
	}
	if _, ok := s.remote[name]; ok && s.invoker != nil {
		return s.invoker.InvokeTool(ctx, name, args)
	}
	return "", fmt.Errorf("%w: %s", ErrToolNotBound, name)
}

func removeDescriptor(list []Descriptor, name string) []Descriptor {
	out := list[:0]
	for _, d := range list {
		if d.Name != name {
			out = append(out, d)
		}
	}
	return out
}
