package agent

import (
	"context"
	"fmt"

	"jobFeed/internal/llm"
	"jobFeed/internal/logger"
	"jobFeed/internal/tools"

	"go.uber.org/zap"
)

// Collaborators - внешние зависимости агента.
type Collaborators struct {
	Model     ChatModel
	Completer Completer
	Tools     tools.Invoker // может быть nil, тогда доступны только локальные инструменты
	Local     []tools.LocalTool
	Search    CompanySearcher
	Scraper   JobScraper
	Profiles  ProfileStore
}

// Agent собирает граф для каждого запуска: набор инструментов
// запрашивается у сервера заново, так что изменения на его стороне
// подхватываются без перезапуска процесса.
type Agent struct {
	c        Collaborators
	toolCfg  tools.Config
	enricher *Enricher
	analyzer *Analyzer
	log      *logger.Zap
	cfg      Config
}

func New(c Collaborators, toolCfg tools.Config, log *logger.Zap, cfg Config) *Agent {
	cfg = cfg.withDefaults()
	return &Agent{
		c:        c,
		toolCfg:  toolCfg,
		enricher: NewEnricher(c.Search, c.Scraper, log.Named("enrich"), cfg),
		analyzer: NewAnalyzer(c.Completer, c.Profiles, log.Named("analyze"), cfg),
		log:      log,
		cfg:      cfg,
	}
}

// Run выполняет один запуск графа по поисковому запросу и возвращает
// итоговое содержимое: JSON-массив анализов либо текстовое сообщение.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	set, err := tools.Discover(ctx, a.toolCfg, a.c.Tools, a.c.Local)
	if err != nil {
		return "", err
	}

	a.log.Info("Инструменты подключены",
		zap.String("query", query),
		zap.Strings("tools", set.Names()),
	)

	graph := NewGraph(a.c.Model, llm.ToOpenAITools(set.Descriptors()), set, a.enricher, a.analyzer, a.log, a.cfg)
	out, err := graph.Run(ctx, query)
	if err != nil {
		return "", fmt.Errorf("запуск агента по запросу %q: %w", query, err)
	}
	return out, nil
}
