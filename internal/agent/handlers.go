package agent

import (
	"context"
	"fmt"

	"jobFeed/internal/tools"

	"go.uber.org/zap"
)

// handleTool - обработчик результата инструмента. search_jobs уходит
// в обогащение и анализ, остальные известные инструменты возвращают
// управление модели.
func (g *Graph) handleTool(ctx context.Context, state *State, kind tools.Kind) (Node, error) {
	last := state.last()

	switch kind {
	case tools.KindSearchJobs:
		enriched, err := g.enricher.Enrich(ctx, last.Content)
		if err != nil {
			return NodeEnd, fmt.Errorf("ошибка обогащения вакансий: %w", err)
		}
		last.Content = enriched
		return NodeAnalyzeResults, nil

	case tools.KindCloseSession,
		tools.KindGetCompanyProfile,
		tools.KindGetJobDetails,
		tools.KindGetPersonProfile,
		tools.KindGetRecommendedJobs,
		tools.KindSearchCompany:
		g.log.Debug("Результат инструмента",
			zap.Stringer("tool", kind),
			zap.Int("bytes", len(last.Content)),
		)
		return NodeCallModel, nil

	case tools.KindUnknown:
		return NodeEnd, nil
	}

	return NodeEnd, fmt.Errorf("нет обработчика для инструмента %v", kind)
}
