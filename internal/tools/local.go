package tools

import (
	"context"
	"fmt"
	"strings"
)

// CompanySearcher - поиск краткого описания компании.
type CompanySearcher interface {
	Search(ctx context.Context, company string) (string, error)
}

// CompanySearchTool - локальный инструмент search_company.
// Доступен модели только если разрешён в конфигурации.
type CompanySearchTool struct {
	searcher CompanySearcher
}

func NewCompanySearchTool(searcher CompanySearcher) *CompanySearchTool {
	return &CompanySearchTool{searcher: searcher}
}

func (t *CompanySearchTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        NameSearchCompany,
		Description: "Search the web for information about a company.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Company name",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *CompanySearchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%s: не указан аргумент query", NameSearchCompany)
	}
	return t.searcher.Search(ctx, query)
}

func (t *CompanySearchTool) AlwaysOn() bool {
	return false
}
