package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/findmeajob/findmeajob-backend/internal/agents/graph"
	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
	"github.com/findmeajob/findmeajob-backend/internal/services"
)

// NewResearchRegistry wires the two research tools over the shared
// research service.
func NewResearchRegistry(log *logger.Logger, research services.ResearchService) *graph.Registry {
	toolLog := log.With("component", "ToolRegistry")

	researchURL := &graph.Tool{
		Name:        "research_url",
		Description: "Research a URL: scrape the page, store the content for later search, and return a preview.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "The URL to research and scrape",
				},
				"agent_id": map[string]any{
					"type":        "integer",
					"description": "The ID of the agent performing the research",
				},
			},
			"required": []string{"url"},
		},
		NeedsAgentID: true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			url, err := stringArg(args, "url")
			if err != nil {
				return "", err
			}
			agentID, err := intArg(args, "agent_id")
			if err != nil {
				return "", err
			}
			toolLog.Debug("executing research_url", "agent_id", agentID, "url", url)
			return services.FormatResearchResult(research.ResearchURL(ctx, agentID, url)), nil
		},
	}

	searchResearch := &graph.Tool{
		Name:        "search_research",
		Description: "Search previously stored research notes for content relevant to a query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to find relevant research",
				},
				"agent_id": map[string]any{
					"type":        "integer",
					"description": "The ID of the agent performing the search",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return (default: 3)",
				},
			},
			"required": []string{"query"},
		},
		NeedsAgentID: true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, err := stringArg(args, "query")
			if err != nil {
				return "", err
			}
			agentID, err := intArg(args, "agent_id")
			if err != nil {
				return "", err
			}
			limit := 3
			if n, err := intArg(args, "limit"); err == nil && n > 0 {
				limit = int(n)
			}
			toolLog.Debug("executing search_research", "agent_id", agentID, "query", query)
			return services.FormatSearchResult(research.SearchResearch(ctx, agentID, query, limit)), nil
		},
	}

	return graph.NewRegistry(researchURL, searchResearch)
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

// intArg tolerates the numeric shapes JSON decoding produces.
func intArg(args map[string]any, key string) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("argument %q is not an integer: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer", key)
	}
}
