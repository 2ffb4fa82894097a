// Package agents holds the wiring shared by the demonstration agents in its
// sub-packages.
package agents

import (
	"context"
	"net/http"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/tools"
	"github.com/tailored-agentic-units/agentgraph/tools/finance"
	"github.com/tailored-agentic-units/agentgraph/tools/search"
)

// Toolbox returns a registry holding the finance tools and web search.
func Toolbox(cfg config.ToolsConfig, httpClient *http.Client) (*tools.Registry, error) {
	r := tools.NewRegistry()
	if err := finance.Register(r, finance.NewClient(cfg, httpClient)); err != nil {
		return nil, err
	}
	if err := search.Register(r, search.NewClient(cfg, httpClient)); err != nil {
		return nil, err
	}
	return r, nil
}

// Selector resolves the default, reasoning and summary tiers from r. Tiers
// without an entry use the default model.
func Selector(ctx context.Context, r *llm.Registry) (prebuilt.ModelSelector, error) {
	var s prebuilt.ModelSelector
	for _, tier := range []struct {
		name string
		dst  *llm.ChatModel
	}{
		{prebuilt.TierDefault, &s.Default},
		{prebuilt.TierReasoning, &s.Reasoning},
		{prebuilt.TierSummary, &s.Summary},
	} {
		m, err := r.GetOr(ctx, tier.name, config.DefaultModelRole)
		if err != nil {
			return prebuilt.ModelSelector{}, err
		}
		*tier.dst = m
	}
	return s, nil
}
