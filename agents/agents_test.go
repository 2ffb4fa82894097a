package agents_test

import (
	"context"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/agents"
	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/llm/llmtest"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
)

func TestToolbox(t *testing.T) {
	r, err := agents.Toolbox(config.DefaultToolsConfig(), nil)
	if err != nil {
		t.Fatalf("Toolbox failed: %v", err)
	}
	want := []string{"calculate", "fetch_stock_data", "lookup_stock", "place_order", "web_search"}
	if got := r.Names(); !slices.Equal(got, want) {
		t.Errorf("tools = %v, want %v", got, want)
	}
}

func TestSelector(t *testing.T) {
	cfg := config.Default()
	cfg.Models[prebuilt.TierReasoning] = config.ModelConfig{Provider: "openai", Model: "gpt-4o"}

	built := map[string]llm.ChatModel{}
	reg, err := llm.FromConfig(&cfg, func(_ context.Context, mc config.ModelConfig) (llm.ChatModel, error) {
		m := llmtest.Text()
		built[mc.Model] = m
		return m, nil
	})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}

	s, err := agents.Selector(context.Background(), reg)
	if err != nil {
		t.Fatalf("Selector failed: %v", err)
	}
	if s.Reasoning != built["gpt-4o"] {
		t.Error("reasoning tier should use its own entry")
	}
	if s.Default != built["gpt-4o-mini"] || s.Summary != built["gpt-4o-mini"] {
		t.Error("default and summary tiers should use the default entry")
	}
}
