// Package supervisor builds the investment team: a supervisor that hands
// work to a research agent and a trading agent. Orders placed by the
// trading agent wait for human approval.
package supervisor

import (
	"context"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/tools"
	"github.com/tailored-agentic-units/agentgraph/tools/finance"
	"github.com/tailored-agentic-units/agentgraph/tools/search"
)

// Agent names.
const (
	ResearchAgent = "research_agent"
	TradingAgent  = "trading_agent"
)

// ResearchTools and TradingTools are the tools each agent may call.
var (
	ResearchTools = []string{search.ToolName}
	TradingTools  = []string{finance.LookupStock, finance.FetchStockData, finance.PlaceOrderTool, finance.CalculateTool}
)

// Models are the chat models of the team.
type Models struct {
	Supervisor llm.ChatModel
	Research   llm.ChatModel
	Trading    llm.ChatModel
}

// ModelsFrom resolves the supervisor, research_agent and trading_agent roles
// from r. Roles without an entry use the default model.
func ModelsFrom(ctx context.Context, r *llm.Registry) (Models, error) {
	var m Models
	for _, role := range []struct {
		name string
		dst  *llm.ChatModel
	}{
		{prebuilt.NodeSupervisor, &m.Supervisor},
		{ResearchAgent, &m.Research},
		{TradingAgent, &m.Trading},
	} {
		model, err := r.GetOr(ctx, role.name, config.DefaultModelRole)
		if err != nil {
			return Models{}, err
		}
		*role.dst = model
	}
	return m, nil
}

// New compiles the team over the tools of registry. Calls to the tools named
// in risky pause the run before they execute.
func New(models Models, registry *tools.Registry, risky []string) (*graph.Graph, error) {
	researchTools, err := registry.Subset(ResearchTools...)
	if err != nil {
		return nil, err
	}
	tradingTools, err := registry.Subset(TradingTools...)
	if err != nil {
		return nil, err
	}

	research, err := prebuilt.NewReactAgent(ResearchAgent, models.Research, researchTools, prebuilt.AgentConfig{
		Prompt:     researchPrompt,
		Risky:      risky,
		GuardEmpty: true,
	})
	if err != nil {
		return nil, err
	}
	trading, err := prebuilt.NewReactAgent(TradingAgent, models.Trading, tradingTools, prebuilt.AgentConfig{
		Prompt:     tradingPrompt,
		Risky:      risky,
		GuardEmpty: true,
	})
	if err != nil {
		return nil, err
	}

	return prebuilt.NewSupervisor(models.Supervisor, []prebuilt.Agent{
		{Name: ResearchAgent, Description: "Finds one promising company for a theme or sector using web search.", Graph: research},
		{Name: TradingAgent, Description: "Looks up tickers, fetches market data, sizes positions and places orders.", Graph: trading},
	}, prebuilt.SupervisorConfig{
		Prompt:     supervisorPrompt,
		GuardEmpty: true,
	})
}
