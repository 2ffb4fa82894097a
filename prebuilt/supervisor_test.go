package prebuilt_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm/llmtest"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

type team struct {
	supervisor *llmtest.Scripted
	research   *llmtest.Scripted
	trading    *llmtest.Scripted
	orders     []string
	runner     *graph.Runner
}

func newTeam(t *testing.T) *team {
	t.Helper()
	tm := &team{
		supervisor: llmtest.New(),
		research:   llmtest.New(),
		trading:    llmtest.New(),
	}

	reg := testRegistry(t, &tm.orders)
	researchTools, _ := reg.Subset("echo")
	research, err := prebuilt.NewReactAgent("research_agent", tm.research, researchTools, prebuilt.AgentConfig{})
	if err != nil {
		t.Fatalf("research agent: %v", err)
	}
	trading, err := prebuilt.NewReactAgent("trading_agent", tm.trading, reg, prebuilt.AgentConfig{Risky: []string{"place_order"}})
	if err != nil {
		t.Fatalf("trading agent: %v", err)
	}

	g, err := prebuilt.NewSupervisor(tm.supervisor, []prebuilt.Agent{
		{Name: "research_agent", Graph: research},
		{Name: "trading_agent", Description: "Executes trades", Graph: trading},
	}, prebuilt.SupervisorConfig{Prompt: "coordinate", GuardEmpty: true})
	if err != nil {
		t.Fatalf("NewSupervisor failed: %v", err)
	}
	tm.runner = graph.NewRunner(g)
	return tm
}

func TestSupervisor_HandoffAndReturn(t *testing.T) {
	tm := newTeam(t)
	tm.supervisor.Push(
		llmtest.CallTools(call("h1", "transfer_to_research_agent", `{}`)),
		llmtest.Say("Research picked Nvidia."),
	)
	tm.research.Push(llmtest.Say("CHOSEN_COMPANY: Nvidia"))

	run, err := tm.runner.Start(context.Background(), "s", prebuilt.UserInput("find an AI company"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	want := "user:find an AI company | assistant>transfer_to_research_agent | " +
		"tool:Successfully transferred to research_agent | assistant:CHOSEN_COMPANY: Nvidia | assistant:Research picked Nvidia."
	if got := shape(runMessages(t, run)); got != want {
		t.Errorf("messages:\n got %s\nwant %s", got, want)
	}

	calls := tm.supervisor.Calls()
	if len(calls) != 2 {
		t.Fatalf("supervisor calls = %d, want 2", len(calls))
	}
	var names []string
	for _, tool := range calls[0].Tools {
		names = append(names, tool.Name)
	}
	if !slices.Equal(names, []string{"transfer_to_research_agent", "transfer_to_trading_agent"}) {
		t.Errorf("handoff tools = %v", names)
	}
	if calls[0].System() != "coordinate" {
		t.Errorf("supervisor prompt = %q", calls[0].System())
	}
	if len(tm.research.Calls()[0].Tools) != 1 {
		t.Errorf("research agent should only see its own tool")
	}
}

func TestSupervisor_ApprovalInsideAgent(t *testing.T) {
	tm := newTeam(t)
	tm.supervisor.Push(
		llmtest.CallTools(call("h1", "transfer_to_trading_agent", `{}`)),
		llmtest.Say("Bought 2 AAPL."),
	)
	tm.trading.Push(
		llmtest.CallTools(call("o1", "place_order", `{"symbol":"AAPL","shares":2}`)),
		llmtest.Say("EXECUTION_SUMMARY: 2 AAPL"),
	)
	ctx := context.Background()

	run, err := tm.runner.Start(ctx, "s", prebuilt.UserInput("buy 2 apple"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !run.Interrupted() || !slices.Equal(run.Pending, []string{"trading_agent", prebuilt.NodeApproval}) {
		t.Fatalf("pending = %v, want [trading_agent approval]", run.Pending)
	}

	run, err = tm.runner.Resume(ctx, "s", graph.Update{prebuilt.ApprovedKey: true})
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if run.Status != graph.StatusDone {
		t.Fatalf("status = %s, want done", run.Status)
	}
	if len(tm.orders) != 1 {
		t.Errorf("orders = %v, want one", tm.orders)
	}
	final, _ := prebuilt.LastAssistant(runMessages(t, run))
	if final.Content != "Bought 2 AAPL." || final.Name != prebuilt.NodeSupervisor {
		t.Errorf("final = %+v", final)
	}
}

func TestSupervisor_UnknownHandoff(t *testing.T) {
	tm := newTeam(t)
	tm.supervisor.Push(
		llmtest.CallTools(call("h1", "transfer_to_nobody", `{}`), call("h2", "transfer_to_research_agent", `{}`)),
		llmtest.Say(""),
	)

	run, err := tm.runner.Start(context.Background(), "s", prebuilt.UserInput("hm"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	msgs := runMessages(t, run)
	if len(msgs) != 4 {
		t.Fatalf("messages = %s", shape(msgs))
	}
	if len(msgs[1].ToolCalls) != 1 {
		t.Errorf("only the first call should be kept: %+v", msgs[1].ToolCalls)
	}
	if msgs[2].Role != protocol.RoleTool || msgs[2].ToolCallID != "h1" {
		t.Errorf("answer = %+v", msgs[2])
	}
	if msgs[3].Content != prebuilt.ClarificationNeeded {
		t.Errorf("final = %q, want clarification", msgs[3].Content)
	}
	if len(tm.research.Calls()) != 0 {
		t.Error("research agent should not run")
	}
}

func TestSupervisor_ReservedName(t *testing.T) {
	g, _ := graph.NewBuilder("x", prebuilt.MessagesField()).
		AddNode("a", prebuilt.ToolNode(tools.NewRegistry())).
		AddEdge(graph.Start, "a").
		AddEdge("a", graph.End).
		Compile()

	_, err := prebuilt.NewSupervisor(llmtest.New(), []prebuilt.Agent{{Name: prebuilt.NodeSupervisor, Graph: g}}, prebuilt.SupervisorConfig{})
	if !errors.Is(err, graph.ErrInvalidGraph) {
		t.Errorf("error = %v, want ErrInvalidGraph", err)
	}
}
