package prebuilt

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// NodeSupervisor is the coordinating node of a supervisor graph.
const NodeSupervisor = "supervisor"

// HandoffPrefix prefixes the tool that transfers control to an agent.
const HandoffPrefix = "transfer_to_"

// Agent is a compiled agent graph the supervisor can hand work to.
type Agent struct {
	Name        string
	Description string
	Graph       *graph.Graph
}

// SupervisorConfig configures NewSupervisor.
type SupervisorConfig struct {
	Name       string
	Prompt     string
	GuardEmpty bool
}

// HandoffTool describes the tool that transfers control to agent.
func HandoffTool(agent Agent) protocol.Tool {
	desc := agent.Description
	if desc == "" {
		desc = "Ask agent '" + agent.Name + "' for help"
	}
	return protocol.Tool{
		Name:        HandoffPrefix + agent.Name,
		Description: desc,
		Parameters:  protocol.ObjectSchema(map[string]any{}),
	}
}

// NewSupervisor builds a graph in which a supervisor model delegates to
// agent sub-graphs through transfer_to_<agent> tool calls. Each agent returns
// to the supervisor when it finishes; the supervisor ends the run by
// replying without a handoff. The full message history is kept.
func NewSupervisor(model llm.ChatModel, agents []Agent, cfg SupervisorConfig) (*graph.Graph, error) {
	name := cfg.Name
	if name == "" {
		name = NodeSupervisor
	}

	targets := make(map[string]string, len(agents))
	destinations := []string{graph.End, NodeSupervisor}
	opts := []ModelOption{WithName(NodeSupervisor)}
	if cfg.Prompt != "" {
		opts = append(opts, WithPrompt(cfg.Prompt))
	}
	if cfg.GuardEmpty {
		opts = append(opts, WithPostHook(GuardEmpty))
	}

	b := graph.NewBuilder(name, MessagesField())
	for _, a := range agents {
		if a.Name == NodeSupervisor {
			return nil, fmt.Errorf("%w: agent name %q is reserved", graph.ErrInvalidGraph, a.Name)
		}
		tool := HandoffTool(a)
		targets[tool.Name] = a.Name
		destinations = append(destinations, a.Name)
		opts = append(opts, WithToolDefs(tool))

		b.AddSubgraph(a.Name, a.Graph).AddEdge(a.Name, NodeSupervisor)
	}

	mc := newModelConfig(opts)
	supervise := graph.NewFunctionNode(func(ctx context.Context, s graph.State) (graph.Result, error) {
		reply, err := mc.generate(ctx, model, s)
		if err != nil {
			return nil, err
		}
		return handoff(reply, targets), nil
	})

	return b.
		AddNode(NodeSupervisor, supervise, graph.Destinations(destinations...)).
		AddEdge(graph.Start, NodeSupervisor).
		Compile()
}

// handoff turns a supervisor reply into a routing command. Only the first
// tool call is honored; the reply keeps just that call so every call in the
// history has an answer.
func handoff(reply protocol.Message, targets map[string]string) graph.Command {
	if !reply.HasToolCalls() {
		return graph.Command{Update: AddMessages(reply), Goto: graph.End}
	}

	call := reply.ToolCalls[0]
	reply.ToolCalls = reply.ToolCalls[:1]

	agent, ok := targets[call.Name]
	if !ok {
		known := make([]string, 0, len(targets))
		for tool := range targets {
			known = append(known, tool)
		}
		slices.Sort(known)
		answer := protocol.ToolMessage(call.ID, call.Name,
			fmt.Sprintf("error: unknown tool %q, use one of %s", call.Name, strings.Join(known, ", ")))
		return graph.Command{Update: AddMessages(reply, answer), Goto: NodeSupervisor}
	}

	answer := protocol.ToolMessage(call.ID, call.Name, "Successfully transferred to "+agent)
	return graph.Command{Update: AddMessages(reply, answer), Goto: agent}
}
