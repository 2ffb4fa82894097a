package prebuilt

import (
	"context"
	"slices"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// Node names of a ReAct agent graph.
const (
	NodeAgent    = "agent"
	NodeTools    = "tools"
	NodeApproval = "approval"
)

// ApprovedKey carries the human decision when resuming at NodeApproval.
const ApprovedKey = "approved"

// Cancelled is the tool result recorded for a risky call a human rejected.
const Cancelled = "Cancelled by human. Continue without executing that tool and provide next steps."

// AgentConfig configures NewReactAgent.
type AgentConfig struct {
	Prompt string
	// Risky names tools that need human approval before they run.
	Risky []string
	// GuardEmpty replaces empty replies with ClarificationNeeded.
	GuardEmpty bool
	Selector   *ModelSelector
}

// ApprovedField declares the approval flag of a ReAct agent.
func ApprovedField() graph.Field {
	return graph.Replace[bool](ApprovedKey)
}

// RiskyCalls returns the pending calls of msgs whose tool is in risky.
func RiskyCalls(msgs []protocol.Message, risky []string) []protocol.ToolCall {
	var out []protocol.ToolCall
	for _, call := range PendingCalls(msgs) {
		if slices.Contains(risky, call.Name) {
			out = append(out, call)
		}
	}
	return out
}

// NewReactAgent builds the reason-act loop
//
//	agent -> tools -> agent
//	agent -> approval -> tools   (when a risky tool is requested)
//	agent -> end                 (when no tool is requested)
//
// The run pauses before approval. Resume with {ApprovedKey: true} to run the
// tools; any other resume records Cancelled for each risky call and lets the
// model continue without them.
func NewReactAgent(name string, model llm.ChatModel, registry *tools.Registry, cfg AgentConfig) (*graph.Graph, error) {
	opts := []ModelOption{WithName(name), WithRegistry(registry)}
	if cfg.Prompt != "" {
		opts = append(opts, WithPrompt(cfg.Prompt))
	}
	if cfg.Selector != nil {
		opts = append(opts, WithSelector(*cfg.Selector))
	}
	if cfg.GuardEmpty {
		opts = append(opts, WithPostHook(GuardEmpty))
	}

	risky := slices.Clone(cfg.Risky)
	route := graph.NewRouter("react_condition", []string{LabelTools, NodeApproval, LabelEnd}, func(s graph.State) string {
		msgs := Messages(s)
		if last, ok := protocol.LastMessage(msgs); !ok || !last.HasToolCalls() {
			return LabelEnd
		}
		if len(RiskyCalls(msgs, risky)) > 0 {
			return NodeApproval
		}
		return LabelTools
	})

	return graph.NewBuilder(name, MessagesField(), ApprovedField()).
		AddNode(NodeAgent, ModelNode(model, opts...)).
		AddNode(NodeTools, ToolNode(registry)).
		AddNode(NodeApproval, approvalNode(risky)).
		AddEdge(graph.Start, NodeAgent).
		AddConditionalEdges(NodeAgent, route, map[string]string{
			LabelTools:   NodeTools,
			NodeApproval: NodeApproval,
			LabelEnd:     graph.End,
		}).
		AddEdge(NodeApproval, NodeTools).
		AddEdge(NodeTools, NodeAgent).
		InterruptBefore(NodeApproval).
		Compile()
}

func approvalNode(risky []string) graph.Node {
	return graph.UpdateNode(func(_ context.Context, s graph.State) (graph.Update, error) {
		// the flag is consumed so a later risky call asks again
		update := graph.Update{ApprovedKey: nil}
		if graph.ValueOr(s, ApprovedKey, false) {
			return update, nil
		}

		calls := RiskyCalls(Messages(s), risky)
		cancelled := make([]protocol.Message, 0, len(calls))
		for _, call := range calls {
			cancelled = append(cancelled, protocol.ToolMessage(call.ID, call.Name, Cancelled))
		}
		update[MessagesKey] = cancelled
		return update, nil
	})
}
