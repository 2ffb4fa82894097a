package prebuilt

import (
	"context"
	"strings"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// Labels of ToolsCondition.
const (
	LabelTools = "tools"
	LabelEnd   = "end"
)

// ToolsCondition routes to LabelTools when the last message requests tool
// calls and to LabelEnd otherwise.
var ToolsCondition = graph.NewRouter("tools_condition", []string{LabelTools, LabelEnd}, func(s graph.State) string {
	if last, ok := protocol.LastMessage(Messages(s)); ok && last.HasToolCalls() {
		return LabelTools
	}
	return LabelEnd
})

// ToolNode executes the tool calls of the latest assistant message and
// appends one tool message per call. Calls that already have an answer are
// skipped. Failures are reported to the model as "error: ..." content.
func ToolNode(registry *tools.Registry) graph.Node {
	return graph.UpdateNode(func(ctx context.Context, s graph.State) (graph.Update, error) {
		calls := PendingCalls(Messages(s))
		if len(calls) == 0 {
			return nil, nil
		}

		out := make([]protocol.Message, 0, len(calls))
		for _, call := range calls {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out = append(out, protocol.ToolMessage(call.ID, call.Name, runTool(ctx, registry, call)))
		}
		return AddMessages(out...), nil
	})
}

func runTool(ctx context.Context, registry *tools.Registry, call protocol.ToolCall) string {
	res, err := registry.Execute(ctx, call.Name, []byte(call.Arguments))
	if err != nil {
		return "error: " + err.Error()
	}
	if res.IsError && !strings.HasPrefix(res.Content, "error:") {
		return "error: " + res.Content
	}
	return res.Content
}

// PendingCalls returns the tool calls of the latest assistant message that
// have no tool message answering them yet.
func PendingCalls(msgs []protocol.Message) []protocol.ToolCall {
	idx := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == protocol.RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 || !msgs[idx].HasToolCalls() {
		return nil
	}

	answered := make(map[string]bool)
	for _, m := range msgs[idx+1:] {
		if m.Role == protocol.RoleTool {
			answered[m.ToolCallID] = true
		}
	}

	var pending []protocol.ToolCall
	for _, call := range msgs[idx].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return pending
}
