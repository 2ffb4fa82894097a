package prebuilt_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// testRegistry holds "echo", which returns its arguments, and "place_order",
// which records that it ran.
func testRegistry(t *testing.T, orders *[]string) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	err := r.Register(protocol.Tool{Name: "echo", Description: "echo"}, func(_ context.Context, args json.RawMessage) (tools.Result, error) {
		return tools.Result{Content: "echo " + string(args)}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	err = r.Register(protocol.Tool{Name: "place_order", Description: "order"}, func(_ context.Context, args json.RawMessage) (tools.Result, error) {
		*orders = append(*orders, string(args))
		return tools.Result{Content: `{"status":"filled"}`}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func call(id, name, args string) protocol.ToolCall {
	return protocol.ToolCall{ID: id, Name: name, Arguments: args}
}

// shape renders messages as "role:content" with tool calls as "role>name".
func shape(msgs []protocol.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.HasToolCalls() {
			names := make([]string, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				names[i] = tc.Name
			}
			parts = append(parts, string(m.Role)+">"+strings.Join(names, ","))
			continue
		}
		parts = append(parts, string(m.Role)+":"+m.Content)
	}
	return strings.Join(parts, " | ")
}

func runMessages(t *testing.T, run *graph.Run) []protocol.Message {
	t.Helper()
	return prebuilt.Messages(run.State)
}
