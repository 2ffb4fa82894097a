package prebuilt_test

import (
	"context"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm/llmtest"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

func chatGraph(t *testing.T, model *llmtest.Scripted, orders *[]string) *graph.Graph {
	t.Helper()
	reg := testRegistry(t, orders)
	g, err := graph.NewBuilder("chat", prebuilt.MessagesField()).
		AddNode("chatbot", prebuilt.ModelNode(model, prebuilt.WithRegistry(reg))).
		AddNode("tools", prebuilt.ToolNode(reg)).
		AddEdge(graph.Start, "chatbot").
		AddConditionalEdges("chatbot", prebuilt.ToolsCondition, map[string]string{
			prebuilt.LabelTools: "tools",
			prebuilt.LabelEnd:   graph.End,
		}).
		AddEdge("tools", "chatbot").
		Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return g
}

func TestToolLoop(t *testing.T) {
	model := llmtest.New(
		llmtest.CallTools(call("c1", "echo", `{"x":1}`), call("c2", "missing", `{}`)),
		llmtest.Say("all done"),
	)
	var orders []string
	runner := graph.NewRunner(chatGraph(t, model, &orders))

	run, err := runner.Start(context.Background(), "t1", prebuilt.UserInput("hi"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	msgs := runMessages(t, run)
	want := `user:hi | assistant>echo,missing | tool:echo {"x":1} | tool:error: tool not found: missing | assistant:all done`
	if got := shape(msgs); got != want {
		t.Errorf("messages:\n got %s\nwant %s", got, want)
	}
	if msgs[2].ToolCallID != "c1" || msgs[2].Name != "echo" || msgs[3].ToolCallID != "c2" {
		t.Errorf("tool messages = %+v, %+v", msgs[2], msgs[3])
	}

	calls := model.Calls()
	if len(calls) != 2 {
		t.Fatalf("model calls = %d, want 2", len(calls))
	}
	if len(calls[0].Tools) != 2 {
		t.Errorf("bound tools = %d, want 2", len(calls[0].Tools))
	}
	if len(calls[1].Messages) != 4 {
		t.Errorf("second call saw %d messages, want 4", len(calls[1].Messages))
	}
}

func TestToolsCondition(t *testing.T) {
	tests := []struct {
		name string
		msgs []protocol.Message
		want string
	}{
		{name: "empty", want: prebuilt.LabelEnd},
		{name: "text reply", msgs: []protocol.Message{protocol.AssistantMessage("hi")}, want: prebuilt.LabelEnd},
		{name: "tool call", msgs: []protocol.Message{{Role: protocol.RoleAssistant, ToolCalls: []protocol.ToolCall{call("1", "echo", "")}}}, want: prebuilt.LabelTools},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := graph.NewState()
			if tt.msgs != nil {
				s = s.Set(prebuilt.MessagesKey, tt.msgs)
			}
			got, err := prebuilt.ToolsCondition.Route(s)
			if err != nil || got != tt.want {
				t.Errorf("Route = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestPendingCalls(t *testing.T) {
	msgs := []protocol.Message{
		protocol.UserMessage("go"),
		{Role: protocol.RoleAssistant, ToolCalls: []protocol.ToolCall{call("a", "echo", ""), call("b", "place_order", "")}},
		protocol.ToolMessage("b", "place_order", "cancelled"),
	}

	pending := prebuilt.PendingCalls(msgs)
	if len(pending) != 1 || pending[0].ID != "a" {
		t.Errorf("pending = %+v, want only a", pending)
	}

	if got := prebuilt.PendingCalls(msgs[:1]); got != nil {
		t.Errorf("pending without assistant = %+v", got)
	}
}

func TestLastAssistant(t *testing.T) {
	msgs := []protocol.Message{
		protocol.AssistantMessage("first"),
		{Role: protocol.RoleAssistant, ToolCalls: []protocol.ToolCall{call("1", "echo", "")}},
		protocol.ToolMessage("1", "echo", "x"),
	}
	got, ok := prebuilt.LastAssistant(msgs)
	if !ok || got.Content != "first" {
		t.Errorf("LastAssistant = %+v, %v", got, ok)
	}
	if _, ok := prebuilt.LastAssistant(nil); ok {
		t.Error("expected no assistant message")
	}
}
