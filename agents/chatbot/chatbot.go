// Package chatbot is a tool-using chat assistant: one model node that may
// answer or call the finance and search tools, looping until it answers.
package chatbot

import (
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// Node names.
const (
	NodeChatbot = "chatbot"
	NodeTools   = "tools"
)

// New compiles chatbot -> (tools -> chatbot | end). The selector picks the
// model for each turn.
func New(selector prebuilt.ModelSelector, registry *tools.Registry) (*graph.Graph, error) {
	return graph.NewBuilder("chatbot", prebuilt.MessagesField()).
		AddNode(NodeChatbot, prebuilt.ModelNode(selector.Default,
			prebuilt.WithSelector(selector),
			prebuilt.WithRegistry(registry),
		)).
		AddNode(NodeTools, prebuilt.ToolNode(registry)).
		AddEdge(graph.Start, NodeChatbot).
		AddConditionalEdges(NodeChatbot, prebuilt.ToolsCondition, map[string]string{
			prebuilt.LabelTools: NodeTools,
			prebuilt.LabelEnd:   graph.End,
		}).
		AddEdge(NodeTools, NodeChatbot).
		Compile()
}
