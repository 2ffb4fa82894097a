package prebuilt

import (
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// MessagesKey is the state field holding the conversation.
const MessagesKey = "messages"

// MessagesField declares the append-only conversation field.
func MessagesField() graph.Field {
	return graph.Append[protocol.Message](MessagesKey)
}

// Messages returns the conversation held in s.
func Messages(s graph.State) []protocol.Message {
	msgs, _ := graph.Value[[]protocol.Message](s, MessagesKey)
	return msgs
}

// AddMessages builds an update appending msgs to the conversation.
func AddMessages(msgs ...protocol.Message) graph.Update {
	return graph.Update{MessagesKey: msgs}
}

// UserInput builds the input of a conversational run from user text.
func UserInput(text string) graph.Update {
	return AddMessages(protocol.UserMessage(text))
}

// LastAssistant returns the final assistant message of msgs that carries
// text and no tool calls.
func LastAssistant(msgs []protocol.Message) (protocol.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role == protocol.RoleAssistant && !m.HasToolCalls() && m.Content != "" {
			return m, true
		}
	}
	return protocol.Message{}, false
}
