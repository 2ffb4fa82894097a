// Package protocol defines the chat message types shared by models, tools,
// and agent state.
package protocol

import (
	"encoding/json"
	"strings"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model's request to invoke a tool. On the wire it uses the
// nested chat-completions form ({id, type, function: {name, arguments}});
// the flat form is accepted when decoding.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

func (tc ToolCall) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireToolCall{
		ID:       tc.ID,
		Type:     "function",
		Function: wireFunction{Name: tc.Name, Arguments: tc.Arguments},
	})
}

func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var nested wireToolCall
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}

	if nested.Function.Name != "" {
		tc.ID = nested.ID
		tc.Name = nested.Function.Name
		tc.Arguments = nested.Function.Arguments
		return nil
	}

	type plain ToolCall
	return json.Unmarshal(data, (*plain)(tc))
}

// Message is a single conversation entry.
//
// Assistant messages may carry ToolCalls; tool messages carry the
// ToolCallID they answer and the Name of the tool that produced them.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// NewMessage builds a message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// SystemMessage builds a system prompt message.
func SystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// AssistantMessage builds a plain assistant reply.
func AssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// ToolMessage answers the tool call identified by callID.
func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, Name: name, ToolCallID: callID}
}

// InitMessages creates a single-element conversation from a role and content.
func InitMessages(role Role, content string) []Message {
	return []Message{NewMessage(role, content)}
}

// HasToolCalls reports whether m requests at least one tool invocation.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// LastMessage returns the final message of msgs and false when msgs is empty.
func LastMessage(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1], true
}

// Transcript renders msgs as "role: content" lines. Tool calls are listed by
// name.
func Transcript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		for _, tc := range m.ToolCalls {
			b.WriteString(" [call ")
			b.WriteString(tc.Name)
			b.WriteString("]")
		}
		b.WriteString("\n")
	}
	return b.String()
}
