// Package llmtest provides a deterministic chat model for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// ErrExhausted is returned when a Scripted model runs out of replies.
var ErrExhausted = errors.New("scripted model has no more replies")

// Call records one Generate invocation.
type Call struct {
	Messages []protocol.Message
	Tools    []protocol.Tool
}

// LastUser returns the content of the last user message of the call.
func (c Call) LastUser() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == protocol.RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}

// System returns the concatenated system messages of the call.
func (c Call) System() string {
	var parts []string
	for _, m := range c.Messages {
		if m.Role == protocol.RoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Reply is one scripted response. Err, when set, is returned instead of the
// message.
type Reply struct {
	Message protocol.Message
	Err     error
}

// Scripted returns queued replies in order and records every call.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

var _ llm.ChatModel = (*Scripted)(nil)

// New returns a Scripted model that answers with replies in order.
func New(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Text queues plain assistant replies.
func Text(contents ...string) *Scripted {
	s := &Scripted{}
	for _, c := range contents {
		s.Push(Reply{Message: protocol.AssistantMessage(c)})
	}
	return s
}

// Say builds an assistant text reply.
func Say(content string) Reply {
	return Reply{Message: protocol.AssistantMessage(content)}
}

// CallTools builds an assistant reply requesting the given tool calls.
func CallTools(calls ...protocol.ToolCall) Reply {
	return Reply{Message: protocol.Message{Role: protocol.RoleAssistant, ToolCalls: calls}}
}

// Fail builds a reply that returns err.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Push queues more replies.
func (s *Scripted) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

func (s *Scripted) Generate(ctx context.Context, msgs []protocol.Message, opts ...llm.Option) (protocol.Message, error) {
	if err := ctx.Err(); err != nil {
		return protocol.Message{}, err
	}
	o := llm.Apply(opts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{
		Messages: append([]protocol.Message(nil), msgs...),
		Tools:    o.Tools,
	})

	if len(s.replies) == 0 {
		return protocol.Message{}, ErrExhausted
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Message, r.Err
}

// Calls returns a copy of the recorded calls.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Remaining reports how many replies are still queued.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}
