// Package llm adapts chat model providers to the protocol message types used
// by agent nodes.
package llm

import (
	"context"

	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// ChatModel generates the next assistant message of a conversation.
type ChatModel interface {
	Generate(ctx context.Context, msgs []protocol.Message, opts ...Option) (protocol.Message, error)
}

// Options are the per-call settings collected from Option values.
type Options struct {
	Tools []protocol.Tool
}

type Option func(*Options)

// WithTools binds tool definitions for a single call.
func WithTools(tools []protocol.Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// Apply collects opts into an Options value.
func Apply(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
