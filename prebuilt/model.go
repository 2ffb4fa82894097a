package prebuilt

import (
	"context"
	"strings"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// ClarificationNeeded replaces an assistant reply that carries neither text
// nor tool calls.
const ClarificationNeeded = "CLARIFICATION_NEEDED: Unable to proceed - previous step produced no content. " +
	"Provide missing info (ticker, action, budget) or ask for research."

// PostModelHook rewrites a model reply before it is appended.
type PostModelHook func(reply protocol.Message) protocol.Message

// GuardEmpty replaces empty replies with ClarificationNeeded.
func GuardEmpty(reply protocol.Message) protocol.Message {
	if !reply.HasToolCalls() && strings.TrimSpace(reply.Content) == "" {
		reply.Content = ClarificationNeeded
	}
	return reply
}

type modelConfig struct {
	prompt   string
	name     string
	registry *tools.Registry
	extra    []protocol.Tool
	selector *ModelSelector
	hooks    []PostModelHook
}

// ModelOption configures ModelNode.
type ModelOption func(*modelConfig)

// WithPrompt prepends a system prompt to every call.
func WithPrompt(prompt string) ModelOption {
	return func(c *modelConfig) { c.prompt = prompt }
}

// WithName stamps replies with the agent name.
func WithName(name string) ModelOption {
	return func(c *modelConfig) { c.name = name }
}

// WithRegistry binds the tools of registry to every call.
func WithRegistry(registry *tools.Registry) ModelOption {
	return func(c *modelConfig) { c.registry = registry }
}

// WithToolDefs binds additional tool definitions that have no handler in a
// registry, such as supervisor handoffs.
func WithToolDefs(defs ...protocol.Tool) ModelOption {
	return func(c *modelConfig) { c.extra = append(c.extra, defs...) }
}

// WithSelector chooses the model per call from the conversation.
func WithSelector(selector ModelSelector) ModelOption {
	return func(c *modelConfig) { c.selector = &selector }
}

// WithPostHook adds a hook applied to every reply, in order.
func WithPostHook(hook PostModelHook) ModelOption {
	return func(c *modelConfig) { c.hooks = append(c.hooks, hook) }
}

func newModelConfig(opts []ModelOption) modelConfig {
	var cfg modelConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c modelConfig) toolDefs() []protocol.Tool {
	var defs []protocol.Tool
	if c.registry != nil {
		defs = append(defs, c.registry.List()...)
	}
	return append(defs, c.extra...)
}

// generate runs one model turn over the conversation in s.
func (c modelConfig) generate(ctx context.Context, model llm.ChatModel, s graph.State) (protocol.Message, error) {
	history := Messages(s)

	prompt := make([]protocol.Message, 0, len(history)+1)
	if c.prompt != "" {
		prompt = append(prompt, protocol.SystemMessage(c.prompt))
	}
	prompt = append(prompt, history...)

	if c.selector != nil {
		model = c.selector.Select(history)
	}

	var opts []llm.Option
	if defs := c.toolDefs(); len(defs) > 0 {
		opts = append(opts, llm.WithTools(defs))
	}

	reply, err := model.Generate(ctx, prompt, opts...)
	if err != nil {
		return protocol.Message{}, err
	}
	reply.Role = protocol.RoleAssistant
	if c.name != "" {
		reply.Name = c.name
	}
	for _, hook := range c.hooks {
		reply = hook(reply)
	}
	return reply, nil
}

// ModelNode calls model with the conversation and appends its reply. With a
// selector the model argument is only the fallback.
func ModelNode(model llm.ChatModel, opts ...ModelOption) graph.Node {
	cfg := newModelConfig(opts)
	return graph.UpdateNode(func(ctx context.Context, s graph.State) (graph.Update, error) {
		reply, err := cfg.generate(ctx, model, s)
		if err != nil {
			return nil, err
		}
		return AddMessages(reply), nil
	})
}
