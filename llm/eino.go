package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// EinoModel adapts an eino chat model. Tools passed with WithTools are bound
// per call through WithTools on the underlying model.
type EinoModel struct {
	base model.BaseChatModel
}

// NewEinoModel adapts an eino chat model to ChatModel.
func NewEinoModel(m model.BaseChatModel) *EinoModel {
	return &EinoModel{base: m}
}

// Generate converts msgs to eino messages, calls the model and converts the
// reply back. Tools in opts are bound when the model supports tool calling.
func (e *EinoModel) Generate(ctx context.Context, msgs []protocol.Message, opts ...Option) (protocol.Message, error) {
	o := Apply(opts...)

	target := e.base
	if len(o.Tools) > 0 {
		tc, ok := e.base.(model.ToolCallingChatModel)
		if !ok {
			return protocol.Message{}, ErrNoToolSupport
		}
		bound, err := tc.WithTools(ToToolInfos(o.Tools))
		if err != nil {
			return protocol.Message{}, fmt.Errorf("failed to bind tools: %w", err)
		}
		target = bound
	}

	out, err := target.Generate(ctx, ToSchemaMessages(msgs))
	if err != nil {
		return protocol.Message{}, err
	}
	return FromSchemaMessage(out), nil
}

// ToSchemaMessages converts protocol messages to eino messages.
func ToSchemaMessages(msgs []protocol.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		sm := &schema.Message{
			Role:       schema.RoleType(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			sm.ToolCalls = append(sm.ToolCalls, schema.ToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: schema.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		out = append(out, sm)
	}
	return out
}

// FromSchemaMessage converts an eino message to a protocol message.
func FromSchemaMessage(m *schema.Message) protocol.Message {
	if m == nil {
		return protocol.Message{Role: protocol.RoleAssistant}
	}
	out := protocol.Message{
		Role:       protocol.Role(m.Role),
		Content:    m.Content,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
	}
	if out.Role == "" {
		out.Role = protocol.RoleAssistant
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, protocol.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// ToToolInfos converts tool definitions to eino tool infos. The JSON Schema
// of each tool is mapped onto eino parameter descriptions.
func ToToolInfos(tools []protocol.Tool) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info := &schema.ToolInfo{Name: t.Name, Desc: t.Description}
		if params := objectParams(t.Parameters); len(params) > 0 {
			info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
		}
		infos = append(infos, info)
	}
	return infos
}

func objectParams(s map[string]any) map[string]*schema.ParameterInfo {
	props, _ := s["properties"].(map[string]any)
	if len(props) == 0 {
		return nil
	}

	required := map[string]bool{}
	switch req := s["required"].(type) {
	case []string:
		for _, r := range req {
			required[r] = true
		}
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				required[name] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*schema.ParameterInfo, len(props))
	for _, name := range names {
		p, _ := props[name].(map[string]any)
		info := paramInfo(p)
		info.Required = required[name]
		out[name] = info
	}
	return out
}

func paramInfo(p map[string]any) *schema.ParameterInfo {
	info := &schema.ParameterInfo{Type: schema.String}
	if t, ok := p["type"].(string); ok {
		info.Type = schema.DataType(t)
	}
	if d, ok := p["description"].(string); ok {
		info.Desc = d
	}
	switch enum := p["enum"].(type) {
	case []string:
		info.Enum = enum
	case []any:
		for _, e := range enum {
			info.Enum = append(info.Enum, fmt.Sprint(e))
		}
	}
	switch info.Type {
	case schema.Object:
		info.SubParams = objectParams(p)
	case schema.Array:
		if items, ok := p["items"].(map[string]any); ok {
			info.ElemInfo = paramInfo(items)
		}
	}
	return info
}
