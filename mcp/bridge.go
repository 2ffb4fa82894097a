package mcp

import (
	"context"
	"encoding/json"

	"github.com/tailored-agentic-units/agentgraph/protocol"
	"github.com/tailored-agentic-units/agentgraph/tools"
)

// Remote is a source of tools, either a local Server or a ConnectClient.
type Remote interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (CallResult, error)
}

// ListTools makes Server a Remote.
func (s *Server) ListTools(context.Context) ([]Tool, error) {
	return s.Tools(), nil
}

// Bridge registers every tool of remote into registry under prefix+name and
// returns the registered names. Calls are forwarded to remote; error results
// come back as tool results with IsError set.
func Bridge(ctx context.Context, remote Remote, registry *tools.Registry, prefix string) ([]string, error) {
	list, err := remote.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list))
	for _, t := range list {
		remoteName := t.Name
		name := prefix + remoteName
		err := registry.Register(protocol.Tool{
			Name:        name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		}, func(ctx context.Context, args json.RawMessage) (tools.Result, error) {
			res, err := remote.CallTool(ctx, remoteName, args)
			if err != nil {
				return tools.Result{}, err
			}
			return tools.Result{Content: res.Text(), IsError: res.IsError}, nil
		})
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}
