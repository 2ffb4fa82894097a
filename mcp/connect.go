package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/bytedance/sonic"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the Connect service exposing a Server.
const ServiceName = "mcp.v1.ToolService"

// Connect procedures.
const (
	ListToolsProcedure    = "/" + ServiceName + "/ListTools"
	CallToolProcedure     = "/" + ServiceName + "/CallTool"
	ReadResourceProcedure = "/" + ServiceName + "/ReadResource"
)

// NewConnectHandler returns the path prefix and handler serving s as a
// Connect service. Requests and responses are structpb.Struct values shaped
// like the JSON-RPC params and results.
func NewConnectHandler(s *Server, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(ListToolsProcedure, connect.NewUnaryHandler(ListToolsProcedure,
		func(ctx context.Context, _ *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			return respond(map[string]any{"tools": s.Tools()})
		}, opts...))

	mux.Handle(CallToolProcedure, connect.NewUnaryHandler(CallToolProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			fields := req.Msg.GetFields()
			name := fields["name"].GetStringValue()
			if name == "" {
				return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name is required"))
			}
			args := json.RawMessage("{}")
			if a := fields["arguments"]; a != nil {
				raw, err := a.MarshalJSON()
				if err != nil {
					return nil, connect.NewError(connect.CodeInvalidArgument, err)
				}
				args = raw
			}

			res, err := s.CallTool(ctx, name, args)
			if err != nil {
				return nil, connectError(err)
			}
			return respond(res)
		}, opts...))

	mux.Handle(ReadResourceProcedure, connect.NewUnaryHandler(ReadResourceProcedure,
		func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
			uri := req.Msg.GetFields()["uri"].GetStringValue()
			contents, err := s.ReadResource(ctx, uri)
			if err != nil {
				return nil, connectError(err)
			}
			return respond(map[string]any{"contents": []ResourceContents{contents}})
		}, opts...))

	return "/" + ServiceName + "/", mux
}

func connectError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownTool), errors.Is(err, ErrUnknownURI):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrInvalidArguments):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func respond(v any) (*connect.Response[structpb.Struct], error) {
	msg, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// toStruct converts v to a Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes s into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	raw, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, v)
}

// ConnectClient calls a Server exposed with NewConnectHandler.
type ConnectClient struct {
	list connectCaller
	call connectCaller
	read connectCaller
}

type connectCaller = *connect.Client[structpb.Struct, structpb.Struct]

// NewConnectClient returns a client for the service at baseURL.
func NewConnectClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ConnectClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &ConnectClient{
		list: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ListToolsProcedure, opts...),
		call: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+CallToolProcedure, opts...),
		read: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ReadResourceProcedure, opts...),
	}
}

// ListTools returns the tools of the remote server.
func (c *ConnectClient) ListTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.list.CallUnary(ctx, connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	var out struct {
		Tools []Tool `json:"tools"`
	}
	if err := fromStruct(resp.Msg, &out); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return out.Tools, nil
}

// CallTool invokes a remote tool. Tool failures come back as a result with
// IsError set; transport and argument errors are returned as errors.
func (c *ConnectClient) CallTool(ctx context.Context, name string, args json.RawMessage) (CallResult, error) {
	var arguments map[string]any
	if len(args) > 0 {
		if err := sonic.Unmarshal(args, &arguments); err != nil {
			return CallResult{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}
	req, err := toStruct(map[string]any{"name": name, "arguments": arguments})
	if err != nil {
		return CallResult{}, err
	}

	resp, err := c.call.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return CallResult{}, fmt.Errorf("call %s: %w", name, err)
	}
	var res CallResult
	if err := fromStruct(resp.Msg, &res); err != nil {
		return CallResult{}, fmt.Errorf("call %s: %w", name, err)
	}
	return res, nil
}

// ReadResource reads a remote resource by URI.
func (c *ConnectClient) ReadResource(ctx context.Context, uri string) (ResourceContents, error) {
	req, err := structpb.NewStruct(map[string]any{"uri": uri})
	if err != nil {
		return ResourceContents{}, err
	}
	resp, err := c.read.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return ResourceContents{}, fmt.Errorf("read %s: %w", uri, err)
	}
	var out struct {
		Contents []ResourceContents `json:"contents"`
	}
	if err := fromStruct(resp.Msg, &out); err != nil {
		return ResourceContents{}, fmt.Errorf("read %s: %w", uri, err)
	}
	if len(out.Contents) == 0 {
		return ResourceContents{}, fmt.Errorf("read %s: empty response", uri)
	}
	return out.Contents[0], nil
}
