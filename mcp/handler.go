package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"
)

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type readParams struct {
	URI string `json:"uri"`
}

// Handle processes one JSON-RPC message and returns the encoded response, or
// nil for a notification.
func (s *Server) Handle(ctx context.Context, msg []byte) []byte {
	var req Request
	if err := sonic.Unmarshal(msg, &req); err != nil {
		return encode(Response{JSONRPC: jsonrpcVersion, Error: errorf(CodeParseError, "parse error: %v", err)})
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		return encode(Response{JSONRPC: jsonrpcVersion, ID: req.ID, Error: errorf(CodeInvalidRequest, "invalid request")})
	}

	result, rpcErr := s.dispatch(ctx, &req)
	if req.Notification() {
		return nil
	}
	resp := Response{JSONRPC: jsonrpcVersion, ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return encode(resp)
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *Error) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{"listChanged": false},
				"resources": map[string]any{"listChanged": false},
			},
			"serverInfo": map[string]any{"name": s.name, "version": s.version},
		}, nil

	case "ping", "notifications/initialized":
		return map[string]any{}, nil

	case "tools/list":
		return map[string]any{"tools": s.Tools()}, nil

	case "tools/call":
		var p callParams
		if err := decodeParams(req.Params, &p); err != nil || p.Name == "" {
			return nil, errorf(CodeInvalidParams, "tools/call requires a tool name")
		}
		res, err := s.CallTool(ctx, p.Name, p.Arguments)
		if err != nil {
			return nil, toRPCError(err)
		}
		return res, nil

	case "resources/list":
		return map[string]any{"resources": s.Resources()}, nil

	case "resources/read":
		var p readParams
		if err := decodeParams(req.Params, &p); err != nil || p.URI == "" {
			return nil, errorf(CodeInvalidParams, "resources/read requires a uri")
		}
		contents, err := s.ReadResource(ctx, p.URI)
		if err != nil {
			return nil, toRPCError(err)
		}
		return map[string]any{"contents": []ResourceContents{contents}}, nil

	default:
		return nil, errorf(CodeMethodNotFound, "method not found: %s", req.Method)
	}
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing params")
	}
	return sonic.Unmarshal(raw, v)
}

func toRPCError(err error) *Error {
	switch {
	case errors.Is(err, ErrUnknownTool), errors.Is(err, ErrUnknownURI), errors.Is(err, ErrInvalidArguments):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
}

func encode(resp Response) []byte {
	if resp.ID == nil {
		resp.ID = json.RawMessage("null")
	}
	out, err := sonic.ConfigStd.Marshal(resp)
	if err != nil {
		out, _ = sonic.ConfigStd.Marshal(Response{
			JSONRPC: jsonrpcVersion,
			ID:      resp.ID,
			Error:   errorf(CodeInternalError, "failed to encode response: %v", err),
		})
	}
	return out
}
