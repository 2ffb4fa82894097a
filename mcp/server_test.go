package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/mcp"
)

type greetArgs struct {
	Name     string `json:"name" desc:"Who to greet"`
	Greeting string `json:"greeting,omitempty"`
	Times    int    `json:"times,omitempty"`
}

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func testServer(t *testing.T) *mcp.Server {
	t.Helper()
	s := mcp.NewServer("test", "0.1.0")
	err := mcp.AddTypedTool(s, "greet", "Greet someone", greetArgs{Greeting: "Hello", Times: 1},
		func(_ context.Context, in greetArgs) (string, error) {
			return strings.Repeat(in.Greeting+", "+in.Name+"! ", in.Times), nil
		})
	if err != nil {
		t.Fatal(err)
	}
	err = mcp.AddTypedTool(s, "origin", "Return the origin", struct{}{},
		func(context.Context, struct{}) (point, error) { return point{}, nil })
	if err != nil {
		t.Fatal(err)
	}
	err = mcp.AddTypedTool(s, "squares", "First squares", struct{}{},
		func(context.Context, struct{}) ([]int, error) { return []int{1, 4, 9}, nil })
	if err != nil {
		t.Fatal(err)
	}
	err = s.AddTool(mcp.Tool{Name: "fail"}, func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("boom")
	})
	if err != nil {
		t.Fatal(err)
	}
	err = s.AddResource(mcp.Resource{URI: "test://motd", Name: "motd"}, func(context.Context) (string, error) {
		return "hello", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type rpcResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *mcp.Error      `json:"error"`
}

func handle(t *testing.T, s *mcp.Server, msg string) rpcResponse {
	t.Helper()
	out := s.Handle(context.Background(), []byte(msg))
	if out == nil {
		t.Fatalf("no response to %s", msg)
	}
	var resp rpcResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("invalid response %s: %v", out, err)
	}
	return resp
}

func TestServer_Registration(t *testing.T) {
	s := testServer(t)
	if err := s.AddTool(mcp.Tool{Name: "greet"}, nil); !errors.Is(err, mcp.ErrToolExists) {
		t.Errorf("duplicate tool: err = %v", err)
	}
	if err := s.AddResource(mcp.Resource{URI: "test://motd"}, nil); !errors.Is(err, mcp.ErrResourceExists) {
		t.Errorf("duplicate resource: err = %v", err)
	}
	err := mcp.AddTypedTool(s, "bad", "", 42, func(context.Context, int) (int, error) { return 0, nil })
	if err == nil {
		t.Error("non-struct arguments should be rejected")
	}
}

func TestServer_TypedSchema(t *testing.T) {
	var greet mcp.Tool
	for _, tool := range testServer(t).Tools() {
		if tool.Name == "greet" {
			greet = tool
		}
	}

	req, _ := greet.InputSchema["required"].([]string)
	if len(req) != 1 || req[0] != "name" {
		t.Errorf("required = %v, want [name]", greet.InputSchema["required"])
	}
	props := greet.InputSchema["properties"].(map[string]any)
	name := props["name"].(map[string]any)
	if name["type"] != "string" || name["description"] != "Who to greet" {
		t.Errorf("name property = %v", name)
	}
	times := props["times"].(map[string]any)
	if times["type"] != "integer" || times["default"] != 1 {
		t.Errorf("times property = %v", times)
	}
}

func TestServer_Handle(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		wantCode  int
		wantInRes string
	}{
		{"initialize", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`, 0, `"serverInfo":{"name":"test","version":"0.1.0"}`},
		{"ping", `{"jsonrpc":"2.0","id":2,"method":"ping"}`, 0, `{}`},
		{"tools list", `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`, 0, `"name":"fail"`},
		{"call with defaults", `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada"}}}`, 0, `"text":"Hello, Ada! "`},
		{"call overriding defaults", `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada","greeting":"Hi","times":2}}}`, 0, `"text":"Hi, Ada! Hi, Ada! "`},
		{"object result", `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"origin"}}`, 0, `"structuredContent":{"x":0,"y":0}`},
		{"list result", `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"squares","arguments":{}}}`, 0, `"structuredContent":{"result":[1,4,9]}`},
		{"handler error", `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"fail"}}`, 0, `"isError":true`},
		{"resources list", `{"jsonrpc":"2.0","id":9,"method":"resources/list"}`, 0, `"uri":"test://motd"`},
		{"resource read", `{"jsonrpc":"2.0","id":10,"method":"resources/read","params":{"uri":"test://motd"}}`, 0, `"text":"hello"`},
		{"parse error", `{"jsonrpc":`, mcp.CodeParseError, ""},
		{"wrong version", `{"jsonrpc":"1.0","id":11,"method":"ping"}`, mcp.CodeInvalidRequest, ""},
		{"missing method", `{"jsonrpc":"2.0","id":12}`, mcp.CodeInvalidRequest, ""},
		{"unknown method", `{"jsonrpc":"2.0","id":13,"method":"prompts/list"}`, mcp.CodeMethodNotFound, ""},
		{"unknown tool", `{"jsonrpc":"2.0","id":14,"method":"tools/call","params":{"name":"nope"}}`, mcp.CodeInvalidParams, ""},
		{"missing tool name", `{"jsonrpc":"2.0","id":15,"method":"tools/call","params":{}}`, mcp.CodeInvalidParams, ""},
		{"missing required argument", `{"jsonrpc":"2.0","id":16,"method":"tools/call","params":{"name":"greet","arguments":{}}}`, mcp.CodeInvalidParams, ""},
		{"wrong argument type", `{"jsonrpc":"2.0","id":17,"method":"tools/call","params":{"name":"greet","arguments":{"name":7}}}`, mcp.CodeInvalidParams, ""},
		{"unknown resource", `{"jsonrpc":"2.0","id":18,"method":"resources/read","params":{"uri":"test://none"}}`, mcp.CodeInvalidParams, ""},
	}

	s := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, s, tt.msg)
			if tt.wantCode != 0 {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("error = %+v, want code %d", resp.Error, tt.wantCode)
				}
				return
			}
			if resp.Error != nil {
				t.Fatalf("unexpected error %+v", resp.Error)
			}
			if !strings.Contains(string(resp.Result), tt.wantInRes) {
				t.Errorf("result %s does not contain %s", resp.Result, tt.wantInRes)
			}
		})
	}
}

func TestServer_HandleIDs(t *testing.T) {
	s := testServer(t)

	if out := s.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)); out != nil {
		t.Errorf("notification got response %s", out)
	}
	if resp := handle(t, s, `{"jsonrpc":"2.0","id":"abc","method":"ping"}`); string(resp.ID) != `"abc"` {
		t.Errorf("id = %s, want \"abc\"", resp.ID)
	}
	if resp := handle(t, s, `not json`); string(resp.ID) != "null" {
		t.Errorf("parse error id = %s, want null", resp.ID)
	}
}

func TestCallResult_Text(t *testing.T) {
	r := mcp.CallResult{Content: []mcp.Content{{Type: "text", Text: "a"}, {Type: "image"}, {Type: "text", Text: "b"}}}
	if got := r.Text(); got != "a\nb" {
		t.Errorf("Text() = %q", got)
	}
}
