package mathsrv_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/mcp"
	"github.com/tailored-agentic-units/agentgraph/mcp/servers/mathsrv"
)

func TestGenerateRandomNumber(t *testing.T) {
	var bounds []int
	s, err := mathsrv.New(func(n int) int {
		bounds = append(bounds, n)
		return n - 1
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		args      string
		wantText  string
		wantBound int
		wantErr   bool
	}{
		{"defaults", `{}`, "100", 101, false},
		{"range", `{"min_value":5,"max_value":7}`, "7", 3, false},
		{"single value", `{"min_value":4,"max_value":4}`, "4", 1, false},
		{"inverted range", `{"min_value":9,"max_value":1}`, "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds = nil
			res, err := s.CallTool(ctx, "generate_random_number", json.RawMessage(tt.args))
			if err != nil {
				t.Fatalf("CallTool failed: %v", err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, res.Text())
			}
			if tt.wantErr {
				if len(bounds) != 0 {
					t.Error("no number should be drawn for an inverted range")
				}
				return
			}
			if res.Text() != tt.wantText {
				t.Errorf("text = %s, want %s", res.Text(), tt.wantText)
			}
			if len(bounds) != 1 || bounds[0] != tt.wantBound {
				t.Errorf("drew from %v, want [%d]", bounds, tt.wantBound)
			}
		})
	}
}

func TestServerInfo(t *testing.T) {
	s, err := mathsrv.New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	contents, err := s.ReadResource(context.Background(), mathsrv.InfoURI)
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if contents.MimeType != "application/json" {
		t.Errorf("mime type = %s", contents.MimeType)
	}
	if !strings.HasPrefix(contents.Text, "{\n  \"name\": \"Math Server\"") {
		t.Errorf("info is not indented by two spaces:\n%s", contents.Text)
	}

	var info mathsrv.Info
	if err := json.Unmarshal([]byte(contents.Text), &info); err != nil {
		t.Fatalf("invalid info: %v", err)
	}
	if info.Version != "1.0.0" || len(info.Tools) != 2 || len(info.Resources) != 1 {
		t.Errorf("info = %+v", info)
	}

	var names []string
	for _, tool := range s.Tools() {
		names = append(names, tool.Name)
	}
	if strings.Join(names, ",") != "add_numbers,generate_random_number" {
		t.Errorf("tools = %v", names)
	}

	res, err := s.CallTool(context.Background(), "add_numbers", json.RawMessage(`{"a":2,"b":40}`))
	if err != nil || res.Text() != "42" {
		t.Errorf("add_numbers = %+v, %v", res, err)
	}
	if _, err := s.CallTool(context.Background(), "add_numbers", json.RawMessage(`{"a":2}`)); err == nil {
		t.Error("missing b should be rejected")
	}
	var _ mcp.Remote = s
}
