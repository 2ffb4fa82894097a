package graph_test

import (
	"testing"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/graph/graphtest"
)

func TestMemoryStore(t *testing.T) {
	graphtest.RunStoreTests(t, func(t *testing.T) graph.CheckpointStore {
		return graph.NewMemoryStore()
	})
}

func TestCheckpoint_Node(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "top level", path: []string{"critic"}, want: "critic"},
		{name: "nested", path: []string{"trading_agent", "approval"}, want: "approval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := graph.Checkpoint{Path: tt.path}
			if got := cp.Node(); got != tt.want {
				t.Errorf("Node() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := graph.NewSessionID(), graph.NewSessionID()
	if a == "" || a == b {
		t.Errorf("session ids %q and %q should be unique and non-empty", a, b)
	}
}
