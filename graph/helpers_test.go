package graph_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/graph"
)

// setNode returns a node that writes value under key.
func setNode(key string, value any) graph.Node {
	return graph.UpdateNode(func(context.Context, graph.State) (graph.Update, error) {
		return graph.Update{key: value}, nil
	})
}

// appendNode returns a node that appends item to the []string field key.
func appendNode(key, item string) graph.Node {
	return graph.UpdateNode(func(context.Context, graph.State) (graph.Update, error) {
		return graph.Update{key: []string{item}}, nil
	})
}

func assertData(t *testing.T, got, want map[string]any) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("state = %v, want %v", got, want)
	}
	for k, w := range want {
		if g, ok := got[k]; !ok || !reflect.DeepEqual(g, w) {
			t.Errorf("state[%q] = %#v, want %#v", k, got[k], w)
		}
	}
}

func mustCompile(t *testing.T, b *graph.Builder) *graph.Graph {
	t.Helper()
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return g
}

// flaky fails until it is switched off.
type flaky struct {
	fail  bool
	calls int
}

func (f *flaky) Execute(ctx context.Context, s graph.State) (graph.Result, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("upstream unavailable")
	}
	return graph.Update{"b": "done"}, nil
}
