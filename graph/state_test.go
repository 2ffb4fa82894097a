package graph_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/agentgraph/graph"
)

func TestState_Immutability(t *testing.T) {
	base := graph.NewState().Set("topic", "go")
	next := base.Set("topic", "rust").Set("iteration", 1)

	if v, _ := base.Get("topic"); v != "go" {
		t.Errorf("original topic = %v, want go", v)
	}
	if v, _ := next.Get("topic"); v != "rust" {
		t.Errorf("new topic = %v, want rust", v)
	}
	if _, ok := base.Get("iteration"); ok {
		t.Error("original state should not see keys set on the copy")
	}
	if !slices.Equal(next.Keys(), []string{"iteration", "topic"}) {
		t.Errorf("keys = %v", next.Keys())
	}
}

func TestValueHelpers(t *testing.T) {
	s := graph.NewState().
		Set("name", "ada").
		Set("count", float64(3)).
		Set("n", int64(4))

	if v, ok := graph.Value[string](s, "name"); !ok || v != "ada" {
		t.Errorf("Value[string] = %q, %v", v, ok)
	}
	if _, ok := graph.Value[int](s, "name"); ok {
		t.Error("Value[int] on a string should fail")
	}
	if v := graph.ValueOr(s, "missing", "fallback"); v != "fallback" {
		t.Errorf("ValueOr = %q, want fallback", v)
	}
	if n, ok := graph.Int(s, "count"); !ok || n != 3 {
		t.Errorf("Int(count) = %d, %v; want 3", n, ok)
	}
	if n, ok := graph.Int(s, "n"); !ok || n != 4 {
		t.Errorf("Int(n) = %d, %v; want 4", n, ok)
	}
}

func TestMergePolicies(t *testing.T) {
	fields := []graph.Field{
		graph.Replace[string]("draft"),
		graph.Append[string]("history"),
	}

	tests := []struct {
		name    string
		start   map[string]any
		update  graph.Update
		want    map[string]any
		wantErr bool
	}{
		{
			name:   "replace overwrites",
			start:  map[string]any{"draft": "v1"},
			update: graph.Update{"draft": "v2"},
			want:   map[string]any{"draft": "v2"},
		},
		{
			name:   "append concatenates in order",
			start:  map[string]any{"history": []string{"a"}},
			update: graph.Update{"history": []string{"b", "c"}},
			want:   map[string]any{"history": []string{"a", "b", "c"}},
		},
		{
			name:   "append to missing field",
			update: graph.Update{"history": []string{"a"}},
			want:   map[string]any{"history": []string{"a"}},
		},
		{
			name:   "nil deletes replace field",
			start:  map[string]any{"draft": "v1"},
			update: graph.Update{"draft": nil},
			want:   map[string]any{},
		},
		{
			name:   "undeclared field replaces any value",
			start:  map[string]any{"extra": 1},
			update: graph.Update{"extra": []int{1}},
			want:   map[string]any{"extra": []int{1}},
		},
		{
			name:    "scalar into append field is rejected",
			start:   map[string]any{"history": []string{"a"}},
			update:  graph.Update{"history": "b"},
			wantErr: true,
		},
		{
			name:    "wrong element type is rejected",
			update:  graph.Update{"history": []int{1}},
			wantErr: true,
		},
		{
			name:    "wrong replace type is rejected",
			update:  graph.Update{"draft": 42},
			wantErr: true,
		},
		{
			name:    "whole update is rejected on one violation",
			start:   map[string]any{"draft": "v1"},
			update:  graph.Update{"draft": "v2", "history": "bad"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := graph.NewBuilder("merge", fields...).
				AddNode("apply", graph.UpdateNode(func(_ context.Context, _ graph.State) (graph.Update, error) {
					return tt.update, nil
				})).
				AddEdge(graph.Start, "apply").
				AddEdge("apply", graph.End).
				Compile()
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}

			input := graph.Update{}
			for k, v := range tt.start {
				input[k] = v
			}

			runner := graph.NewRunner(g)
			run, err := runner.Start(context.Background(), "s", input)

			if tt.wantErr {
				if !errors.Is(err, graph.ErrMergePolicy) {
					t.Fatalf("error = %v, want ErrMergePolicy", err)
				}
				var merr *graph.MergeError
				if !errors.As(err, &merr) {
					t.Fatalf("error %v is not a MergeError", err)
				}
				snap, err := runner.Snapshot(context.Background(), "s")
				if err != nil {
					t.Fatalf("Snapshot failed: %v", err)
				}
				if snap.Next() != "apply" {
					t.Errorf("pending node = %q, want apply", snap.Next())
				}
				assertData(t, snap.State.Data, tt.start)
				return
			}

			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			assertData(t, run.State.Data, tt.want)
		})
	}
}
