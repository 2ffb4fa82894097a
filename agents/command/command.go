// Package command demonstrates routing by Command: a dispatch sub-graph
// writes foo and jumps straight to node_b or node_c of its parent graph.
package command

import (
	"context"
	"math/rand/v2"

	"github.com/tailored-agentic-units/agentgraph/graph"
)

const KeyFoo = "foo"

// Node names.
const (
	NodeDispatch = "dispatch"
	NodeA        = "node_a"
	NodeB        = "node_b"
	NodeC        = "node_c"
)

// Chooser picks the branch node_a takes: "b" or "c".
type Chooser func() string

// Random picks either branch with equal probability.
func Random() string {
	if rand.IntN(2) == 0 {
		return "b"
	}
	return "c"
}

// New compiles the parent graph. A nil chooser picks at random.
func New(choose Chooser) (*graph.Graph, error) {
	if choose == nil {
		choose = Random
	}
	field := graph.Replace[string](KeyFoo)

	dispatch, err := graph.NewBuilder(NodeDispatch, field).
		AddNode(NodeA, graph.NewFunctionNode(func(context.Context, graph.State) (graph.Result, error) {
			v := choose()
			return graph.Command{
				Update: graph.Update{KeyFoo: v},
				Goto:   "node_" + v,
				Graph:  graph.ScopeParent,
			}, nil
		}), graph.ParentDestinations(NodeB, NodeC)).
		AddEdge(graph.Start, NodeA).
		Compile()
	if err != nil {
		return nil, err
	}

	branchB, err := graph.NewBuilder(NodeB, field).
		AddNode(NodeB, appendFoo("b")).
		AddEdge(graph.Start, NodeB).
		AddEdge(NodeB, graph.End).
		Compile()
	if err != nil {
		return nil, err
	}

	return graph.NewBuilder("command", field).
		AddSubgraph(NodeDispatch, dispatch).
		AddSubgraph(NodeB, branchB).
		AddNode(NodeC, appendFoo("c")).
		AddEdge(graph.Start, NodeDispatch).
		AddEdge(NodeB, graph.End).
		AddEdge(NodeC, graph.End).
		Compile()
}

func appendFoo(suffix string) graph.Node {
	return graph.UpdateNode(func(_ context.Context, s graph.State) (graph.Update, error) {
		return graph.Update{KeyFoo: graph.ValueOr(s, KeyFoo, "") + suffix}, nil
	})
}
