package graph

import "context"

// Result is what a node returns: an Update or a Command.
type Result interface {
	isResult()
}

// Update is a partial state change. Keys are merged one by one according to
// the declared field policies; routing follows the node's outgoing edge.
type Update map[string]any

func (Update) isResult() {}

// Scope selects the graph in which a Command's Goto is resolved.
type Scope int

const (
	// ScopeCurrent resolves Goto in the graph that ran the node.
	ScopeCurrent Scope = iota
	// ScopeParent leaves the current sub-graph and resolves Goto in its parent.
	ScopeParent
)

func (s Scope) String() string {
	if s == ScopeParent {
		return "parent"
	}
	return "current"
}

// Command combines an Update with an explicit routing decision. An empty Goto
// falls back to the declared edges of the graph selected by Graph.
type Command struct {
	Update Update
	Goto   string
	Graph  Scope
}

func (Command) isResult() {}

// Node is a unit of work in a graph.
type Node interface {
	Execute(ctx context.Context, s State) (Result, error)
}

// FunctionNode adapts a function to the Node interface.
type FunctionNode struct {
	fn func(ctx context.Context, s State) (Result, error)
}

// NewFunctionNode wraps fn as a Node.
//
//	node := graph.NewFunctionNode(func(ctx context.Context, s graph.State) (graph.Result, error) {
//	    return graph.Update{"done": true}, nil
//	})
func NewFunctionNode(fn func(context.Context, State) (Result, error)) Node {
	return &FunctionNode{fn: fn}
}

func (n *FunctionNode) Execute(ctx context.Context, s State) (Result, error) {
	return n.fn(ctx, s)
}

// UpdateNode wraps a function that only ever returns an Update.
func UpdateNode(fn func(context.Context, State) (Update, error)) Node {
	return &FunctionNode{fn: func(ctx context.Context, s State) (Result, error) {
		u, err := fn(ctx, s)
		if err != nil {
			return nil, err
		}
		return u, nil
	}}
}

// split normalizes a node result into its update and optional command.
func split(r Result) (Update, *Command) {
	switch v := r.(type) {
	case nil:
		return nil, nil
	case Update:
		return v, nil
	case Command:
		return v.Update, &v
	case *Command:
		if v == nil {
			return nil, nil
		}
		return v.Update, v
	default:
		return nil, nil
	}
}
