// Package graph runs agents expressed as node-and-edge state machines.
//
// A graph is declared with a Builder: state fields with merge policies, nodes,
// static and conditional edges, nested sub-graphs and interrupt points.
// Compile validates the whole declaration and returns an immutable Graph.
//
//	b := graph.NewBuilder("review",
//	    graph.Replace[string]("draft"),
//	    graph.Append[string]("history"),
//	)
//	b.AddNode("write", writer)
//	b.AddNode("critic", critic)
//	b.AddEdge(graph.Start, "write")
//	b.AddEdge("write", "critic")
//	b.AddConditionalEdges("critic", approved, map[string]string{
//	    "yes": graph.End,
//	    "no":  "write",
//	})
//	g, err := b.Compile()
//
// A Runner executes a compiled Graph one node at a time. After every step the
// state and the pending position are written to a CheckpointStore, so a run
// paused at an interrupt, or one that failed, continues from where it stopped:
//
//	runner := graph.NewRunner(g, graph.WithStore(store))
//	run, err := runner.Start(ctx, sessionID, graph.Update{"topic": "Go"})
//	if run.Interrupted() {
//	    run, err = runner.Resume(ctx, sessionID, graph.Update{"feedback": "ok"})
//	}
//
// Nodes return either a plain Update, routed by the declared edges, or a
// Command that names the next node itself, optionally in the parent graph.
// Sub-graphs are tracked on an explicit frame stack, so nesting depth is not
// bounded by the Go call stack.
package graph
