package graph

import "github.com/tailored-agentic-units/agentgraph/observability"

const (
	EventGraphStart     observability.EventType = "graph.start"
	EventGraphComplete  observability.EventType = "graph.complete"
	EventGraphInterrupt observability.EventType = "graph.interrupt"
	EventGraphResume    observability.EventType = "graph.resume"
	EventGraphError     observability.EventType = "graph.error"

	EventNodeStart    observability.EventType = "node.start"
	EventNodeComplete observability.EventType = "node.complete"
	EventNodeUpdate   observability.EventType = "node.update"
	EventEdgeRoute    observability.EventType = "edge.route"
	EventCycleDetect  observability.EventType = "cycle.detected"

	EventSubgraphEnter observability.EventType = "subgraph.enter"
	EventSubgraphExit  observability.EventType = "subgraph.exit"

	EventCheckpointSave observability.EventType = "checkpoint.save"
	EventCheckpointLoad observability.EventType = "checkpoint.load"
)
