// Package prebuilt provides reusable agent building blocks on top of the
// graph package: a message-history state field, model and tool nodes, a
// tool-use router, a ReAct agent with human approval of risky tools, and a
// supervisor that hands work to agent sub-graphs.
//
// All building blocks share the "messages" field, an append-only history of
// protocol messages.
package prebuilt
