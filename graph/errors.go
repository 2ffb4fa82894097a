package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGraph is wrapped by every Compile failure.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrMergePolicy marks an update that violates a field's merge policy.
	ErrMergePolicy = errors.New("merge policy violation")

	// ErrUnmappedRoute marks a router label with no target.
	ErrUnmappedRoute = errors.New("route label has no target")

	// ErrUnknownNode marks a Command goto naming a node the graph does not have.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNoParentGraph marks a parent-scoped Command issued at the top level.
	ErrNoParentGraph = errors.New("no parent graph")

	// ErrNoTransition marks a node that returned no goto and has no outgoing edge.
	ErrNoTransition = errors.New("no transition from node")

	// ErrNoPendingRun is returned by Resume when the session's run has finished.
	ErrNoPendingRun = errors.New("no pending run")

	// ErrRunPending is returned by Start when the session still has a paused or
	// failed run that must be resumed first.
	ErrRunPending = errors.New("session has a pending run")

	// ErrSessionNotFound is returned when a session has no checkpoints.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMaxSteps marks a run that exceeded its step budget.
	ErrMaxSteps = errors.New("max steps exceeded")

	// ErrCheckpointNotFound is returned by stores when a session has no checkpoint.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

// ConfigError lists every problem found while compiling a graph.
type ConfigError struct {
	Graph    string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid graph %s: %s", e.Graph, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidGraph
}

// MergeError describes a rejected update.
type MergeError struct {
	Field  string
	Policy Policy
	Value  any
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge policy violation: field %s (%s) cannot take %T", e.Field, e.Policy, e.Value)
}

func (e *MergeError) Unwrap() error {
	return ErrMergePolicy
}

// ExecutionError carries the context of a failed step: the node that failed,
// the frame path leading to it and the state it was given.
type ExecutionError struct {
	Node  string
	Path  []string
	State State
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %s: %v", e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
