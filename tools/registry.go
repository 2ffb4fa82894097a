// Package tools holds tool definitions and the handlers that execute them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// Handler executes a tool. Handlers receive the request context and the
// JSON-encoded arguments produced by the model.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is the tool output fed back into the next model turn.
// IsError signals to the model that the invocation failed.
type Result struct {
	Content string
	IsError bool
}

// Errorf builds an error Result.
func Errorf(format string, args ...any) Result {
	return Result{Content: fmt.Sprintf(format, args...), IsError: true}
}

// JSON builds a Result from v encoded as JSON.
func JSON(v any) (Result, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return Result{}, err
	}
	return Result{Content: string(data)}, nil
}

// Decode unmarshals tool arguments into T. Empty arguments decode to the
// zero value.
func Decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(strings.TrimSpace(string(args))) == 0 {
		return v, nil
	}
	if err := sonic.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return v, nil
}

type entry struct {
	tool    protocol.Tool
	handler Handler
}

// Registry maps tool names to definitions and handlers. It is safe for
// concurrent use.
type Registry struct {
	entries map[string]entry
	mu      sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool. Returns ErrAlreadyExists if the name is taken; use
// Replace to update an existing tool.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Replace updates an existing tool's definition and handler.
func (r *Registry) Replace(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.handler, true
}

// List returns the registered tool definitions sorted by name.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]protocol.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, e.tool)
	}
	slices.SortFunc(tools, func(a, b protocol.Tool) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tools
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	return names
}

// Subset returns a new registry holding only the named tools.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub := NewRegistry()
	for _, name := range names {
		e, ok := r.entries[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		sub.entries[name] = e
	}
	return sub, nil
}

// Execute dispatches a call to the named tool. Handler errors are wrapped
// with the tool name.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s execution failed: %w", name, err)
	}

	return result, nil
}
