package graph

import (
	"maps"
	"slices"
	"time"
)

// State is an immutable snapshot of the values flowing through a run.
//
// Set and Clone return new States; the receiver is never modified. Nodes read
// from State and describe their changes as an Update, which the Runner merges
// according to the graph's field policies.
type State struct {
	Data      map[string]any `json:"data"`
	SessionID string         `json:"session_id,omitempty"`
	Node      string         `json:"node,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewState returns an empty State.
func NewState() State {
	return State{
		Data:      make(map[string]any),
		Timestamp: time.Now(),
	}
}

// Clone returns a State with its own (shallow) copy of Data.
func (s State) Clone() State {
	data := maps.Clone(s.Data)
	if data == nil {
		data = make(map[string]any)
	}
	return State{
		Data:      data,
		SessionID: s.SessionID,
		Node:      s.Node,
		Timestamp: s.Timestamp,
	}
}

// Get returns the value stored under key.
func (s State) Get(key string) (any, bool) {
	val, exists := s.Data[key]
	return val, exists
}

// Set returns a copy of the State with key set to value. Set bypasses merge
// policies and is meant for building inputs and test fixtures.
func (s State) Set(key string, value any) State {
	next := s.Clone()
	next.Data[key] = value
	return next
}

// Keys returns the keys present in the State in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s.Data))
}

// Value returns the value under key when it holds a T.
func Value[T any](s State, key string) (T, bool) {
	var zero T
	raw, ok := s.Data[key]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// ValueOr returns the value under key, or def when it is missing or not a T.
func ValueOr[T any](s State, key string, def T) T {
	if v, ok := Value[T](s, key); ok {
		return v
	}
	return def
}

// Int reads a numeric value as an int. Numbers restored from an undeclared
// field come back as float64, so all numeric kinds are accepted.
func Int(s State, key string) (int, bool) {
	raw, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	return toInt(raw)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
