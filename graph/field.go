package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/bytedance/sonic"
)

// Policy says how a field combines an update with its current value.
type Policy int

const (
	// PolicyReplace keeps the last value written.
	PolicyReplace Policy = iota
	// PolicyAppend concatenates the written sequence to the current one.
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyReplace:
		return "replace"
	case PolicyAppend:
		return "append"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Field declares a state key, its merge policy and its value type.
// Fields are created with Replace or Append.
type Field struct {
	Name   string
	Policy Policy

	typ    reflect.Type
	merge  func(current any, exists bool, update any) (any, error)
	decode func(raw []byte) (any, error)
}

// Type reports the Go type the field holds.
func (f Field) Type() reflect.Type {
	return f.typ
}

// Replace declares a last-write-wins field holding a T. Writing nil removes
// the field from the state.
func Replace[T any](name string) Field {
	f := Field{
		Name:   name,
		Policy: PolicyReplace,
		typ:    reflect.TypeFor[T](),
	}
	f.merge = func(_ any, _ bool, update any) (any, error) {
		v, ok := update.(T)
		if !ok {
			return nil, &MergeError{Field: name, Policy: PolicyReplace, Value: update}
		}
		return v, nil
	}
	f.decode = func(raw []byte) (any, error) {
		var v T
		if err := sonic.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return f
}

// Append declares an accumulating field holding a []T. Updates must be []T;
// they are concatenated to the current sequence in order.
func Append[T any](name string) Field {
	f := Field{
		Name:   name,
		Policy: PolicyAppend,
		typ:    reflect.TypeFor[[]T](),
	}
	f.merge = func(current any, exists bool, update any) (any, error) {
		add, ok := update.([]T)
		if !ok {
			return nil, &MergeError{Field: name, Policy: PolicyAppend, Value: update}
		}
		var cur []T
		if exists && current != nil {
			cur, ok = current.([]T)
			if !ok {
				return nil, &MergeError{Field: name, Policy: PolicyAppend, Value: current}
			}
		}
		merged := make([]T, 0, len(cur)+len(add))
		merged = append(merged, cur...)
		return append(merged, add...), nil
	}
	f.decode = func(raw []byte) (any, error) {
		var v []T
		if err := sonic.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return f
}

// fieldSet holds the merged field declarations of a graph and its sub-graphs.
type fieldSet map[string]Field

// apply merges an update into s. Any violation rejects the whole update and
// s is returned unchanged along with the error.
func (fs fieldSet) apply(s State, u Update) (State, error) {
	if len(u) == 0 {
		return s, nil
	}

	next := s.Clone()
	for _, key := range slices.Sorted(maps.Keys(u)) {
		val := u[key]
		field, declared := fs[key]

		if !declared {
			if val == nil {
				delete(next.Data, key)
			} else {
				next.Data[key] = val
			}
			continue
		}

		if val == nil {
			if field.Policy != PolicyReplace {
				return s, &MergeError{Field: key, Policy: field.Policy, Value: nil}
			}
			delete(next.Data, key)
			continue
		}

		current, exists := next.Data[key]
		merged, err := field.merge(current, exists, val)
		if err != nil {
			return s, err
		}
		next.Data[key] = merged
	}

	return next, nil
}

// encode serializes the state data for a checkpoint.
func (fs fieldSet) encode(s State) ([]byte, error) {
	data := s.Data
	if data == nil {
		data = map[string]any{}
	}
	return sonic.Marshal(data)
}

// decode restores state data, giving declared fields their declared types.
func (fs fieldSet) decode(b []byte) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := sonic.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	data := make(map[string]any, len(raw))
	for key, msg := range raw {
		if field, ok := fs[key]; ok {
			v, err := field.decode(msg)
			if err != nil {
				return nil, fmt.Errorf("failed to decode field %s: %w", key, err)
			}
			data[key] = v
			continue
		}

		var v any
		if err := sonic.Unmarshal(msg, &v); err != nil {
			return nil, fmt.Errorf("failed to decode field %s: %w", key, err)
		}
		data[key] = v
	}
	return data, nil
}
