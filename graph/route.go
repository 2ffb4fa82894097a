package graph

import (
	"fmt"
	"reflect"
	"slices"
)

// TransitionPredicate reports whether a condition holds for a state.
type TransitionPredicate func(s State) bool

// AlwaysTransition returns a predicate that always holds.
func AlwaysTransition() TransitionPredicate {
	return func(State) bool { return true }
}

// KeyExists holds when key is present.
func KeyExists(key string) TransitionPredicate {
	return func(s State) bool {
		_, exists := s.Get(key)
		return exists
	}
}

// KeyEquals holds when key is present and equal to value.
//
//	approved := graph.KeyEquals("critic_status", "Approved")
func KeyEquals(key string, value any) TransitionPredicate {
	return func(s State) bool {
		val, exists := s.Get(key)
		return exists && val == value
	}
}

// KeyTruthy holds when key is present and not a zero value: non-empty
// strings and collections, non-zero numbers, true.
func KeyTruthy(key string) TransitionPredicate {
	return func(s State) bool {
		val, exists := s.Get(key)
		if !exists || val == nil {
			return false
		}
		switch v := val.(type) {
		case bool:
			return v
		case float32:
			return v != 0
		case float64:
			return v != 0
		}
		if n, ok := toInt(val); ok {
			return n != 0
		}
		switch v := reflect.ValueOf(val); v.Kind() {
		case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
			return v.Len() > 0
		case reflect.Pointer, reflect.Interface:
			return !v.IsNil()
		}
		return true
	}
}

// Not inverts a predicate.
func Not(predicate TransitionPredicate) TransitionPredicate {
	return func(s State) bool {
		return !predicate(s)
	}
}

// And holds when every predicate holds.
func And(predicates ...TransitionPredicate) TransitionPredicate {
	return func(s State) bool {
		for _, p := range predicates {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Or holds when at least one predicate holds.
func Or(predicates ...TransitionPredicate) TransitionPredicate {
	return func(s State) bool {
		for _, p := range predicates {
			if p(s) {
				return true
			}
		}
		return false
	}
}

// Router picks a label from a closed set after a node has run. The label is
// mapped to a target node by AddConditionalEdges.
type Router struct {
	Name   string
	Labels []string
	Route  func(s State) (string, error)
}

// NewRouter builds a Router from a function that cannot fail.
func NewRouter(name string, labels []string, fn func(State) string) Router {
	return Router{
		Name:   name,
		Labels: labels,
		Route: func(s State) (string, error) {
			return fn(s), nil
		},
	}
}

// When routes to then if predicate holds and to otherwise when it does not.
//
//	graph.When("should_continue", graph.KeyTruthy("human_feedback"), "feedback_provided", "no_feedback")
func When(name string, predicate TransitionPredicate, then, otherwise string) Router {
	return NewRouter(name, []string{then, otherwise}, func(s State) string {
		if predicate(s) {
			return then
		}
		return otherwise
	})
}

// IterationBudget routes critique loops. It picks exit once the counter in
// counterKey reaches the bound in maxKey, otherwise exit when done holds and
// loop when it does not. The bound is checked first, so an exhausted budget
// ends the loop even when done would also hold. Only a missing bound
// disables the cap; a bound of zero or less exits on the first pass.
func IterationBudget(name, counterKey, maxKey string, done TransitionPredicate, loop, exit string) Router {
	return Router{
		Name:   name,
		Labels: []string{loop, exit},
		Route: func(s State) (string, error) {
			if limit, ok := Int(s, maxKey); ok {
				count, _ := Int(s, counterKey)
				if count >= limit {
					return exit, nil
				}
			}
			if done(s) {
				return exit, nil
			}
			return loop, nil
		},
	}
}

func (r Router) validate() error {
	if r.Route == nil {
		return fmt.Errorf("router %q has no route function", r.Name)
	}
	if len(r.Labels) == 0 {
		return fmt.Errorf("router %q declares no labels", r.Name)
	}
	seen := make(map[string]bool, len(r.Labels))
	for _, l := range r.Labels {
		if l == "" {
			return fmt.Errorf("router %q declares an empty label", r.Name)
		}
		if seen[l] {
			return fmt.Errorf("router %q declares label %q twice", r.Name, l)
		}
		seen[l] = true
	}
	return nil
}

func (r Router) hasLabel(label string) bool {
	return slices.Contains(r.Labels, label)
}
