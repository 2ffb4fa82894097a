package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrInvalidArguments marks arguments that do not match a tool's schema.
var ErrInvalidArguments = errors.New("invalid arguments")

// AddTypedTool registers fn as a tool whose arguments decode into In, a
// struct. The input schema is derived from In: the json tag names each
// property, a desc tag describes it, and fields without omitempty are
// required. Optional fields take their value from defaults when the caller
// leaves them out.
//
//	type rollArgs struct {
//	    NDice int `json:"n_dice,omitempty" desc:"How many dice to roll"`
//	}
//	mcp.AddTypedTool(s, "roll_dice", "Roll dice", rollArgs{NDice: 1}, roll)
func AddTypedTool[In, Out any](s *Server, name, description string, defaults In, fn func(context.Context, In) (Out, error)) error {
	schema, required, err := schemaOf(reflect.TypeFor[In](), reflect.ValueOf(defaults))
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	return s.AddTool(Tool{Name: name, Description: description, InputSchema: schema},
		func(ctx context.Context, raw json.RawMessage) (any, error) {
			var present map[string]any
			if err := sonic.Unmarshal(raw, &present); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
			for _, key := range required {
				if _, ok := present[key]; !ok {
					return nil, fmt.Errorf("%w: missing required argument %q", ErrInvalidArguments, key)
				}
			}

			in := defaults
			if err := sonic.Unmarshal(raw, &in); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
			return fn(ctx, in)
		})
}

func schemaOf(t reflect.Type, defaults reflect.Value) (map[string]any, []string, error) {
	if t.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("arguments must be a struct, got %s", t)
	}

	props := make(map[string]any)
	required := []string{}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if f.Type.Kind() == reflect.Slice {
			prop["items"] = map[string]any{"type": jsonType(f.Type.Elem())}
		}
		if desc := f.Tag.Get("desc"); desc != "" {
			prop["description"] = desc
		}

		if strings.Contains(opts, "omitempty") {
			if dv := defaults.Field(i); !dv.IsZero() {
				prop["default"] = dv.Interface()
			}
		} else {
			required = append(required, name)
		}
		props[name] = prop
	}

	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, required, nil
}

func jsonType(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}
