package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// Validator is implemented by structured outputs that check their own
// fields after decoding.
type Validator interface {
	Validate() error
}

// Structured asks m for a JSON reply shaped as described by format and
// decodes it into T. Code fences and text around the outermost JSON object
// are ignored. When T implements Validator the decoded value is validated.
func Structured[T any](ctx context.Context, m ChatModel, msgs []protocol.Message, format string) (T, error) {
	var zero T

	prompt := append([]protocol.Message{}, msgs...)
	prompt = append(prompt, protocol.SystemMessage(
		"Respond with a single JSON object and nothing else. The object must have this shape:\n"+format))

	reply, err := m.Generate(ctx, prompt)
	if err != nil {
		return zero, err
	}
	return DecodeStructured[T](reply.Content)
}

// DecodeStructured extracts and decodes the JSON object in content.
func DecodeStructured[T any](content string) (T, error) {
	var v T

	raw := ExtractJSON(content)
	if raw == "" {
		return v, fmt.Errorf("%w: no JSON object in reply %q", ErrStructured, truncate(content, 120))
	}
	if err := sonic.UnmarshalString(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrStructured, err)
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, fmt.Errorf("%w: %v", ErrStructured, err)
		}
	} else if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, fmt.Errorf("%w: %v", ErrStructured, err)
		}
	}
	return v, nil
}

// ExtractJSON returns the outermost {...} span of s after removing Markdown
// code fences, or "" when there is none.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
