// Package demo is a small MCP server with a dice roller and an adder.
package demo

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/tailored-agentic-units/agentgraph/mcp"
)

type rollArgs struct {
	NDice int `json:"n_dice,omitempty" desc:"Number of six-sided dice to roll"`
}

// AddArgs are the operands of add_numbers.
type AddArgs struct {
	A float64 `json:"a" desc:"First number"`
	B float64 `json:"b" desc:"Second number"`
}

// AddNumbers registers add_numbers on s.
func AddNumbers(s *mcp.Server) error {
	return mcp.AddTypedTool(s, "add_numbers", "Add two numbers and return the result", AddArgs{},
		func(_ context.Context, in AddArgs) (float64, error) {
			return in.A + in.B, nil
		})
}

// New returns the demo server. intn returns a value in [0, n); nil uses
// math/rand/v2.
func New(intn func(n int) int) (*mcp.Server, error) {
	if intn == nil {
		intn = rand.IntN
	}
	s := mcp.NewServer("Demo Server", "1.0.0")

	err := mcp.AddTypedTool(s, "roll_dice", "Roll n_dice 6-sided dice and return the results", rollArgs{NDice: 1},
		func(_ context.Context, in rollArgs) ([]int, error) {
			if in.NDice < 0 {
				return nil, errors.New("n_dice cannot be negative")
			}
			rolls := make([]int, in.NDice)
			for i := range rolls {
				rolls[i] = intn(6) + 1
			}
			return rolls, nil
		})
	if err != nil {
		return nil, err
	}
	if err := AddNumbers(s); err != nil {
		return nil, err
	}
	return s, nil
}
