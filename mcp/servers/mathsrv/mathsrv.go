// Package mathsrv is an MCP server for basic arithmetic and random numbers.
package mathsrv

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/bytedance/sonic"
	"github.com/tailored-agentic-units/agentgraph/mcp"
	"github.com/tailored-agentic-units/agentgraph/mcp/servers/demo"
)

const (
	Name    = "Math Server"
	Version = "1.0.0"

	InfoURI = "math://server-info"
)

type randomArgs struct {
	MinValue int `json:"min_value,omitempty" desc:"Lower bound (inclusive)"`
	MaxValue int `json:"max_value,omitempty" desc:"Upper bound (inclusive)"`
}

type toolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
	Returns     string   `json:"returns"`
}

type resourceInfo struct {
	URI         string `json:"uri"`
	Description string `json:"description"`
}

// Info is the document served at InfoURI.
type Info struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Tools       []toolInfo     `json:"tools"`
	Resources   []resourceInfo `json:"resources"`
}

var info = Info{
	Name:        Name,
	Version:     Version,
	Description: "A simple MCP server for basic math operations and random number generation",
	Tools: []toolInfo{
		{
			Name:        "add_numbers",
			Description: "Adds two numbers together",
			Parameters:  []string{"a: float", "b: float"},
			Returns:     "float",
		},
		{
			Name:        "generate_random_number",
			Description: "Generates a random integer within a specified range",
			Parameters:  []string{"min_value: int (default: 0)", "max_value: int (default: 100)"},
			Returns:     "int",
		},
	},
	Resources: []resourceInfo{
		{URI: InfoURI, Description: "Server information and capabilities"},
	},
}

// New returns the math server. intn returns a value in [0, n); nil uses
// math/rand/v2.
func New(intn func(n int) int) (*mcp.Server, error) {
	if intn == nil {
		intn = rand.IntN
	}
	s := mcp.NewServer(Name, Version)

	if err := demo.AddNumbers(s); err != nil {
		return nil, err
	}

	err := mcp.AddTypedTool(s, "generate_random_number",
		"Generate a random integer between min_value and max_value (inclusive)",
		randomArgs{MinValue: 0, MaxValue: 100},
		func(_ context.Context, in randomArgs) (int, error) {
			if in.MinValue > in.MaxValue {
				return 0, fmt.Errorf("min_value %d is greater than max_value %d", in.MinValue, in.MaxValue)
			}
			return in.MinValue + intn(in.MaxValue-in.MinValue+1), nil
		})
	if err != nil {
		return nil, err
	}

	err = s.AddResource(mcp.Resource{
		URI:         InfoURI,
		Name:        "server-info",
		Description: "Returns information about the Math Server and its capabilities",
		MimeType:    "application/json",
	}, func(context.Context) (string, error) {
		out, err := sonic.ConfigStd.MarshalIndent(info, "", "  ")
		return string(out), err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
