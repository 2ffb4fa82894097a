package main

import (
	"bufio"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"

	"github.com/tailored-agentic-units/agentgraph/agents/command"
	"github.com/tailored-agentic-units/agentgraph/agents/linkedin"
	"github.com/tailored-agentic-units/agentgraph/agents/research"
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/prebuilt"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

const maxValueWidth = 200

type app struct {
	name string
	in   *bufio.Reader
}

// answer asks the user for the resume patch of an interrupted run.
func (a *app) answer(run *graph.Run) (graph.Update, error) {
	pending := run.Pending[len(run.Pending)-1]

	switch pending {
	case research.NodeHumanFeedback:
		printTeam(research.TeamOf(run.State))
		line, err := a.prompt("Feedback for the team (empty to accept): ")
		if err != nil {
			return nil, err
		}
		return research.Feedback(line), nil
	case prebuilt.NodeApproval:
		ancli.PrintWarn("the agent wants to run:\n")
		for _, call := range prebuilt.PendingCalls(prebuilt.Messages(run.State)) {
			fmt.Printf("  %s(%s)\n", call.Name, call.Arguments)
		}
		line, err := a.prompt("Approve? [y/N]: ")
		if err != nil {
			return nil, err
		}
		approved := strings.EqualFold(line, "y") || strings.EqualFold(line, "yes")
		return graph.Update{prebuilt.ApprovedKey: approved}, nil
	default:
		return nil, fmt.Errorf("no prompt for interrupt at %s", strings.Join(run.Pending, "/"))
	}
}

func (a *app) prompt(label string) (string, error) {
	fmt.Print(ancli.ColoredMessage(ancli.CYAN, label))
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// report prints the final state of a finished run.
func (a *app) report(run *graph.Run) {
	ancli.PrintOK(fmt.Sprintf("%s finished in %d steps\n", a.name, run.Steps))

	switch a.name {
	case "linkedin":
		res := linkedin.ResultOf(run.State)
		fmt.Printf("\nStatus: %s after %d revision(s)\n\n%s\n", res.Status, res.Iteration, res.Post)
		if res.Status != linkedin.StatusApproved && res.Feedback != "" {
			fmt.Printf("\nLast feedback: %s\n", res.Feedback)
		}
	case "research":
		printTeam(research.TeamOf(run.State))
	case "command":
		fmt.Printf("%s = %v\n", command.KeyFoo, graph.ValueOr(run.State, command.KeyFoo, ""))
	default:
		if msg, ok := prebuilt.LastAssistant(prebuilt.Messages(run.State)); ok {
			fmt.Printf("\n%s\n", msg.Content)
		}
	}
}

func printTeam(team research.Team) {
	for i, analyst := range team.Analysts {
		fmt.Printf("\n[%d]\n%s", i+1, analyst.Persona())
	}
	fmt.Println()
}

// printUpdate renders one committed step.
func printUpdate(_ context.Context, u graph.NodeUpdate) {
	header := fmt.Sprintf("--- update from %s ---", strings.Join(u.Path, "/"))
	if u.Goto != "" {
		header += " -> " + u.Goto
	}
	fmt.Println(ancli.ColoredMessage(ancli.BLUE, header))

	keys := make([]string, 0, len(u.Update))
	for k := range u.Update {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, summarize(u.Update[k]))
	}
}

func summarize(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		s = "<cleared>"
	case []protocol.Message:
		if len(v) == 0 {
			return "[]"
		}
		last := v[len(v)-1]
		s = fmt.Sprintf("%s: %s", last.Role, last.Content)
		for _, call := range last.ToolCalls {
			s += fmt.Sprintf(" [%s(%s)]", call.Name, call.Arguments)
		}
	default:
		s = fmt.Sprintf("%v", v)
	}

	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxValueWidth {
		s = s[:maxValueWidth] + "..."
	}
	return s
}
