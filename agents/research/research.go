// Package research drafts a team of research analysts for a topic and lets a
// human revise the team before the run finishes.
//
// The run pauses before the human_feedback node. Resuming with a
// human_feedback value sends the team back to the analyst node, which
// regenerates it with the feedback and clears it; resuming without one ends
// the run.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// State keys.
const (
	KeyTopic         = "topic"
	KeyMaxAnalysts   = "max_analysts"
	KeyTeam          = "research_team"
	KeyHumanFeedback = "human_feedback"
)

// Node names and routing labels.
const (
	NodeAnalyst       = "create_research_analyst"
	NodeHumanFeedback = "human_feedback"

	LabelFeedback   = "feedback_provided"
	LabelNoFeedback = "no_feedback"
)

// Analyst is one member of a research team.
type Analyst struct {
	Name              string   `json:"name"`
	Role              string   `json:"role"`
	Designation       string   `json:"designation"`
	Skillset          []string `json:"skillset"`
	ContributionFocus string   `json:"contribution_focus"`
	BriefBio          string   `json:"brief_bio,omitempty"`
}

// Persona renders the analyst as a prompt block.
func (a Analyst) Persona() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", a.Name)
	fmt.Fprintf(&b, "Role: %s\n", a.Role)
	fmt.Fprintf(&b, "Designation: %s\n", a.Designation)
	fmt.Fprintf(&b, "Skillset: %s\n", strings.Join(a.Skillset, ", "))
	fmt.Fprintf(&b, "Contribution_Focus: %s\n", a.ContributionFocus)
	if a.BriefBio != "" {
		fmt.Fprintf(&b, "Brief_Bio: %s\n", a.BriefBio)
	}
	return b.String()
}

// Team is the structured output of the analyst node.
type Team struct {
	Analysts []Analyst `json:"analysts"`
}

// Validate requires at least one analyst, each with a name and a role.
func (t Team) Validate() error {
	if len(t.Analysts) == 0 {
		return errors.New("team has no analysts")
	}
	for i, a := range t.Analysts {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("analyst %d has no name", i)
		}
		if strings.TrimSpace(a.Role) == "" {
			return fmt.Errorf("analyst %q has no role", a.Name)
		}
	}
	return nil
}

const teamFormat = `{"analysts": [{"name": "...", "role": "...", "designation": "...", "skillset": ["..."], "contribution_focus": "...", "brief_bio": "..."}]}`

// Fields declares the research state.
func Fields() []graph.Field {
	return []graph.Field{
		graph.Replace[string](KeyTopic),
		graph.Replace[int](KeyMaxAnalysts),
		graph.Replace[Team](KeyTeam),
		graph.Replace[string](KeyHumanFeedback),
	}
}

// Input starts a run on topic with at most maxAnalysts analysts.
func Input(topic string, maxAnalysts int) graph.Update {
	return graph.Update{KeyTopic: topic, KeyMaxAnalysts: maxAnalysts}
}

// Feedback is the resume patch carrying a reviewer's request. An empty
// feedback resumes without one, which ends the run.
func Feedback(feedback string) graph.Update {
	if strings.TrimSpace(feedback) == "" {
		return nil
	}
	return graph.Update{KeyHumanFeedback: feedback}
}

// New compiles the analyst workflow around model.
func New(model llm.ChatModel) (*graph.Graph, error) {
	return graph.NewBuilder("research", Fields()...).
		AddNode(NodeAnalyst, graph.UpdateNode(createTeam(model))).
		AddNode(NodeHumanFeedback, graph.UpdateNode(func(context.Context, graph.State) (graph.Update, error) {
			return nil, nil
		})).
		AddEdge(graph.Start, NodeAnalyst).
		AddEdge(NodeAnalyst, NodeHumanFeedback).
		AddConditionalEdges(NodeHumanFeedback,
			graph.When("should_continue", graph.KeyTruthy(KeyHumanFeedback), LabelFeedback, LabelNoFeedback),
			map[string]string{
				LabelFeedback:   NodeAnalyst,
				LabelNoFeedback: graph.End,
			}).
		InterruptBefore(NodeHumanFeedback).
		Compile()
}

func createTeam(model llm.ChatModel) func(context.Context, graph.State) (graph.Update, error) {
	return func(ctx context.Context, s graph.State) (graph.Update, error) {
		maxAnalysts, _ := graph.Int(s, KeyMaxAnalysts)
		if maxAnalysts <= 0 {
			maxAnalysts = DefaultMaxAnalysts
		}
		feedback := graph.ValueOr(s, KeyHumanFeedback, "")

		team, err := llm.Structured[Team](ctx, model, []protocol.Message{
			protocol.SystemMessage(fmt.Sprintf(analystPrompt, graph.ValueOr(s, KeyTopic, ""), maxAnalysts, feedback)),
			protocol.UserMessage("Generate the set of analysts."),
		}, teamFormat)
		if err != nil {
			return nil, err
		}
		if len(team.Analysts) > maxAnalysts {
			team.Analysts = team.Analysts[:maxAnalysts]
		}

		u := graph.Update{KeyTeam: team}
		if _, ok := s.Get(KeyHumanFeedback); ok {
			u[KeyHumanFeedback] = nil
		}
		return u, nil
	}
}

// DefaultMaxAnalysts is used when the input sets no bound.
const DefaultMaxAnalysts = 3

// TeamOf returns the current team of s.
func TeamOf(s graph.State) Team {
	return graph.ValueOr(s, KeyTeam, Team{})
}

const analystPrompt = `You are tasked with creating a set of AI analyst personas. Follow these instructions carefully:

1. First, review the research topic: %s
2. Create exactly %d analysts, no more and no fewer.
3. Examine any editorial feedback that has been optionally provided to guide the creation of the analysts: %s
4. Determine the most interesting themes based on the topic and the feedback above.
5. Pick the top themes and assign one analyst to each theme.
6. Give every analyst a name, a role, a designation, a skillset, a contribution focus and a brief bio.`
