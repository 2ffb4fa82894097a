// Package linkedin implements a generate-critique-optimize loop that drafts
// a LinkedIn post on a topic and revises it until a critic approves it or
// the iteration budget runs out.
package linkedin

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/agentgraph/config"
	"github.com/tailored-agentic-units/agentgraph/graph"
	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// State keys.
const (
	KeyTopic           = "topic"
	KeyPost            = "linkedin_post"
	KeyFeedback        = "critic_feedback"
	KeyStatus          = "critic_status"
	KeyIteration       = "iteration"
	KeyMaxIteration    = "max_iteration"
	KeyPostHistory     = "post_history"
	KeyFeedbackHistory = "feedback_history"
)

// Node names.
const (
	NodeGenerator = "generator"
	NodeCritic    = "critic"
	NodeOptimizer = "optimizer"
)

// Critic verdicts.
const (
	StatusApproved         = "Approved"
	StatusNeedsImprovement = "Needs_Improvement"
)

// Verdict is the critic's structured output.
type Verdict struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// Validate rejects statuses other than Approved and Needs_Improvement.
func (v Verdict) Validate() error {
	if v.Status != StatusApproved && v.Status != StatusNeedsImprovement {
		return fmt.Errorf("status must be %q or %q, got %q", StatusApproved, StatusNeedsImprovement, v.Status)
	}
	return nil
}

const verdictFormat = `{"status": "Approved" | "Needs_Improvement", "feedback": "<constructive critique under 100 words>"}`

// Models are the three roles of the loop.
type Models struct {
	Generator llm.ChatModel
	Critic    llm.ChatModel
	Optimizer llm.ChatModel
}

// Fields declares the post state.
func Fields() []graph.Field {
	return []graph.Field{
		graph.Replace[string](KeyTopic),
		graph.Replace[string](KeyPost),
		graph.Replace[string](KeyFeedback),
		graph.Replace[string](KeyStatus),
		graph.Replace[int](KeyIteration),
		graph.Replace[int](KeyMaxIteration),
		graph.Append[string](KeyPostHistory),
		graph.Append[string](KeyFeedbackHistory),
	}
}

// Input starts a run on topic with at most maxIteration optimizer passes.
func Input(topic string, maxIteration int) graph.Update {
	return graph.Update{
		KeyTopic:        topic,
		KeyMaxIteration: maxIteration,
		KeyIteration:    0,
	}
}

// New compiles generator -> critic -> (Approved -> end | Needs_Improvement ->
// optimizer -> critic).
func New(models Models) (*graph.Graph, error) {
	shouldContinue := graph.IterationBudget("should_continue", KeyIteration, KeyMaxIteration,
		graph.KeyEquals(KeyStatus, StatusApproved), StatusNeedsImprovement, StatusApproved)

	return graph.NewBuilder("linkedin", Fields()...).
		AddNode(NodeGenerator, graph.UpdateNode(generate(models.Generator))).
		AddNode(NodeCritic, graph.UpdateNode(critique(models.Critic))).
		AddNode(NodeOptimizer, graph.UpdateNode(optimize(models.Optimizer))).
		AddEdge(graph.Start, NodeGenerator).
		AddEdge(NodeGenerator, NodeCritic).
		AddConditionalEdges(NodeCritic, shouldContinue, map[string]string{
			StatusApproved:         graph.End,
			StatusNeedsImprovement: NodeOptimizer,
		}).
		AddEdge(NodeOptimizer, NodeCritic).
		Compile()
}

func generate(model llm.ChatModel) func(context.Context, graph.State) (graph.Update, error) {
	return func(ctx context.Context, s graph.State) (graph.Update, error) {
		reply, err := model.Generate(ctx, []protocol.Message{
			protocol.SystemMessage(generatorSystem),
			protocol.UserMessage(fmt.Sprintf(generatorPrompt, graph.ValueOr(s, KeyTopic, ""))),
		})
		if err != nil {
			return nil, err
		}
		return graph.Update{
			KeyPost:        reply.Content,
			KeyPostHistory: []string{reply.Content},
		}, nil
	}
}

func critique(model llm.ChatModel) func(context.Context, graph.State) (graph.Update, error) {
	return func(ctx context.Context, s graph.State) (graph.Update, error) {
		v, err := llm.Structured[Verdict](ctx, model, []protocol.Message{
			protocol.SystemMessage(criticSystem),
			protocol.UserMessage(fmt.Sprintf(criticPrompt,
				graph.ValueOr(s, KeyTopic, ""), graph.ValueOr(s, KeyPost, ""))),
		}, verdictFormat)
		if err != nil {
			return nil, err
		}
		return graph.Update{
			KeyFeedback:        v.Feedback,
			KeyStatus:          v.Status,
			KeyFeedbackHistory: []string{v.Feedback},
		}, nil
	}
}

func optimize(model llm.ChatModel) func(context.Context, graph.State) (graph.Update, error) {
	return func(ctx context.Context, s graph.State) (graph.Update, error) {
		reply, err := model.Generate(ctx, []protocol.Message{
			protocol.SystemMessage(optimizerSystem),
			protocol.UserMessage(fmt.Sprintf(optimizerPrompt,
				graph.ValueOr(s, KeyTopic, ""), graph.ValueOr(s, KeyPost, ""), graph.ValueOr(s, KeyFeedback, ""))),
		})
		if err != nil {
			return nil, err
		}
		iteration, _ := graph.Int(s, KeyIteration)
		return graph.Update{
			KeyPost:        reply.Content,
			KeyIteration:   iteration + 1,
			KeyPostHistory: []string{reply.Content},
		}, nil
	}
}

// Result is the outcome of a finished run.
type Result struct {
	Topic           string
	Post            string
	Status          string
	Feedback        string
	Iteration       int
	PostHistory     []string
	FeedbackHistory []string
}

// ResultOf reads the post state from s.
func ResultOf(s graph.State) Result {
	iteration, _ := graph.Int(s, KeyIteration)
	return Result{
		Topic:           graph.ValueOr(s, KeyTopic, ""),
		Post:            graph.ValueOr(s, KeyPost, ""),
		Status:          graph.ValueOr(s, KeyStatus, ""),
		Feedback:        graph.ValueOr(s, KeyFeedback, ""),
		Iteration:       iteration,
		PostHistory:     graph.ValueOr(s, KeyPostHistory, []string(nil)),
		FeedbackHistory: graph.ValueOr(s, KeyFeedbackHistory, []string(nil)),
	}
}

// ModelsFrom resolves the generator, critic and optimizer roles from r. Roles
// without an entry use the default model.
func ModelsFrom(ctx context.Context, r *llm.Registry) (Models, error) {
	var m Models
	for _, role := range []struct {
		name string
		dst  *llm.ChatModel
	}{
		{NodeGenerator, &m.Generator},
		{NodeCritic, &m.Critic},
		{NodeOptimizer, &m.Optimizer},
	} {
		model, err := r.GetOr(ctx, role.name, config.DefaultModelRole)
		if err != nil {
			return Models{}, err
		}
		*role.dst = model
	}
	return m, nil
}
