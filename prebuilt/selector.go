package prebuilt

import (
	"strings"

	"github.com/tailored-agentic-units/agentgraph/llm"
	"github.com/tailored-agentic-units/agentgraph/protocol"
)

// Model tiers chosen by ModelSelector.
const (
	TierDefault   = "default"
	TierReasoning = "reasoning"
	TierSummary   = "summary"
)

var reasoningWords = []string{"analyze", "invest", "risks"}

// Tier classifies a request by keyword: analysis and investment questions
// need the reasoning model, summaries the summary model.
func Tier(text string) string {
	text = strings.ToLower(text)
	for _, w := range reasoningWords {
		if strings.Contains(text, w) {
			return TierReasoning
		}
	}
	if strings.Contains(text, "summarize") {
		return TierSummary
	}
	return TierDefault
}

// ModelSelector picks a model from the intent of the latest user message.
// Missing tiers fall back to Default.
type ModelSelector struct {
	Default   llm.ChatModel
	Reasoning llm.ChatModel
	Summary   llm.ChatModel
	// OnSelect, when set, is told which tier was picked.
	OnSelect func(tier string)
}

// Select returns the model for the next turn of msgs.
func (s ModelSelector) Select(msgs []protocol.Message) llm.ChatModel {
	var text string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == protocol.RoleUser {
			text = msgs[i].Content
			break
		}
	}

	tier := Tier(text)
	if s.OnSelect != nil {
		s.OnSelect(tier)
	}

	switch {
	case tier == TierReasoning && s.Reasoning != nil:
		return s.Reasoning
	case tier == TierSummary && s.Summary != nil:
		return s.Summary
	default:
		return s.Default
	}
}
