package chat

import (
	"strings"

	"github.com/sells-group/mission-control/pkg/llm"
)

// DefaultReasoningPrefixes name the model families that reject sampling
// controls.
var DefaultReasoningPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// SamplingPolicy decides which sampling controls a model accepts.
type SamplingPolicy struct {
	ReasoningPrefixes []string
}

// IsReasoning reports whether model starts with a registered reasoning prefix.
func (p SamplingPolicy) IsReasoning(model string) bool {
	for _, prefix := range p.ReasoningPrefixes {
		if prefix != "" && strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Sampling returns nil for reasoning models and top_p = 1.0 otherwise.
func (p SamplingPolicy) Sampling(model string) *llm.Sampling {
	if p.IsReasoning(model) {
		return nil
	}
	return &llm.Sampling{TopP: llm.Float(1.0)}
}
