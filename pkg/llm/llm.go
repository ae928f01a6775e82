// Package llm defines the provider-neutral completion contract used by the
// chat service. Provider adapters live in sibling packages and translate
// their SDK's requests, responses and failures into these types.
package llm

import (
	"context"

	"go.uber.org/zap"
)

// Client sends one completion request to a model provider.
type Client interface {
	Provider() string
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Sampling holds optional sampling controls. A nil *Sampling on a Request
// means no sampling field is sent at all.
type Sampling struct {
	TopP        *float64 `json:"topP,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Request is a single-turn completion request.
type Request struct {
	Model           string
	System          string
	Context         string
	UserMessage     string
	MaxOutputTokens int
	Sampling        *Sampling
}

// UserTurn returns the text sent as the user message: the context block
// followed by the user's words.
func (r Request) UserTurn() string {
	return r.Context + "\n\nUser: " + r.UserMessage
}

// Completion is the provider's answer.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Usage tracks token consumption for a call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"gpt-5":                      {1.25, 10.00},
	"gpt-5-mini":                 {0.25, 2.00},
	"gpt-4o-mini":                {0.15, 0.60},
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"gemini-2.5-flash":           {0.30, 2.50},
}

// EstimateCost computes an estimated cost in USD. Returns 0 for unknown models.
func (u Usage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	return (float64(u.InputTokens)/1e6)*pricing[0] + (float64(u.OutputTokens)/1e6)*pricing[1]
}

// LogCost logs token usage and estimated cost with structured zap fields.
func (u Usage) LogCost(model, callID string) {
	zap.L().Info("llm: usage",
		zap.String("model", model),
		zap.String("call_id", callID),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
