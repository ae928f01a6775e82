// Package openai adapts the OpenAI chat completions API to llm.Client.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"

	"github.com/sells-group/mission-control/pkg/llm"
)

// Provider is the provider name used in configuration and errors.
const Provider = "openai"

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string // optional; defaults to the public API
	Timeout time.Duration
}

// Client implements llm.Client using go-openai.
type Client struct {
	client *sdk.Client
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a new OpenAI client.
func NewClient(cfg Config) *Client {
	sc := sdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sc.BaseURL = cfg.BaseURL
	}
	sc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{client: sdk.NewClientWithConfig(sc)}
}

// Provider returns "openai".
func (c *Client) Provider() string { return Provider }

// Complete sends a chat completion with a system and a user message.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, toSDKRequest(req))
	if err != nil {
		return nil, classify(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: completion returned no choices")
	}

	return &llm.Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: llm.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}, nil
}

func toSDKRequest(req llm.Request) sdk.ChatCompletionRequest {
	out := sdk.ChatCompletionRequest{
		Model: req.Model,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleSystem, Content: req.System},
			{Role: sdk.ChatMessageRoleUser, Content: req.UserTurn()},
		},
		MaxCompletionTokens: req.MaxOutputTokens,
	}
	// Zero values are omitted from the wire request.
	if s := req.Sampling; s != nil {
		if s.TopP != nil {
			out.TopP = float32(*s.TopP)
		}
		if s.Temperature != nil {
			out.Temperature = float32(*s.Temperature)
		}
	}
	return out
}

func classify(model string, err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return llm.StatusError(Provider, model, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		var msg string
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return llm.StatusError(Provider, model, reqErr.HTTPStatusCode, msg, err)
	}
	return llm.TransportError(Provider, model, err)
}
