// Package anthropic adapts the Anthropic Messages API to llm.Client.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mission-control/pkg/llm"
)

// Provider is the provider name used in configuration and errors.
const Provider = "anthropic"

// Config configures the Anthropic client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// CacheContext marks the directory context block with an ephemeral
	// cache breakpoint. The context is identical across chat calls.
	CacheContext bool
}

// Client implements llm.Client using the official anthropic-sdk-go.
type Client struct {
	client       sdk.Client
	cacheContext bool
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a new Anthropic client backed by the SDK. SDK retries
// are disabled.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client:       sdk.NewClient(opts...),
		cacheContext: cfg.CacheContext,
	}
}

// Provider returns "anthropic".
func (c *Client) Provider() string { return Provider }

// Complete sends a single user turn with the system prompt.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	msg, err := c.client.Messages.New(ctx, c.toSDKParams(req))
	if err != nil {
		return nil, classify(req.Model, err)
	}
	if len(msg.Content) == 0 {
		return nil, eris.New("anthropic: message returned no content")
	}
	return fromSDKMessage(msg), nil
}

func (c *Client) toSDKParams(req llm.Request) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(req.MaxOutputTokens),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(c.userBlocks(req)...)},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if s := req.Sampling; s != nil {
		if s.TopP != nil {
			params.TopP = sdk.Float(*s.TopP)
		}
		if s.Temperature != nil {
			params.Temperature = sdk.Float(*s.Temperature)
		}
	}
	return params
}

// userBlocks splits the user turn so the context can carry a cache
// breakpoint. The concatenated text always equals req.UserTurn().
func (c *Client) userBlocks(req llm.Request) []sdk.ContentBlockParamUnion {
	if !c.cacheContext || req.Context == "" {
		return []sdk.ContentBlockParamUnion{sdk.NewTextBlock(req.UserTurn())}
	}
	return []sdk.ContentBlockParamUnion{
		{OfText: &sdk.TextBlockParam{
			Text:         req.Context,
			CacheControl: sdk.NewCacheControlEphemeralParam(),
		}},
		sdk.NewTextBlock(strings.TrimPrefix(req.UserTurn(), req.Context)),
	}
}

func fromSDKMessage(msg *sdk.Message) *llm.Completion {
	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	return &llm.Completion{
		Text:  text.String(),
		Model: string(msg.Model),
		Usage: llm.Usage{
			InputTokens:  msg.Usage.InputTokens + msg.Usage.CacheCreationInputTokens + msg.Usage.CacheReadInputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
}

func classify(model string, err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return llm.StatusError(Provider, model, apiErr.StatusCode, errorMessage(apiErr), err)
	}
	return llm.TransportError(Provider, model, err)
}

// errorMessage extracts error.message from the raw error body.
func errorMessage(apiErr *sdk.Error) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(apiErr.RawJSON()), &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return ""
}
