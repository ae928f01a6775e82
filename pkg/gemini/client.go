// Package gemini adapts the Gemini API (google.golang.org/genai) to llm.Client.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/mission-control/pkg/llm"
)

// Provider is the provider name used in configuration and errors.
const Provider = "gemini"

// Config configures the Gemini client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client using the genai SDK.
type Client struct {
	client *genai.Client
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &Client{client: client}, nil
}

// Provider returns "gemini".
func (c *Client) Provider() string { return Provider }

// Complete generates content for a single user turn.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.UserTurn()}},
	}}
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, toSDKConfig(req))
	if err != nil {
		return nil, classify(req.Model, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, eris.New("gemini: response contained no text")
	}
	out := &llm.Completion{Text: text, Model: resp.ModelVersion}
	if out.Model == "" {
		out.Model = req.Model
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
		}
	}
	return out, nil
}

func toSDKConfig(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxOutputTokens), //nolint:gosec
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if s := req.Sampling; s != nil {
		if s.TopP != nil {
			v := float32(*s.TopP)
			cfg.TopP = &v
		}
		if s.Temperature != nil {
			v := float32(*s.Temperature)
			cfg.Temperature = &v
		}
	}
	return cfg
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func classify(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.StatusError(Provider, model, apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return llm.StatusError(Provider, model, apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return llm.TransportError(Provider, model, err)
}
