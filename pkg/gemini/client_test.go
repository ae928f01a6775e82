package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mission-control/pkg/llm"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: baseURL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func testRequest(sampling *llm.Sampling) llm.Request {
	return llm.Request{
		Model:           "gemini-2.5-flash",
		System:          "You are a test assistant",
		Context:         "CLUB DIRECTORY:\nName: Chess",
		UserMessage:     "chess?",
		MaxOutputTokens: 1024,
		Sampling:        sampling,
	}
}

func writeResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Try the "}, {"text": "Chess Club"}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     20,
			"candidatesTokenCount": 4,
			"totalTokenCount":      24,
		},
		"modelVersion": "gemini-2.5-flash",
	})
}

func TestClient_Complete(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeResponse(w)
	}))
	defer ts.Close()

	resp, err := newTestClient(t, ts.URL).Complete(context.Background(), testRequest(&llm.Sampling{TopP: llm.Float(1.0)}))
	require.NoError(t, err)
	assert.Equal(t, "Try the Chess Club", resp.Text)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, int64(20), resp.Usage.InputTokens)
	assert.Equal(t, int64(4), resp.Usage.OutputTokens)

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, gen["topP"])
	assert.NotContains(t, gen, "temperature")
	assert.Equal(t, 1024.0, gen["maxOutputTokens"])

	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "CLUB DIRECTORY:\nName: Chess\n\nUser: chess?", parts[0].(map[string]any)["text"])
	assert.Contains(t, body, "systemInstruction")
}

func TestClient_Complete_NoSampling(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeResponse(w)
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Complete(context.Background(), testRequest(nil))
	require.NoError(t, err)
	gen, _ := body["generationConfig"].(map[string]any)
	assert.NotContains(t, gen, "topP")
	assert.NotContains(t, gen, "temperature")
}

func TestClient_Complete_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{"bad request", http.StatusBadRequest, llm.ErrRejected},
		{"not found", http.StatusNotFound, llm.ErrRejected},
		{"unavailable", http.StatusServiceUnavailable, llm.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
					"error": map[string]any{
						"code":    tt.status,
						"message": "model does not support topP",
						"status":  "INVALID_ARGUMENT",
					},
				})
			}))
			defer ts.Close()

			_, err := newTestClient(t, ts.URL).Complete(context.Background(), testRequest(nil))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var llmErr *llm.Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.status, llmErr.StatusCode)
			assert.Equal(t, "gemini-2.5-flash", llmErr.Model)
			assert.Equal(t, "model does not support topP", llmErr.Message)
		})
	}
}

func TestClient_Complete_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url).Complete(context.Background(), testRequest(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestClient_Complete_EmptyCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}}) //nolint:errcheck
	}))
	defer ts.Close()

	_, err := newTestClient(t, ts.URL).Complete(context.Background(), testRequest(nil))
	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrRejected)
	assert.NotErrorIs(t, err, llm.ErrUnavailable)
}
