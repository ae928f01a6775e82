package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mission-control/internal/directory"
	"github.com/sells-group/mission-control/internal/model"
	"github.com/sells-group/mission-control/internal/ranker"
	"github.com/sells-group/mission-control/pkg/llm"
	"github.com/sells-group/mission-control/pkg/llm/mocks"
)

func strPtr(s string) *string { return &s }

func testDirectory() *directory.Directory {
	return directory.New([]model.RawClub{
		{Name: strPtr("Chess Club"), Category: strPtr("Games"), Tags: []string{"strategy"}},
		{Name: strPtr("Film Society"), Category: strPtr("Arts"), Tags: []string{"movies"}},
		{Name: strPtr("Robotics Club"), Category: strPtr("STEM"), Tags: []string{"robots", "ai"}},
		{Name: strPtr("Jazz Band"), Category: strPtr("Music")},
	})
}

func newTestService(t *testing.T, dir *directory.Directory, modelName string) (*Service, *mocks.MockClient) {
	t.Helper()
	client := mocks.NewMockClient(t)
	client.On("Provider").Return("openai").Maybe()

	r, err := ranker.New(dir.Clubs(), 8)
	require.NoError(t, err)

	svc := NewService(dir, client, r, Config{
		Model:  modelName,
		Policy: SamplingPolicy{ReasoningPrefixes: DefaultReasoningPrefixes},
	})
	return svc, client
}

func TestHandle_Success(t *testing.T) {
	dir := testDirectory()
	svc, client := newTestService(t, dir, "gpt-5")

	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Model == "gpt-5" &&
			req.System == SystemPrompt &&
			req.Context == "CLUB DIRECTORY:\n"+dir.Context() &&
			req.UserMessage == "I love robots and AI" &&
			req.MaxOutputTokens == 1024 &&
			req.Sampling == nil
	})).Return(&llm.Completion{Text: "Check out Robotics Club!"}, nil).Once()

	resp, err := svc.Handle(context.Background(), model.ChatRequest{Message: "  I love robots and AI \n"})
	require.NoError(t, err)
	assert.Equal(t, "Check out Robotics Club!", resp.Reply)
	require.Len(t, resp.Recommendations, 3)
	assert.Equal(t, "Robotics Club", resp.Recommendations[0].Name)
}

func TestHandle_WhitespaceMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\t\n"} {
		svc, client := newTestService(t, testDirectory(), "gpt-5")

		resp, err := svc.Handle(context.Background(), model.ChatRequest{Message: msg})
		assert.Nil(t, resp)
		require.Error(t, err)

		var chatErr *Error
		require.ErrorAs(t, err, &chatErr)
		assert.Equal(t, KindValidation, chatErr.Kind)
		assert.Equal(t, MissingMessage, chatErr.Message)
		assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
		client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	}
}

func TestHandle_EmptyDirectory(t *testing.T) {
	svc, client := newTestService(t, directory.New(nil), "gpt-5")

	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Context == "CLUB DIRECTORY:\n"
	})).Return(&llm.Completion{Text: "I don't know of any clubs yet."}, nil).Once()

	resp, err := svc.Handle(context.Background(), model.ChatRequest{Message: "anything"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Recommendations)
}

func TestHandle_UpstreamRejected(t *testing.T) {
	svc, client := newTestService(t, testDirectory(), "gpt-5")
	upstream := llm.StatusError("openai", "gpt-5", 400, "Unsupported parameter: 'temperature'", nil)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, upstream).Once()

	resp, err := svc.Handle(context.Background(), model.ChatRequest{Message: "chess"})
	assert.Nil(t, resp)

	var chatErr *Error
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, KindUpstreamRejected, chatErr.Kind)
	assert.Equal(t, "gpt-5", chatErr.Model)
	assert.Equal(t, 400, chatErr.Status)
	assert.Equal(t, "Unsupported parameter: 'temperature'", chatErr.Message)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.ErrorIs(t, err, llm.ErrRejected)
}

func TestHandle_UpstreamUnavailable(t *testing.T) {
	svc, client := newTestService(t, testDirectory(), "gpt-5")
	upstream := llm.StatusError("openai", "gpt-5", 503, "overloaded", nil)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := svc.Handle(context.Background(), model.ChatRequest{Message: "chess"})

	var chatErr *Error
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, KindUpstreamUnavailable, chatErr.Kind)
	assert.Equal(t, "gpt-5", chatErr.Model)
	assert.Equal(t, 503, chatErr.Status)
	assert.Equal(t, "Upstream error: overloaded", chatErr.Message)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
}

func TestHandle_UpstreamUnreachable(t *testing.T) {
	svc, client := newTestService(t, testDirectory(), "gpt-5")
	upstream := llm.TransportError("openai", "gpt-5", syscall.ECONNREFUSED)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := svc.Handle(context.Background(), model.ChatRequest{Message: "chess"})

	var chatErr *Error
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, KindUpstreamUnavailable, chatErr.Kind)
	assert.Equal(t, 0, chatErr.Status)
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
}

func TestHandle_InternalError(t *testing.T) {
	svc, client := newTestService(t, testDirectory(), "gpt-5")
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("decode failure")).Once()

	resp, err := svc.Handle(context.Background(), model.ChatRequest{Message: "chess"})
	assert.Nil(t, resp)

	var chatErr *Error
	require.ErrorAs(t, err, &chatErr)
	assert.Equal(t, KindInternal, chatErr.Kind)
	assert.Equal(t, "Server error", chatErr.Message)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestHandle_NilCompletion(t *testing.T) {
	svc, client := newTestService(t, testDirectory(), "gpt-5")
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, nil).Once()

	_, err := svc.Handle(context.Background(), model.ChatRequest{Message: "chess"})
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestParams_SamplingByModel(t *testing.T) {
	tests := []struct {
		model    string
		sampling bool
	}{
		{"gpt-5", false},
		{"gpt-5-mini", false},
		{"o1-preview", false},
		{"o3-mini", false},
		{"o4-mini", false},
		{"gpt-4o-mini", true},
		{"claude-sonnet-4-5-20250929", true},
		{"gemini-2.5-flash", true},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			svc, _ := newTestService(t, testDirectory(), tt.model)
			req := svc.Params("hi")
			if !tt.sampling {
				assert.Nil(t, req.Sampling)
				return
			}
			require.NotNil(t, req.Sampling)
			require.NotNil(t, req.Sampling.TopP)
			assert.Equal(t, 1.0, *req.Sampling.TopP)
			assert.Nil(t, req.Sampling.Temperature)
		})
	}
}

func TestParams_UserTurn(t *testing.T) {
	svc, _ := newTestService(t, testDirectory(), "gpt-5")
	req := svc.Params("hello")
	turn := req.UserTurn()
	assert.True(t, strings.HasPrefix(turn, "CLUB DIRECTORY:\nName: Chess Club;"))
	assert.True(t, strings.HasSuffix(turn, "\n\nUser: hello"))
}

func TestSamplingPolicy_CustomPrefixes(t *testing.T) {
	p := SamplingPolicy{ReasoningPrefixes: []string{"deep-", ""}}
	assert.True(t, p.IsReasoning("deep-think"))
	assert.False(t, p.IsReasoning("gpt-5"))
	assert.NotNil(t, p.Sampling("gpt-5"))

	var empty SamplingPolicy
	assert.False(t, empty.IsReasoning("o1"))
}

func TestNewService_DefaultMaxTokens(t *testing.T) {
	r, err := ranker.New(nil, 0)
	require.NoError(t, err)
	svc := NewService(directory.New(nil), llm.Echo{}, r, Config{Model: "echo"})
	assert.Equal(t, DefaultMaxOutputTokens, svc.Params("x").MaxOutputTokens)
	assert.Equal(t, "echo", svc.Model())
}

func TestHTTPStatus_NonChatError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "upstream_rejected", KindUpstreamRejected.String())
	assert.Equal(t, "upstream_unavailable", KindUpstreamUnavailable.String())
	assert.Equal(t, "internal", KindInternal.String())
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: KindUpstreamRejected, Message: "bad", Err: errors.New("cause")}
	assert.Equal(t, "chat: upstream_rejected: bad: cause", err.Error())
	assert.Equal(t, "chat: validation: x", (&Error{Kind: KindValidation, Message: "x"}).Error())
}
