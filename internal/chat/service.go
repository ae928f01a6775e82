// Package chat answers student questions about the club directory. Each
// request makes one model call grounded in the compacted directory and, in
// parallel, ranks the directory against the question.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mission-control/internal/directory"
	"github.com/sells-group/mission-control/internal/model"
	"github.com/sells-group/mission-control/pkg/llm"
)

// SystemPrompt is the fixed instruction sent with every call.
const SystemPrompt = "You are Mission Control, a friendly assistant helping students find campus clubs. " +
	"Use ONLY the provided club directory for factual answers. " +
	"If you're unsure, say so. If the user shares interests, recommend up to 3 clubs."

// ContextHeader prefixes the compacted directory.
const ContextHeader = "CLUB DIRECTORY:\n"

// DefaultMaxOutputTokens caps the reply length.
const DefaultMaxOutputTokens = 1024

// MissingMessage is the validation error for an empty chat message.
const MissingMessage = "Missing 'message' in request."

// Ranker returns the recommended clubs for a query.
type Ranker interface {
	Rank(query string) []model.Club
}

// Config configures a Service.
type Config struct {
	Model           string
	MaxOutputTokens int
	Policy          SamplingPolicy
}

// Service is the chat orchestrator.
type Service struct {
	dir    *directory.Directory
	client llm.Client
	ranker Ranker
	cfg    Config
}

// NewService creates a Service. The directory must not change afterwards.
func NewService(dir *directory.Directory, client llm.Client, ranker Ranker, cfg Config) *Service {
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return &Service{dir: dir, client: client, ranker: ranker, cfg: cfg}
}

// Model returns the configured model identifier.
func (s *Service) Model() string { return s.cfg.Model }

// Params assembles the model call for a trimmed, non-empty message.
func (s *Service) Params(message string) llm.Request {
	return llm.Request{
		Model:           s.cfg.Model,
		System:          SystemPrompt,
		Context:         ContextHeader + s.dir.Context(),
		UserMessage:     message,
		MaxOutputTokens: s.cfg.MaxOutputTokens,
		Sampling:        s.cfg.Policy.Sampling(s.cfg.Model),
	}
}

// Handle answers one chat request. It returns either a full response or a
// *Error, never a partial response.
func (s *Service) Handle(ctx context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, &Error{Kind: KindValidation, Message: MissingMessage}
	}

	callID := uuid.NewString()
	params := s.Params(message)
	start := time.Now()

	var (
		completion *llm.Completion
		recs       []model.Club
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.client.Complete(gctx, params)
		if err != nil {
			return err
		}
		completion = c
		return nil
	})
	g.Go(func() error {
		recs = s.ranker.Rank(message)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.classify(callID, start, err)
	}
	if completion == nil {
		return nil, s.classify(callID, start, eris.New("chat: provider returned no completion"))
	}

	zap.L().Info("chat: call completed",
		zap.String("call_id", callID),
		zap.String("provider", s.client.Provider()),
		zap.String("model", s.cfg.Model),
		zap.Bool("sampling", params.Sampling != nil),
		zap.Duration("duration", time.Since(start)),
		zap.Int("recommendations", len(recs)),
	)
	completion.Usage.LogCost(s.cfg.Model, callID)

	if recs == nil {
		recs = []model.Club{}
	}
	return &model.ChatResponse{Reply: completion.Text, Recommendations: recs}, nil
}

func (s *Service) classify(callID string, start time.Time, err error) *Error {
	fields := []zap.Field{
		zap.String("call_id", callID),
		zap.String("provider", s.client.Provider()),
		zap.String("model", s.cfg.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	}

	var llmErr *llm.Error
	if !errors.As(err, &llmErr) {
		zap.L().Error("chat: call failed", fields...)
		return &Error{Kind: KindInternal, Model: s.cfg.Model, Message: "Server error", Err: err}
	}

	fields = append(fields, zap.Int("status", llmErr.StatusCode))
	if errors.Is(err, llm.ErrRejected) {
		zap.L().Warn("chat: provider rejected request", fields...)
		return &Error{
			Kind:    KindUpstreamRejected,
			Model:   s.cfg.Model,
			Status:  llmErr.StatusCode,
			Message: llmErr.Message,
			Err:     err,
		}
	}
	zap.L().Warn("chat: provider unavailable", fields...)
	return &Error{
		Kind:    KindUpstreamUnavailable,
		Model:   s.cfg.Model,
		Status:  llmErr.StatusCode,
		Message: "Upstream error: " + llmErr.Message,
		Err:     err,
	}
}
