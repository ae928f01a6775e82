package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mission-control/internal/chat"
	"github.com/sells-group/mission-control/internal/config"
	"github.com/sells-group/mission-control/internal/directory"
	"github.com/sells-group/mission-control/internal/ranker"
	"github.com/sells-group/mission-control/pkg/anthropic"
	"github.com/sells-group/mission-control/pkg/gemini"
	"github.com/sells-group/mission-control/pkg/llm"
	"github.com/sells-group/mission-control/pkg/openai"
)

// appEnv holds the loaded directory and the services built on it.
type appEnv struct {
	Directory *directory.Directory
	Ranker    *ranker.Ranker
	Chat      *chat.Service
}

// initApp validates the configuration, loads the directory once, and wires
// the completion client, ranker and chat service.
func initApp(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := loadDirectory(ctx, cfg.Directory)
	if err != nil {
		return nil, err
	}

	client, err := newClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	return newAppEnv(dir, client, cfg.Chat, cfg.LLM.Model)
}

// newAppEnv assembles the services around an already loaded directory.
func newAppEnv(dir *directory.Directory, client llm.Client, cc config.ChatConfig, model string) (*appEnv, error) {
	r, err := ranker.New(dir.Clubs(), cc.RankCacheSize)
	if err != nil {
		return nil, err
	}

	svc := chat.NewService(dir, client, r, chat.Config{
		Model:           model,
		MaxOutputTokens: int(cc.MaxOutputTokens),
		Policy:          chat.SamplingPolicy{ReasoningPrefixes: cc.ReasoningPrefixes},
	})

	return &appEnv{Directory: dir, Ranker: r, Chat: svc}, nil
}

func loadDirectory(ctx context.Context, dc config.DirectoryConfig) (*directory.Directory, error) {
	src, err := directory.Open(dc)
	if err != nil {
		return nil, err
	}
	return directory.Load(ctx, src)
}

// newClient creates the completion client for the configured provider.
func newClient(ctx context.Context, lc config.LLMConfig) (llm.Client, error) {
	if lc.Key == "" && lc.Provider != config.ProviderEcho {
		zap.L().Warn("no api key configured; provider calls will be rejected",
			zap.String("provider", lc.Provider),
		)
	}

	timeout := time.Duration(lc.TimeoutSecs) * time.Second

	switch lc.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:  lc.Key,
			BaseURL: lc.BaseURL,
			Timeout: timeout,
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(anthropic.Config{
			APIKey:       lc.Key,
			BaseURL:      lc.BaseURL,
			Timeout:      timeout,
			CacheContext: lc.CacheContext,
		}), nil
	case config.ProviderGemini:
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:  lc.Key,
			BaseURL: lc.BaseURL,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderEcho:
		return llm.Echo{}, nil
	default:
		return nil, eris.Errorf("unsupported llm provider: %s", lc.Provider)
	}
}
