//go:build !integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mission-control/internal/config"
	"github.com/sells-group/mission-control/internal/directory"
	"github.com/sells-group/mission-control/pkg/anthropic"
	"github.com/sells-group/mission-control/pkg/gemini"
	"github.com/sells-group/mission-control/pkg/llm"
	"github.com/sells-group/mission-control/pkg/openai"
)

// withConfig swaps the package config for the duration of a test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

// testConfig returns a valid echo configuration reading clubs from path.
func testConfig(path string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 5001, ChatBurst: 5},
		LLM:    config.LLMConfig{Provider: config.ProviderEcho, Model: "echo", TimeoutSecs: 5},
		Chat: config.ChatConfig{
			ReasoningPrefixes: []string{"gpt-5"},
			MaxOutputTokens:   128,
			RankCacheSize:     8,
		},
		Directory: config.DirectoryConfig{Driver: config.DriverJSON, Path: path},
		Log:       config.LogConfig{Level: "info", Format: "json"},
	}
}

func writeClubsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clubs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Robotics Club", "category": "STEM", "tags": ["robots"]},
		{"name": "Chess Club", "category": "Games", "members": "30"}
	]`), 0o644))
	return path
}

func TestNewClient_Providers(t *testing.T) {
	ctx := context.Background()

	c, err := newClient(ctx, config.LLMConfig{Provider: config.ProviderOpenAI, Key: "sk-test", TimeoutSecs: 5})
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, c)
	assert.Equal(t, "openai", c.Provider())

	c, err = newClient(ctx, config.LLMConfig{Provider: config.ProviderAnthropic, Key: "sk-ant", CacheContext: true})
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Client{}, c)
	assert.Equal(t, "anthropic", c.Provider())

	c, err = newClient(ctx, config.LLMConfig{Provider: config.ProviderGemini, Key: "g-key"})
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, c)
	assert.Equal(t, "gemini", c.Provider())

	c, err = newClient(ctx, config.LLMConfig{Provider: config.ProviderEcho})
	require.NoError(t, err)
	assert.Equal(t, llm.Echo{}, c)
}

func TestNewClient_Unsupported(t *testing.T) {
	_, err := newClient(context.Background(), config.LLMConfig{Provider: "cohere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider: cohere")
}

func TestInitApp_Echo(t *testing.T) {
	withConfig(t, testConfig(writeClubsFile(t)))

	env, err := initApp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, env.Directory.Len())
	assert.Equal(t, "echo", env.Chat.Model())
	require.NotNil(t, env.Ranker)
}

func TestInitApp_MissingDirectoryFile(t *testing.T) {
	withConfig(t, testConfig(filepath.Join(t.TempDir(), "absent.json")))

	env, err := initApp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, env.Directory.Len())
}

func TestInitApp_InvalidConfig(t *testing.T) {
	c := testConfig(writeClubsFile(t))
	c.LLM.Provider = "bogus"
	withConfig(t, c)

	_, err := initApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestInitApp_BadDirectoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clubs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	withConfig(t, testConfig(path))

	_, err := initApp(context.Background())
	require.Error(t, err)
}

func TestNewAppEnv_ZeroCacheSizeDisablesCaching(t *testing.T) {
	env, err := newAppEnv(directory.New(testClubs()), llm.Echo{}, config.ChatConfig{MaxOutputTokens: 32}, "echo")
	require.NoError(t, err)
	env.Ranker.Rank("robots")
	assert.Equal(t, 0, env.Ranker.CacheLen())
}
