//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "ask", "rank", "directory"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "mission-control", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestDirectoryCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range directoryCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "context", "export", "import"} {
		assert.True(t, names[name], "directory should have subcommand %q", name)
	}

	flag := directoryExportCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "json", flag.DefValue)
}

func TestRankAndAskCommand_Flags(t *testing.T) {
	for _, name := range []string{"all", "json"} {
		assert.NotNil(t, rankCmd.Flags().Lookup(name), "rank should have --%s flag", name)
	}
	assert.NotNil(t, askCmd.Flags().Lookup("dry-run"))
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return tmpDir
}

func TestRootCmd_PersistentPreRunE_WithValidConfig(t *testing.T) {
	tmpDir := chdirTemp(t)
	configContent := `
llm:
  provider: echo
directory:
  driver: yaml
  path: clubs.yaml
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(configContent), 0o644))
	withConfig(t, nil)

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, "echo", cfg.LLM.Provider)
	assert.Equal(t, "echo", cfg.LLM.Model)
	assert.Equal(t, "yaml", cfg.Directory.Driver)
	assert.Equal(t, "clubs.yaml", cfg.Directory.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestRootCmd_PersistentPreRunE_NoConfigFile(t *testing.T) {
	chdirTemp(t)
	withConfig(t, nil)

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, cfg)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Directory.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestRootCmd_PersistentPreRunE_BadLogLevel(t *testing.T) {
	tmpDir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("log:\n  level: loud\n"), 0o644))
	withConfig(t, nil)

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init logger")
}

func TestDirectoryCmd_PersistentPreRunE_Validates(t *testing.T) {
	tmpDir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("directory:\n  driver: postgres\n"), 0o644))
	withConfig(t, nil)

	err := directoryCmd.PersistentPreRunE(directoryListCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory.dsn")
}
