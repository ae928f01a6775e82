package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderEcho      = "echo"
)

// Supported directory drivers.
const (
	DriverJSON     = "json"
	DriverYAML     = "yaml"
	DriverXLSX     = "xlsx"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Chat      ChatConfig      `yaml:"chat" mapstructure:"chat"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ChatRateLimit  float64  `yaml:"chat_rate_limit" mapstructure:"chat_rate_limit"` // requests/sec, 0 = unlimited
	ChatBurst      int      `yaml:"chat_burst" mapstructure:"chat_burst"`
}

// LLMConfig selects and authenticates the completion provider.
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Model       string `yaml:"model" mapstructure:"model"`
	Key         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`

	// CacheContext enables prompt caching of the directory context where
	// the provider supports it (anthropic).
	CacheContext bool `yaml:"cache_context" mapstructure:"cache_context"`
}

// ChatConfig configures the chat orchestrator.
type ChatConfig struct {
	ReasoningPrefixes []string `yaml:"reasoning_prefixes" mapstructure:"reasoning_prefixes"`
	MaxOutputTokens   int64    `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	RankCacheSize     int      `yaml:"rank_cache_size" mapstructure:"rank_cache_size"`
}

// DirectoryConfig locates the club directory source.
type DirectoryConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
	Sheet  string `yaml:"sheet" mapstructure:"sheet"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MISSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"llm.model", "llm.api_key", "llm.base_url", "directory.dsn", "directory.sheet"} {
		_ = v.BindEnv(key)
	}

	// Defaults
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.chat_rate_limit", 0)
	v.SetDefault("server.chat_burst", 5)
	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("llm.cache_context", true)
	v.SetDefault("chat.reasoning_prefixes", []string{"gpt-5", "o1", "o3", "o4"})
	v.SetDefault("chat.max_output_tokens", 1024)
	v.SetDefault("chat.rank_cache_size", 256)
	v.SetDefault("directory.driver", DriverJSON)
	v.SetDefault("directory.path", "data/clubs.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	applyProviderEnv(&cfg)

	return &cfg, nil
}

// DefaultModels is the model used per provider when none is configured.
var DefaultModels = map[string]string{
	ProviderOpenAI:    "gpt-5",
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderGemini:    "gemini-2.5-flash",
	ProviderEcho:      "echo",
}

// providerEnv names each provider's conventional credential and model variables.
var providerEnv = map[string][2]string{
	ProviderOpenAI:    {"OPENAI_API_KEY", "OPENAI_MODEL"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL"},
	ProviderGemini:    {"GEMINI_API_KEY", "GEMINI_MODEL"},
}

// applyProviderEnv fills the credential and model from the provider's
// conventional environment variables when MISSION_* and the config file left
// them empty, then falls back to the provider's default model.
func applyProviderEnv(cfg *Config) {
	if names, ok := providerEnv[cfg.LLM.Provider]; ok {
		if cfg.LLM.Key == "" {
			cfg.LLM.Key = os.Getenv(names[0])
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = os.Getenv(names[1])
		}
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultModels[cfg.LLM.Provider]
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.ChatRateLimit < 0 {
		errs = append(errs, "server.chat_rate_limit must be >= 0")
	}
	if c.Server.ChatRateLimit > 0 && c.Server.ChatBurst < 1 {
		errs = append(errs, "server.chat_burst must be >= 1 when rate limiting")
	}
	if !slices.Contains([]string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderEcho}, c.LLM.Provider) {
		errs = append(errs, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		errs = append(errs, "llm.model is required")
	}
	if c.LLM.TimeoutSecs < 0 {
		errs = append(errs, "llm.timeout_secs must be >= 0")
	}
	if c.Chat.MaxOutputTokens <= 0 {
		errs = append(errs, "chat.max_output_tokens must be > 0")
	}
	if c.Chat.RankCacheSize < 0 {
		errs = append(errs, "chat.rank_cache_size must be >= 0")
	}
	switch c.Directory.Driver {
	case DriverJSON, DriverYAML, DriverXLSX, DriverSQLite:
		if c.Directory.Path == "" {
			errs = append(errs, fmt.Sprintf("directory.path is required for driver %q", c.Directory.Driver))
		}
	case DriverPostgres:
		if c.Directory.DSN == "" {
			errs = append(errs, "directory.dsn is required for driver \"postgres\"")
		}
	default:
		errs = append(errs, fmt.Sprintf("directory.driver %q is not supported", c.Directory.Driver))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
