package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DatabaseDSN string `mapstructure:"database_dsn"`

	AIProvider    string `mapstructure:"ai_provider"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	OpenAIModel   string `mapstructure:"openai_model"`

	GitHubToken string `mapstructure:"github_token"`

	AnalyzerConcurrency int           `mapstructure:"analyzer_concurrency"`
	AnalyzerTimeout     time.Duration `mapstructure:"analyzer_timeout"`

	CORSOrigins      []string `mapstructure:"cors_origins"`
	RequireClientID  bool     `mapstructure:"require_client_id"`
	SessionSweepSpec string   `mapstructure:"session_sweep_spec"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads .env (if present), an optional YAML file and the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	if cfg.AnalyzerConcurrency < 1 {
		cfg.AnalyzerConcurrency = 1
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3001)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_dsn", "")

	v.SetDefault("ai_provider", ProviderGemini)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_model", "")

	v.SetDefault("github_token", "")

	v.SetDefault("analyzer_concurrency", 3)
	v.SetDefault("analyzer_timeout", 60*time.Second)

	v.SetDefault("cors_origins", "")
	v.SetDefault("require_client_id", false)
	v.SetDefault("session_sweep_spec", "@every 10m")

	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Validate checks what the HTTP server needs to start.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}
	switch c.AIProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown AI_PROVIDER %q", c.AIProvider))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	return errors.Join(errs...)
}

// AIKey returns the credential of the selected provider.
func (c *Config) AIKey() string {
	if c.AIProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
