// Package config defines the run configuration and loads it from defaults,
// a YAML file, environment variables and flags.
package config

import (
	"time"

	"github.com/ppiankov/vignette/internal/generate"
	"github.com/ppiankov/vignette/internal/llm"
)

// Classification failure policies
const (
	OnFailureSkip     = "skip"
	OnFailureDefaults = "defaults"
)

// Config is the complete configuration for one process
type Config struct {
	LLM            LLMConfig            `mapstructure:"llm" yaml:"llm"`
	Paths          PathsConfig          `mapstructure:"paths" yaml:"paths"`
	Generation     GenerationConfig     `mapstructure:"generation" yaml:"generation"`
	Classification ClassificationConfig `mapstructure:"classification" yaml:"classification"`
	Cache          CacheConfig          `mapstructure:"cache" yaml:"cache"`
	Notify         NotifyConfig         `mapstructure:"notify" yaml:"notify"`
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
}

// LLMConfig selects and tunes the generation provider
type LLMConfig struct {
	Provider          string  `mapstructure:"provider" yaml:"provider" validate:"required,oneof=openai anthropic claude ollama"`
	Model             string  `mapstructure:"model" yaml:"model"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key,omitempty" validate:"required_unless=Provider ollama"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Timeout           int     `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"` // seconds per call
	MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"` // 0 = unlimited
	Burst             int     `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
	HTTPProxy         string  `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy        string  `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
}

// PathsConfig locates the corpus and the persisted state
type PathsConfig struct {
	Source string `mapstructure:"source" yaml:"source" validate:"required"`
	Store  string `mapstructure:"store" yaml:"store" validate:"required"`
	Ledger string `mapstructure:"ledger" yaml:"ledger" validate:"required"`
}

// GenerationConfig bounds the work of one run
type GenerationConfig struct {
	BatchSize           int                    `mapstructure:"batch_size" yaml:"batch_size" validate:"gt=0"`
	MaxRetries          int                    `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=1"` // total attempts per row
	Backoff             time.Duration          `mapstructure:"backoff" yaml:"backoff" validate:"gte=0"`
	MinExplanationChars int                    `mapstructure:"min_explanation_chars" yaml:"min_explanation_chars" validate:"gte=0"`
	TypeCode            int                    `mapstructure:"type_code" yaml:"type_code" validate:"gte=0"`
	AnswerStyles        []generate.AnswerStyle `mapstructure:"answer_styles" yaml:"answer_styles,omitempty" validate:"dive"`
}

// ClassificationConfig decides what happens when classification fails
type ClassificationConfig struct {
	OnFailure string `mapstructure:"on_failure" yaml:"on_failure" validate:"oneof=skip defaults"`
}

// CacheConfig controls the classification memo
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir" validate:"required_if=Enabled true"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl" validate:"gte=0"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl" validate:"gte=0"`
}

// NotifyConfig configures the summary email
type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port" validate:"gte=0,lte=65535"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	From     string `mapstructure:"from" yaml:"from,omitempty" validate:"required_if=Enabled true"`
	To       string `mapstructure:"to" yaml:"to,omitempty" validate:"required_if=Enabled true"`
}

// LogConfig configures zap
type LogConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode" validate:"oneof=development production"`
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60,
			MaxTokens:   1500,
			Temperature: 0.7,
			Burst:       1,
		},
		Paths: PathsConfig{
			Source: "questions/source.csv",
			Store:  "questions/generated.csv",
			Ledger: "questions/ledger.csv",
		},
		Generation: GenerationConfig{
			BatchSize:           5,
			MaxRetries:          3,
			Backoff:             5 * time.Second,
			MinExplanationChars: 200,
			TypeCode:            2,
		},
		Classification: ClassificationConfig{
			OnFailure: OnFailureSkip,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".vignette/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Notify: NotifyConfig{
			Enabled:  false,
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 465,
		},
		Log: LogConfig{
			Mode:  "development",
			Level: "info",
		},
	}
}

// Styles returns the configured answer-style palette or the built-in one
func (g GenerationConfig) Styles() []generate.AnswerStyle {
	if len(g.AnswerStyles) > 0 {
		return g.AnswerStyles
	}
	return generate.DefaultAnswerStyles
}

// ClientConfig maps the LLM section onto a provider configuration
func (c LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   c.HTTPProxy,
		HTTPSProxy:  c.HTTPSProxy,
	}
}

// RetryPolicy returns the per-row generation retry policy
func (g GenerationConfig) RetryPolicy() generate.RetryPolicy {
	return generate.RetryPolicy{MaxAttempts: g.MaxRetries, Backoff: g.Backoff}
}
