package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for VIGNETTE_* environment variables
const EnvPrefix = "VIGNETTE"

// conventional environment names accepted alongside VIGNETTE_*
var aliases = map[string][]string{
	"notify.username": {"EMAIL_ADDRESS"},
	"notify.from":     {"EMAIL_ADDRESS"},
	"notify.password": {"EMAIL_PASSWORD"},
	"notify.to":       {"EMAIL_RECIPIENT"},
}

// providerKeyEnv names the conventional API key variable per provider
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
}

// Prepare registers defaults and environment bindings on v. Call it before
// binding flags and reading a config file.
func Prepare(v *viper.Viper) error {
	d := Default()

	defaults := map[string]any{
		"llm.provider":                     d.LLM.Provider,
		"llm.model":                        d.LLM.Model,
		"llm.api_key":                      d.LLM.APIKey,
		"llm.base_url":                     d.LLM.BaseURL,
		"llm.timeout":                      d.LLM.Timeout,
		"llm.max_tokens":                   d.LLM.MaxTokens,
		"llm.temperature":                  d.LLM.Temperature,
		"llm.requests_per_second":          d.LLM.RequestsPerSecond,
		"llm.burst":                        d.LLM.Burst,
		"llm.http_proxy":                   d.LLM.HTTPProxy,
		"llm.https_proxy":                  d.LLM.HTTPSProxy,
		"paths.source":                     d.Paths.Source,
		"paths.store":                      d.Paths.Store,
		"paths.ledger":                     d.Paths.Ledger,
		"generation.batch_size":            d.Generation.BatchSize,
		"generation.max_retries":           d.Generation.MaxRetries,
		"generation.backoff":               d.Generation.Backoff,
		"generation.min_explanation_chars": d.Generation.MinExplanationChars,
		"generation.type_code":             d.Generation.TypeCode,
		"classification.on_failure":        d.Classification.OnFailure,
		"cache.enabled":                    d.Cache.Enabled,
		"cache.dir":                        d.Cache.Dir,
		"cache.memory_ttl":                 d.Cache.MemoryTTL,
		"cache.disk_ttl":                   d.Cache.DiskTTL,
		"notify.enabled":                   d.Notify.Enabled,
		"notify.smtp_host":                 d.Notify.SMTPHost,
		"notify.smtp_port":                 d.Notify.SMTPPort,
		"notify.username":                  d.Notify.Username,
		"notify.password":                  d.Notify.Password,
		"notify.from":                      d.Notify.From,
		"notify.to":                        d.Notify.To,
		"log.mode":                         d.Log.Mode,
		"log.level":                        d.Log.Level,
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)

		names := append([]string{envName(key)}, aliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode resolves the configuration held by v without validating it.
// Commands that never call a provider use it so a missing API key does
// not block them.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if cfg.Notify.From == "" {
		cfg.Notify.From = cfg.Notify.Username
	}

	return &cfg, nil
}

// Validate checks struct constraints and reports every violated field
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
