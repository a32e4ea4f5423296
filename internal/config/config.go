package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIKeyEnv is the environment variable consulted when a Gemini provider has no api_key.
const DefaultAPIKeyEnv = "GEMINI_API_KEY"

// Provider types.
const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config describes the top-level application configuration loaded from YAML, .env and ENV.
type Config struct {
	Version   string                    `mapstructure:"version"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`
	Strategy  StrategyConfig            `mapstructure:"strategy"`
	Retry     RetryConfig               `mapstructure:"retry"`
	Output    OutputConfig              `mapstructure:"output"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

// ProviderConfig represents a generation backend.
type ProviderConfig struct {
	Type      string        `mapstructure:"type"`        // gemini (REST), genai (SDK), openai or ollama
	BaseURL   string        `mapstructure:"base_url"`    // API base URL
	APIKey    string        `mapstructure:"api_key"`     // credential; falls back to APIKeyEnv
	APIKeyEnv string        `mapstructure:"api_key_env"` // env var holding the credential
	Timeout   time.Duration `mapstructure:"timeout"`     // transport timeout
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Default     bool    `mapstructure:"default"`
}

// RetryConfig bounds the corrective retry loop.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"` // per attempt
}

// OutputConfig controls where generated files land.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // node exporter textfile path; empty disables
}

// Load reads configuration from the provided path or from sitesmith.yaml in . or configs/.
// A missing default file is not an error: built-in defaults apply.
// A .env file in the working directory is loaded first; environment variables
// override file values (prefix: SITESMITH_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SITESMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("sitesmith")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyBuiltins()
	cfg.resolveKeys(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.timeout", 30*time.Second)

	v.SetDefault("output.dir", "output")

	v.SetDefault("strategy.default_model", "")
	v.SetDefault("strategy.tests_model", "")
	v.SetDefault("strategy.website_model", "")

	v.SetDefault("metrics.textfile", "")
}

// applyBuiltins installs the stock Gemini provider and model when none are configured.
func (c *Config) applyBuiltins() {
	if len(c.Providers) == 0 {
		c.Providers = map[string]ProviderConfig{
			ProviderGemini: {Type: ProviderGemini, Timeout: 30 * time.Second},
		}
	}
	if len(c.Models) == 0 {
		c.Models = map[string]ModelConfig{
			"flash": {Provider: firstProvider(c.Providers), Model: "gemini-1.5-flash", Default: true},
		}
	}
}

// RequiresKey reports whether the provider type authenticates with an API key.
func (p ProviderConfig) RequiresKey() bool {
	return normalizeType(p.Type) != ProviderOllama
}

func defaultKeyEnv(providerType string) string {
	switch normalizeType(providerType) {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOllama:
		return ""
	default:
		return DefaultAPIKeyEnv
	}
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// resolveKeys fills empty api keys from each provider's key variable.
func (c *Config) resolveKeys(getenv func(string) string) {
	for name, p := range c.Providers {
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = defaultKeyEnv(p.Type)
		}
		if strings.TrimSpace(p.APIKey) == "" && p.APIKeyEnv != "" {
			p.APIKey = strings.TrimSpace(getenv(p.APIKeyEnv))
		}
		c.Providers[name] = p
	}
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	for name, p := range c.Providers {
		switch normalizeType(p.Type) {
		case ProviderGemini, ProviderGenAI, ProviderOpenAI, ProviderOllama:
		case "":
			return fmt.Errorf("provider %q must define type", name)
		default:
			return fmt.Errorf("provider %q has unknown type %q (want gemini, genai, openai or ollama)", name, p.Type)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("provider %q timeout cannot be negative", name)
		}
	}

	var defaultFound bool
	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if strings.TrimSpace(m.Model) == "" {
			return fmt.Errorf("model %q must name a backend model", name)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}

		if m.Default {
			defaultFound = true
		}
	}

	if !defaultFound && len(c.Models) > 1 {
		return errors.New("at least one model should be marked as default")
	}

	for _, modelID := range []string{c.Strategy.DefaultModel, c.Strategy.TestsModel, c.Strategy.WebsiteModel} {
		if strings.TrimSpace(modelID) == "" {
			continue
		}
		if _, ok := c.Models[modelID]; !ok {
			return fmt.Errorf("strategy references unknown model %q", modelID)
		}
	}

	if c.Retry.MaxAttempts <= 0 {
		return errors.New("retry.max_attempts must be > 0")
	}
	if c.Retry.Timeout <= 0 {
		return errors.New("retry.timeout must be > 0")
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir must be set")
	}

	return nil
}

// MissingKeys lists providers that have no credential after env resolution.
func (c *Config) MissingKeys() []string {
	var out []string
	for name, p := range c.Providers {
		if p.RequiresKey() && strings.TrimSpace(p.APIKey) == "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func firstProvider(providers map[string]ProviderConfig) string {
	if _, ok := providers["gemini"]; ok {
		return "gemini"
	}
	first := ""
	for name := range providers {
		if first == "" || name < first {
			first = name
		}
	}
	return first
}
