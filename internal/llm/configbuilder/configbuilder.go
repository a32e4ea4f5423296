package configbuilder

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/llm"
	llmgemini "github.com/sitesmith/sitesmith/internal/llm/providers/gemini"
	llmgenai "github.com/sitesmith/sitesmith/internal/llm/providers/genaisdk"
	llmollama "github.com/sitesmith/sitesmith/internal/llm/providers/ollama"
	llmopenai "github.com/sitesmith/sitesmith/internal/llm/providers/openai"
)

// BuildRegistryFromConfig constructs a registry and providers from config.
func BuildRegistryFromConfig(ctx context.Context, cfg *config.Config) (*llm.Registry, error) {
	reg := llm.NewRegistry()

	for name, pCfg := range cfg.Providers {
		p, err := buildProvider(ctx, name, pCfg)
		if err != nil {
			return nil, err
		}
		reg.RegisterProvider(name, p)
	}

	for name, mCfg := range cfg.Models {
		reg.RegisterModel(name, llm.ModelRoute{
			Provider:    mCfg.Provider,
			Model:       mCfg.Model,
			Temperature: mCfg.Temperature,
			MaxTokens:   mCfg.MaxTokens,
		}, mCfg.Default)
	}

	if _, _, err := reg.Resolve(""); err != nil {
		return nil, err
	}

	return reg, nil
}

func buildProvider(ctx context.Context, name string, cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.RequiresKey() && strings.TrimSpace(cfg.APIKey) == "" {
		env := cfg.APIKeyEnv
		if env == "" {
			env = config.DefaultAPIKeyEnv
		}
		return nil, fmt.Errorf("provider %s: api key missing (set api_key or %s)", name, env)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.ProviderGemini:
		return llmgemini.NewProvider(name, cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case config.ProviderOpenAI:
		return llmopenai.NewProvider(name, cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case config.ProviderOllama:
		return llmollama.NewProvider(name, cfg.BaseURL, cfg.Timeout), nil
	case config.ProviderGenAI:
		return llmgenai.NewProvider(ctx, name, llmgenai.Options{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q for provider %s", cfg.Type, name)
	}
}
