package agent

import (
	"fmt"
	"strings"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/llm"
)

// Agent roles understood by the strategy engine.
const (
	RoleTests   = "tests"
	RoleWebsite = "website"
)

// StrategyEngine chooses the model each agent role talks to.
type StrategyEngine struct {
	registry *llm.Registry
	cfg      config.StrategyConfig
}

// NewStrategyEngine builds a strategy selector.
func NewStrategyEngine(reg *llm.Registry, cfg config.StrategyConfig) *StrategyEngine {
	return &StrategyEngine{registry: reg, cfg: cfg}
}

// ResolveModel picks a model for role; override beats the role model, which beats the default.
// A model that is named but not registered is an error rather than a silent fallback.
func (s *StrategyEngine) ResolveModel(role string, override string) (llm.Provider, llm.ModelRoute, error) {
	if s == nil || s.registry == nil {
		return nil, llm.ModelRoute{}, fmt.Errorf("no model registry configured")
	}
	role = strings.ToLower(strings.TrimSpace(role))
	modelID := firstNonEmpty(
		override,
		roleModel(role, s.cfg),
		s.cfg.DefaultModel,
	)
	p, route, err := s.registry.Resolve(strings.TrimSpace(modelID))
	if err != nil {
		return nil, llm.ModelRoute{}, fmt.Errorf("%s role: %w", role, err)
	}
	return p, route, nil
}

func roleModel(role string, cfg config.StrategyConfig) string {
	switch role {
	case RoleTests:
		return cfg.TestsModel
	case RoleWebsite:
		return cfg.WebsiteModel
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
