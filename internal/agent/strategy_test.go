package agent

import (
	"testing"

	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/llm"
	llmmock "github.com/sitesmith/sitesmith/internal/llm/mock"
)

func TestStrategyResolvesRoles(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterProvider("p", &llmmock.Provider{})
	reg.RegisterModel("flash", llm.ModelRoute{Provider: "p", Model: "m1"}, true)
	reg.RegisterModel("tests-model", llm.ModelRoute{Provider: "p", Model: "m2"}, false)
	reg.RegisterModel("site-model", llm.ModelRoute{Provider: "p", Model: "m3"}, false)

	engine := NewStrategyEngine(reg, config.StrategyConfig{
		TestsModel:   "tests-model",
		WebsiteModel: "site-model",
	})

	_, route, err := engine.ResolveModel("tests", "")
	if err != nil || route.Name != "tests-model" {
		t.Fatalf("expected tests model, got %s err=%v", route.Name, err)
	}
	_, route, err = engine.ResolveModel("Website", "")
	if err != nil || route.Name != "site-model" {
		t.Fatalf("expected website model, got %s err=%v", route.Name, err)
	}
	_, route, err = engine.ResolveModel("website", "flash")
	if err != nil || route.Name != "flash" {
		t.Fatalf("expected override to win, got %s err=%v", route.Name, err)
	}
}

func TestStrategyFallsBackToDefault(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterProvider("p", &llmmock.Provider{})
	reg.RegisterModel("flash", llm.ModelRoute{Provider: "p", Model: "m1"}, false)
	reg.RegisterModel("pro", llm.ModelRoute{Provider: "p", Model: "m2"}, false)

	engine := NewStrategyEngine(reg, config.StrategyConfig{DefaultModel: "pro"})
	_, route, err := engine.ResolveModel("tests", "")
	if err != nil || route.Model != "m2" {
		t.Fatalf("expected configured default, got %s err=%v", route.Model, err)
	}

	engine = NewStrategyEngine(reg, config.StrategyConfig{})
	_, route, err = engine.ResolveModel("tests", "")
	if err != nil || route.Name != "flash" {
		t.Fatalf("expected registry default, got %s err=%v", route.Name, err)
	}
}

func TestStrategyUnknownModel(t *testing.T) {
	reg := llm.NewRegistry()
	reg.RegisterProvider("p", &llmmock.Provider{})
	reg.RegisterModel("flash", llm.ModelRoute{Provider: "p", Model: "m1"}, true)

	engine := NewStrategyEngine(reg, config.StrategyConfig{WebsiteModel: "missing"})
	if _, _, err := engine.ResolveModel("website", ""); err == nil {
		t.Fatalf("expected error for unregistered model")
	}
	if _, _, err := NewStrategyEngine(nil, config.StrategyConfig{}).ResolveModel("tests", ""); err == nil {
		t.Fatalf("expected error without registry")
	}
}
