package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/schema"
	"github.com/sitesmith/sitesmith/internal/structured"
)

// TestAgent turns website requirements into pytest functions.
type TestAgent struct {
	coord *structured.Coordinator
}

// NewTestAgent binds the agent to a coordinator.
func NewTestAgent(coord *structured.Coordinator) *TestAgent {
	return &TestAgent{coord: coord}
}

// GenerateTests asks the backend for test functions covering requirements.
// A backend-declared failure is returned as a result with Error set and no tests.
func (a *TestAgent) GenerateTests(ctx context.Context, requirements string, log *llm.ContextLog) (TestsResult, error) {
	if strings.TrimSpace(requirements) == "" {
		return TestsResult{}, fmt.Errorf("requirements are required")
	}
	res, err := structured.Generate[TestsResult](ctx, a.coord, structured.Task{
		Agent:   RoleTests,
		Prompt:  testsPrompt(requirements),
		Context: log,
		Schema:  schema.Tests,
	})
	if err != nil {
		return TestsResult{}, err
	}
	res.settle()
	return res, nil
}

// WebsiteAgent produces the html, css and js meant to pass a set of tests.
type WebsiteAgent struct {
	coord *structured.Coordinator
}

// NewWebsiteAgent binds the agent to a coordinator.
func NewWebsiteAgent(coord *structured.Coordinator) *WebsiteAgent {
	return &WebsiteAgent{coord: coord}
}

// GenerateWebsite asks the backend for a site that satisfies tests.
func (a *WebsiteAgent) GenerateWebsite(ctx context.Context, tests []string, log *llm.ContextLog) (WebsiteResult, error) {
	if len(tests) == 0 {
		return WebsiteResult{}, fmt.Errorf("at least one test is required")
	}
	res, err := structured.Generate[WebsiteResult](ctx, a.coord, structured.Task{
		Agent:   RoleWebsite,
		Prompt:  websitePrompt(tests),
		Context: log,
		Schema:  schema.Website,
	})
	if err != nil {
		return WebsiteResult{}, err
	}
	res.settle()
	return res, nil
}
