package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/observability"
	"github.com/sitesmith/sitesmith/internal/structured"
)

// Options configures a Pipeline built from a strategy engine.
type Options struct {
	Policy       structured.Policy
	TestsModel   string
	WebsiteModel string
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	// OnAttempt observes every attempt of both agents.
	OnAttempt func(structured.Task, structured.Attempt)
}

// Pipeline runs the tests agent and then the website agent over one shared context log.
type Pipeline struct {
	Tests   *TestAgent
	Website *WebsiteAgent
	logger  *zap.Logger

	// OnTests runs after a successful tests stage and before the website stage starts.
	// Returning an error stops the run.
	OnTests func(runID string, res TestsResult) error
}

// RunResult gathers everything one run produced.
type RunResult struct {
	RunID   string
	Context *llm.ContextLog
	Tests   TestsResult
	Website WebsiteResult
}

// NewPipeline resolves a model per role and builds both agents.
func NewPipeline(engine *StrategyEngine, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	coord := func(role, override string) (*structured.Coordinator, error) {
		p, route, err := engine.ResolveModel(role, override)
		if err != nil {
			return nil, err
		}
		c := structured.NewCoordinator(p, route, opts.Policy, logger, opts.Metrics)
		c.OnAttempt = opts.OnAttempt
		return c, nil
	}
	tc, err := coord(RoleTests, opts.TestsModel)
	if err != nil {
		return nil, err
	}
	wc, err := coord(RoleWebsite, opts.WebsiteModel)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Tests:   NewTestAgent(tc),
		Website: NewWebsiteAgent(wc),
		logger:  logger,
	}, nil
}

// Run executes both stages in order. A business failure of either stage stops the run
// and is returned as a *BusinessError alongside whatever was produced so far.
func (p *Pipeline) Run(ctx context.Context, requirements string) (RunResult, error) {
	out := RunResult{RunID: uuid.NewString(), Context: llm.NewContextLog()}
	if strings.TrimSpace(requirements) == "" {
		return out, fmt.Errorf("requirements cannot be empty")
	}
	log := p.logger.With(zap.String("run_id", out.RunID))

	log.Info("generating tests")
	tests, err := p.Tests.GenerateTests(ctx, requirements, out.Context)
	if err != nil {
		return out, fmt.Errorf("generate tests: %w", err)
	}
	out.Tests = tests
	if err := tests.BusinessErr(); err != nil {
		log.Warn("tests stage declined", zap.Error(err))
		return out, err
	}
	log.Info("tests generated", zap.Int("count", len(tests.Tests)), zap.Strings("names", TestNames(tests.Tests)))

	if p.OnTests != nil {
		if err := p.OnTests(out.RunID, tests); err != nil {
			return out, err
		}
	}

	note, err := testsMessage(tests.Tests)
	if err != nil {
		return out, err
	}
	out.Context.Append(llm.RoleUser, note)

	log.Info("generating website")
	site, err := p.Website.GenerateWebsite(ctx, tests.Tests, out.Context)
	if err != nil {
		return out, fmt.Errorf("generate website: %w", err)
	}
	out.Website = site
	if err := site.BusinessErr(); err != nil {
		log.Warn("website stage declined", zap.Error(err))
		return out, err
	}
	log.Info("website generated",
		zap.Int("html_bytes", len(site.HTML)),
		zap.Int("css_bytes", len(site.CSS)),
		zap.Int("js_bytes", len(site.JS)),
	)
	return out, nil
}

// testsMessage renders the context entry that hands the tests to the website stage.
func testsMessage(tests []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tests); err != nil {
		return "", fmt.Errorf("encode tests for context: %w", err)
	}
	return "Test functions: " + strings.TrimSpace(buf.String()), nil
}
