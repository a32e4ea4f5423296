package structured

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/observability"
	"github.com/sitesmith/sitesmith/internal/schema"
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	// Timeout applies to each attempt separately.
	Timeout time.Duration
}

// DefaultPolicy returns three attempts of thirty seconds each.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Timeout: 30 * time.Second}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	return p
}

// Task is one schema-constrained generation request.
type Task struct {
	// Agent labels logs and metrics, e.g. "tests" or "website".
	Agent   string
	Prompt  string
	Context *llm.ContextLog
	Schema  *schema.Model
}

// Coordinator drives the build, send, validate loop with corrective retries.
// Attempts run strictly one after another; there is no delay between them.
type Coordinator struct {
	provider llm.Provider
	route    llm.ModelRoute
	policy   Policy
	logger   *zap.Logger
	metrics  *observability.Metrics

	// OnAttempt, when set, observes every finished attempt.
	OnAttempt func(task Task, attempt Attempt)
}

// NewCoordinator builds a coordinator bound to one provider and model route.
func NewCoordinator(provider llm.Provider, route llm.ModelRoute, policy Policy, logger *zap.Logger, metrics *observability.Metrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		provider: provider,
		route:    route,
		policy:   policy.normalized(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Policy returns the effective retry policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// Route returns the model route requests are sent to.
func (c *Coordinator) Route() llm.ModelRoute {
	return c.route
}

// Generate runs task until a reply validates and decodes into T, or the attempt budget is spent.
func Generate[T any](ctx context.Context, c *Coordinator, task Task) (T, error) {
	var out T
	err := c.run(ctx, task, func(obj map[string]any) error {
		v, err := Decode[T](obj, task.Schema)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (c *Coordinator) run(ctx context.Context, task Task, decode func(map[string]any) error) error {
	if task.Schema == nil {
		return fmt.Errorf("%s: schema is required", task.Agent)
	}
	if strings.TrimSpace(task.Prompt) == "" {
		return fmt.Errorf("%s: prompt is required", task.Agent)
	}
	if c.provider == nil {
		return fmt.Errorf("%s: no provider configured", task.Agent)
	}

	log := c.logger.With(
		zap.String("agent", task.Agent),
		zap.String("schema", task.Schema.Name()),
		zap.String("provider", c.provider.Name()),
		zap.String("model", c.route.Model),
	)

	correction := ""
	attempts := make([]Attempt, 0, c.policy.MaxAttempts)

	for n := 1; n <= c.policy.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			c.metrics.RecordGeneration(task.Agent, "canceled")
			return fmt.Errorf("%s: canceled before attempt %d: %w", task.Agent, n, err)
		}

		att := Attempt{
			Index:       n,
			Instruction: BuildInstruction(task.Prompt, task.Context, task.Schema, correction),
		}

		resp, err := c.send(ctx, att.Instruction)
		att.Duration = resp.duration
		if err != nil {
			if ctx.Err() != nil {
				c.metrics.RecordGeneration(task.Agent, "canceled")
				return fmt.Errorf("%s: canceled during attempt %d: %w", task.Agent, n, ctx.Err())
			}
			att.Stage, att.Err = StageTransport, err
			attempts = c.finish(log, task, attempts, att)
			continue
		}

		att.Raw, att.HasRaw = resp.Text, true
		c.metrics.RecordTokens(task.Agent, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

		obj, err := Validate(resp.Text, resp.ModelVersion, task.Schema)
		if err == nil {
			err = decode(obj)
		}
		if err != nil {
			att.Stage, att.Err = StageOf(err), err
			correction = CorrectionNote(err)
			attempts = c.finish(log, task, attempts, att)
			continue
		}

		att.Stage = StageOK
		c.finish(log, task, attempts, att)
		if msg, _ := obj["error"].(string); strings.TrimSpace(msg) != "" {
			c.metrics.RecordGeneration(task.Agent, "business")
		} else {
			c.metrics.RecordGeneration(task.Agent, "ok")
		}
		return nil
	}

	c.metrics.RecordGeneration(task.Agent, "exhausted")
	exhausted := &RetryExhaustedError{Schema: task.Schema.Name(), Attempts: attempts}
	log.Error("attempts exhausted", zap.Int("attempts", len(attempts)), zap.Error(exhausted.Unwrap()))
	return exhausted
}

type sendResult struct {
	llm.GenerateResponse
	duration time.Duration
}

// send performs one backend call under the per-attempt timeout.
func (c *Coordinator) send(ctx context.Context, instruction string) (sendResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.provider.Generate(attemptCtx, llm.GenerateRequest{
		Model:       c.route.Model,
		Instruction: instruction,
		Temperature: c.route.Temperature,
		MaxTokens:   c.route.MaxTokens,
	})
	out := sendResult{GenerateResponse: resp, duration: time.Since(start)}
	if err != nil {
		if attemptCtx.Err() != nil && !llm.IsTransport(err) {
			err = &llm.TransportError{Provider: c.provider.Name(), Err: attemptCtx.Err()}
		}
		return out, err
	}
	return out, nil
}

func (c *Coordinator) finish(log *zap.Logger, task Task, attempts []Attempt, att Attempt) []Attempt {
	attempts = append(attempts, att)
	c.metrics.RecordAttempt(task.Agent, string(att.Stage), att.Duration)
	if att.Err != nil {
		log.Warn("attempt failed",
			zap.Int("attempt", att.Index),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.String("stage", string(att.Stage)),
			zap.Duration("duration", att.Duration),
			zap.Error(att.Err),
		)
	} else {
		log.Info("attempt succeeded",
			zap.Int("attempt", att.Index),
			zap.Duration("duration", att.Duration),
		)
	}
	if c.OnAttempt != nil {
		c.OnAttempt(task, att)
	}
	return attempts
}
