package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for generation runs.
type Metrics struct {
	registry        *prometheus.Registry
	Attempts        *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
	Generations     *prometheus.CounterVec
	Tokens          *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with generation collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesmith_attempts_total",
		Help: "Generation attempts by agent and outcome stage (ok, transport, parse, schema)",
	}, []string{"agent", "stage"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sitesmith_attempt_duration_seconds",
		Help:    "Backend round-trip duration per attempt",
		Buckets: prometheus.DefBuckets,
	}, []string{"agent"})

	gens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesmith_generations_total",
		Help: "Completed agent invocations by result (ok, business, exhausted, canceled)",
	}, []string{"agent", "result"})

	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesmith_tokens_total",
		Help: "Tokens reported by the backend",
	}, []string{"agent", "kind"})

	reg.MustRegister(attempts, durs, gens, tokens)

	return &Metrics{
		registry:        reg,
		Attempts:        attempts,
		AttemptDuration: durs,
		Generations:     gens,
		Tokens:          tokens,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt records one attempt outcome and its duration.
func (m *Metrics) RecordAttempt(agent, stage string, duration time.Duration) {
	if m == nil {
		return
	}
	agent, stage = orUnknown(agent), orUnknown(stage)
	m.Attempts.WithLabelValues(agent, stage).Inc()
	m.AttemptDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordGeneration records the terminal result of an agent invocation.
func (m *Metrics) RecordGeneration(agent, result string) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(orUnknown(agent), orUnknown(result)).Inc()
}

// RecordTokens adds prompt and completion token counts.
func (m *Metrics) RecordTokens(agent string, prompt, completion int) {
	if m == nil {
		return
	}
	agent = orUnknown(agent)
	m.Tokens.WithLabelValues(agent, "prompt").Add(float64(prompt))
	m.Tokens.WithLabelValues(agent, "completion").Add(float64(completion))
}

// WriteTextfile writes all collected metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
