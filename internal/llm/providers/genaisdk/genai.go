package genaisdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/sitesmith/sitesmith/internal/llm"
)

// Provider calls Gemini through the official Go SDK.
type Provider struct {
	name   string
	client *genai.Client
}

// Options configures the SDK client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewProvider constructs an SDK-backed provider.
func NewProvider(ctx context.Context, name string, opts Options) (*Provider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("provider %s: api key is required", name)
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(opts.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("provider %s: create client: %w", name, err)
	}
	return &Provider{name: name, client: client}, nil
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Generate sends the instruction as a single user content.
func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	if req.Model == "" {
		return llm.GenerateResponse{}, fmt.Errorf("model is required")
	}

	var cfg *genai.GenerateContentConfig
	if req.Temperature > 0 || req.MaxTokens > 0 {
		cfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
		if req.Temperature > 0 {
			temp := float32(req.Temperature)
			cfg.Temperature = &temp
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Instruction), cfg)
	if err != nil {
		return llm.GenerateResponse{}, p.mapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{Provider: p.name, Detail: "no candidates"}
	}

	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{
			Provider: p.name,
			Detail:   fmt.Sprintf("candidate has no content parts (finish reason %q)", cand.FinishReason),
		}
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{Provider: p.name, Detail: "candidate parts carry no text"}
	}

	out := llm.GenerateResponse{
		Text:         b.String(),
		ModelVersion: resp.ModelVersion,
		FinishReason: string(cand.FinishReason),
		ProviderName: p.name,
		Model:        req.Model,
	}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// mapError classifies SDK failures; everything the SDK returns is transport-level.
func (p *Provider) mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.TransportError{Provider: p.name, StatusCode: apiErr.Code, Err: err}
	}
	return &llm.TransportError{Provider: p.name, Err: err}
}
