package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/llm"
)

// Provider calls a local Ollama server's /api/generate endpoint in JSON mode.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
}

// NewProvider constructs an Ollama provider.
func NewProvider(name, baseURL string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Generate sends the instruction as a single non-streaming prompt.
func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		return llm.GenerateResponse{}, fmt.Errorf("model is required")
	}

	body := generateRequest{
		Model:  model,
		Prompt: req.Instruction,
		Stream: false,
		Format: "json",
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.Options = map[string]interface{}{}
		if req.Temperature > 0 {
			body.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			body.Options["num_predict"] = req.MaxTokens
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(httpReq)
	if err != nil {
		return llm.GenerateResponse{}, &llm.TransportError{Provider: p.name, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return llm.GenerateResponse{}, &llm.TransportError{Provider: p.name, StatusCode: res.StatusCode, Err: errors.New(strings.TrimSpace(string(b)))}
	}

	var resp generateResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{Provider: p.name, Detail: "decode envelope: " + err.Error()}
	}
	if resp.Response == nil {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{Provider: p.name, Detail: "envelope has no response field"}
	}

	return llm.GenerateResponse{
		Text:         *resp.Response,
		ModelVersion: resp.Model,
		FinishReason: resp.DoneReason,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
		ProviderName: p.name,
		Model:        model,
	}, nil
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Model           string  `json:"model"`
	Response        *string `json:"response"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}
