package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Provider calls the Gemini generateContent REST endpoint.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewProvider constructs a Provider with sane defaults.
func NewProvider(name, baseURL, apiKey string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Generate sends one instruction block and returns the first candidate's text.
func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		return llm.GenerateResponse{}, fmt.Errorf("model is required")
	}

	instruction := req.Instruction
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: &instruction}}}},
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		body.GenerationConfig = &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", p.apiKey)
	}

	res, err := p.client.Do(httpReq)
	if err != nil {
		return llm.GenerateResponse{}, p.transportErr(0, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return llm.GenerateResponse{}, p.transportErr(res.StatusCode, errors.New(strings.TrimSpace(string(b))))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return llm.GenerateResponse{}, p.transportErr(0, fmt.Errorf("read body: %w", err))
	}

	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{Provider: p.name, Detail: "decode envelope: " + err.Error()}
	}

	text, finish, err := resp.replyText()
	if err != nil {
		return llm.GenerateResponse{}, &llm.MalformedEnvelopeError{Provider: p.name, Detail: err.Error()}
	}

	return llm.GenerateResponse{
		Text:         text,
		ModelVersion: resp.ModelVersion,
		FinishReason: finish,
		Usage: llm.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		ProviderName: p.name,
		Model:        model,
	}, nil
}

func (p *Provider) transportErr(status int, err error) error {
	return &llm.TransportError{Provider: p.name, StatusCode: status, Err: err}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text *string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// replyText concatenates the text parts of the first candidate.
func (r generateResponse) replyText() (string, string, error) {
	if len(r.Candidates) == 0 {
		return "", "", errors.New("no candidates")
	}
	c := r.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return "", c.FinishReason, fmt.Errorf("candidate has no content parts (finish reason %q)", c.FinishReason)
	}
	var b strings.Builder
	found := false
	for _, pt := range c.Content.Parts {
		if pt.Text == nil {
			continue
		}
		found = true
		b.WriteString(*pt.Text)
	}
	if !found {
		return "", c.FinishReason, errors.New("candidate parts carry no text")
	}
	return b.String(), c.FinishReason, nil
}
