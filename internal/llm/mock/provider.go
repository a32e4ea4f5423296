package mock

import (
	"context"
	"sync"

	"github.com/sitesmith/sitesmith/internal/llm"
)

// Provider is a test double implementing llm.Provider.
type Provider struct {
	NameValue  string
	GenerateFn func(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error)

	mu       sync.Mutex
	requests []llm.GenerateRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.GenerateFn != nil {
		return p.GenerateFn(ctx, req)
	}
	return llm.GenerateResponse{Text: "{}", ProviderName: p.Name(), Model: req.Model}, nil
}

// Requests returns every request received so far.
func (p *Provider) Requests() []llm.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]llm.GenerateRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Replies returns a GenerateFn that answers with the given responses in order,
// repeating the last one once exhausted.
func Replies(replies ...Reply) func(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return llm.GenerateResponse{}, nil
		}
		r := replies[i]
		if i < len(replies)-1 {
			i++
		}
		if r.Err != nil {
			return llm.GenerateResponse{}, r.Err
		}
		return llm.GenerateResponse{Text: r.Text, ModelVersion: r.ModelVersion, Model: req.Model, ProviderName: "mock"}, nil
	}
}

// Reply is one scripted answer for Replies.
type Reply struct {
	Text         string
	ModelVersion string
	Err          error
}
