package llm

import "context"

// GenerateRequest is one outbound generation call carrying a single instruction block.
type GenerateRequest struct {
	Model       string
	Instruction string
	MaxTokens   int
	Temperature float64
}

// Usage captures token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateResponse is the reply text plus envelope metadata.
type GenerateResponse struct {
	Text string
	// ModelVersion is the backend-reported model version, empty if absent.
	ModelVersion string
	FinishReason string
	Usage        Usage
	ProviderName string
	Model        string
}

// Provider defines the contract for generation backends.
// Implementations must not retry internally.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
