package genaisdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(context.Background(), "genai", Options{BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)
	return p
}

func TestGenerateReturnsCandidateText(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent"), r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "contents")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"model\":\"x\"}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 1, "candidatesTokenCount": 2, "totalTokenCount": 3},
			"modelVersion": "gemini-1.5-flash-002"
		}`))
	})

	resp, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "gemini-1.5-flash", Instruction: "hi"})
	require.NoError(t, err)
	require.Equal(t, `{"model":"x"}`, resp.Text)
	require.Equal(t, "gemini-1.5-flash-002", resp.ModelVersion)
	require.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestGenerateServerErrorIsTransportError(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "bad request", "status": "INVALID_ARGUMENT"}}`))
	})

	_, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "m", Instruction: "hi"})
	require.True(t, llm.IsTransport(err), "got %v", err)
	require.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestGenerateEmptyCandidatesIsMalformed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	_, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "m", Instruction: "hi"})
	require.True(t, llm.IsMalformedEnvelope(err), "got %v", err)
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), "genai", Options{})
	require.Error(t, err)
}
