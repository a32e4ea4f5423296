package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/llm"
)

func TestGenerateSendsRequestAndParsesResponse(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "key", 5*time.Second)
	p.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/chat/completions", r.URL.Path)
			require.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)

			var reqBody struct {
				Model          string `json:"model"`
				Messages       []message
				ResponseFormat responseFormat `json:"response_format"`
			}
			require.NoError(t, json.Unmarshal(body, &reqBody))
			require.Equal(t, "gpt-4o-mini", reqBody.Model)
			require.Equal(t, []message{{Role: "user", Content: "instruction"}}, reqBody.Messages)
			require.Equal(t, "json_object", reqBody.ResponseFormat.Type)

			return response(http.StatusOK, `{
				"model": "gpt-4o-mini-2024-07-18",
				"choices": [{
					"index": 0,
					"finish_reason": "stop",
					"message": {"role": "assistant", "content": "{\"tests\":[]}"}
				}],
				"usage": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3}
			}`), nil
		}),
	}

	resp, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "gpt-4o-mini", Instruction: "instruction"})
	require.NoError(t, err)
	require.Equal(t, `{"tests":[]}`, resp.Text)
	require.Equal(t, "gpt-4o-mini-2024-07-18", resp.ModelVersion)
	require.Equal(t, "stop", resp.FinishReason)
	require.Equal(t, 3, resp.Usage.TotalTokens)
}

func TestGenerateClassifiesFailures(t *testing.T) {
	t.Parallel()

	p := NewProvider("openai", "http://mock", "", 0)
	p.client = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return response(http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`), nil
	})}
	_, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "m", Instruction: "x"})
	var te *llm.TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	require.Contains(t, te.Error(), "rate limited")

	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"finish_reason":"length","message":{"role":"assistant"}}]}`} {
		p.client = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, body), nil
		})}
		_, err = p.Generate(context.Background(), llm.GenerateRequest{Model: "m", Instruction: "x"})
		require.True(t, llm.IsMalformedEnvelope(err), body)
	}
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
