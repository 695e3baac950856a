package inference

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// OpenAIBackend talks to an OpenAI-compatible chat completions endpoint.
// baseURL includes the API prefix, e.g. http://vllm-engine:8000/v1.
type OpenAIBackend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAIBackend constructs an OpenAI-compatible backend.
func NewOpenAIBackend(baseURL, apiKey string, connectTimeout time.Duration) *OpenAIBackend {
	return &OpenAIBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(connectTimeout),
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

type openAIChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

func (b *OpenAIBackend) Chat(ctx context.Context, model, prompt string) (string, error) {
	status, body, err := postJSON(ctx, b.httpClient, b.baseURL+"/chat/completions", b.apiKey, openAIChatRequest{
		Model:    model,
		Messages: userMessages(prompt),
		Stream:   false,
	})
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		// OpenAI-style servers wrap failures as {"error":{"message":...}}
		msg := gjson.GetBytes(body, "error.message")
		if msg.Type == gjson.String && msg.String() != "" {
			return "", ErrBackendStatus(status, msg.String())
		}
		return "", ErrBackendStatus(status, truncate(strings.TrimSpace(string(body)), maxErrorBody))
	}
	if !gjson.ValidBytes(body) {
		return "", ErrInvalidResponse("body is not JSON")
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if content.Type != gjson.String {
		return "", ErrInvalidResponse("missing choices[0].message.content")
	}
	return content.String(), nil
}
