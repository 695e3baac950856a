package inference

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// OllamaBackend talks to Ollama's native chat endpoint.
// baseURL is the server root, e.g. http://ollama:11434.
type OllamaBackend struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOllamaBackend constructs a raw-chat backend.
func NewOllamaBackend(baseURL, apiKey string, connectTimeout time.Duration) *OllamaBackend {
	return &OllamaBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(connectTimeout),
	}
}

func (b *OllamaBackend) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

func (b *OllamaBackend) Chat(ctx context.Context, model, prompt string) (string, error) {
	status, body, err := postJSON(ctx, b.httpClient, b.baseURL+"/api/chat", b.apiKey, ollamaChatRequest{
		Model:    model,
		Messages: userMessages(prompt),
		Stream:   false,
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String && msg.String() != "" {
			return "", ErrBackendStatus(status, msg.String())
		}
		return "", ErrBackendStatus(status, truncate(strings.TrimSpace(string(body)), maxErrorBody))
	}
	if !gjson.ValidBytes(body) {
		return "", ErrInvalidResponse("body is not JSON")
	}
	content := gjson.GetBytes(body, "message.content")
	if content.Type != gjson.String {
		return "", ErrInvalidResponse("missing message.content")
	}
	return content.String(), nil
}
