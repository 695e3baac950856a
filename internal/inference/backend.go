// Package inference forwards prompts to an LLM serving engine and normalizes
// its reply or failure.
//
// Two wire protocols are supported, one per deployment:
//
//   - openai: OpenAI-compatible chat completions (vLLM, llama.cpp server, ...).
//   - ollama: Ollama's native /api/chat with stream=false.
//
// Every failure is returned as a typed error carrying an HTTP status and a
// kind: unreachable backends (503), backend failures or unusable payloads
// (502), rejected requests (400) and internal bugs (500).
package inference

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend performs a single non-streaming chat turn.
type Backend interface {
	// Name identifies the protocol for logs and metrics.
	Name() string
	// Chat sends prompt as one user message to model and returns the reply text.
	Chat(ctx context.Context, model, prompt string) (string, error)
}

// NewBackend builds the backend for kind ("openai"/"vllm" or "ollama").
func NewBackend(kind, baseURL, apiKey string, connectTimeout time.Duration) (Backend, error) {
	switch strings.ToLower(kind) {
	case "openai", "vllm", "":
		return NewOpenAIBackend(baseURL, apiKey, connectTimeout), nil
	case "ollama":
		return NewOllamaBackend(baseURL, apiKey, connectTimeout), nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", kind)
	}
}

// chatMessage is the message shape shared by both protocols.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func userMessages(prompt string) []chatMessage {
	return []chatMessage{{Role: "user", Content: prompt}}
}
