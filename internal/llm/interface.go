package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newthinker/chartwise/internal/core"
)

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens applies when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// jsonInstruction is appended to the system prompt for providers without a
// native JSON response mode.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// SystemPromptFor returns the system prompt, adding the JSON instruction when
// the request asks for JSON and the provider cannot enforce it.
func SystemPromptFor(req ChatRequest) string {
	if !req.JSONMode {
		return req.SystemPrompt
	}
	if req.SystemPrompt == "" {
		return jsonInstruction
	}
	return req.SystemPrompt + "\n\n" + jsonInstruction
}

// WrapError tags a provider failure as LLM_TIMEOUT or LLM_FAILED.
func WrapError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrLLMTimeout, fmt.Errorf("%s: %w", provider, err))
	}
	return core.WrapError(core.ErrLLMFailed, fmt.Errorf("%s: %w", provider, err))
}

// ExtractJSON returns the outermost JSON object in a model reply, tolerating
// markdown code fences and surrounding prose.
func ExtractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return content[start : end+1], nil
}
