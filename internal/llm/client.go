// Package llm talks to the chat-completion providers used by the digest
// pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoAPIKey         = errors.New("llm api key not configured")
	ErrEmptyResponse    = errors.New("llm returned no completion")
	ErrUnexpectedStatus = errors.New("llm request failed")
	ErrUnknownProvider  = errors.New("unknown llm provider")
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Reply is the assistant's answer to a chat request.
type Reply struct {
	Content string
}

// Client is any chat-completion backend.
type Client interface {
	Chat(ctx context.Context, messages []Message) (Reply, error)
}

// System and User build single messages.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Settings configures a provider client.
type Settings struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// New builds the client for s.Provider.
func New(ctx context.Context, s Settings) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(s)
	case ProviderGemini:
		return NewGeminiClient(ctx, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
}

// withDefaultTimeout bounds ctx by timeout unless the caller already set a deadline.
func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
