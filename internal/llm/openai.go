package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultTimeout       = 60 * time.Second
	maxErrorBody         = 512
)

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	httpClient  *http.Client
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient validates s and builds the client.
func NewOpenAIClient(s Settings) (*OpenAIClient, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := s.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIClient{
		apiKey:      s.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: s.Temperature,
		maxTokens:   s.MaxTokens,
		timeout:     timeout,
		httpClient:  &http.Client{},
	}, nil
}

// Chat sends messages and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (Reply, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(openAIRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Reply{}, fmt.Errorf("%w: status %d: %s", ErrUnexpectedStatus, resp.StatusCode, snippet(body))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Reply{}, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return Reply{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Reply{}, ErrEmptyResponse
	}
	return Reply{Content: strings.TrimSpace(parsed.Choices[0].Message.Content)}, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
