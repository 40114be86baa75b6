package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/llm"
)

func TestOpenAIClientChat(t *testing.T) {
	var got struct {
		Model       string        `json:"model"`
		Messages    []llm.Message `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Rivian leads.  "}}]}`))
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient(llm.Settings{APIKey: "secret", BaseURL: srv.URL + "/v1/", Model: "test-model", Temperature: 0.2, MaxTokens: 256})
	require.NoError(t, err)

	reply, err := client.Chat(context.Background(), []llm.Message{llm.System("be brief"), llm.User("who leads?")})
	require.NoError(t, err)
	require.Equal(t, "Rivian leads.", reply.Content)

	require.Equal(t, "test-model", got.Model)
	require.Equal(t, 256, got.MaxTokens)
	require.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.Equal(t, []llm.Message{{Role: llm.RoleSystem, Content: "be brief"}, {Role: llm.RoleUser, Content: "who leads?"}}, got.Messages)
}

func TestOpenAIClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "status", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`, wantErr: llm.ErrUnexpectedStatus},
		{name: "api error", status: http.StatusOK, body: `{"error":{"message":"bad model"}}`, wantErr: llm.ErrUnexpectedStatus},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: llm.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := llm.NewOpenAIClient(llm.Settings{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = client.Chat(context.Background(), []llm.Message{llm.User("hi")})
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestOpenAIClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, err := llm.NewOpenAIClient(llm.Settings{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Chat(context.Background(), []llm.Message{llm.User("hi")})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestNewRequiresKeyAndKnownProvider(t *testing.T) {
	_, err := llm.New(context.Background(), llm.Settings{Provider: "openai"})
	require.ErrorIs(t, err, llm.ErrNoAPIKey)

	_, err = llm.New(context.Background(), llm.Settings{Provider: "gemini"})
	require.ErrorIs(t, err, llm.ErrNoAPIKey)

	_, err = llm.New(context.Background(), llm.Settings{Provider: "claude", APIKey: "k"})
	require.ErrorIs(t, err, llm.ErrUnknownProvider)

	client, err := llm.New(context.Background(), llm.Settings{APIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &llm.OpenAIClient{}, client)
}
