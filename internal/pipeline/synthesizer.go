package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DeafMist/intel-radar/backend/internal/llm"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

// Synthesizer turns topic buckets into the final answer with a single call.
type Synthesizer struct {
	llm llm.Client
	log *slog.Logger
}

func NewSynthesizer(client llm.Client, log *slog.Logger) *Synthesizer {
	return &Synthesizer{llm: client, log: logger.OrDiscard(log)}
}

// Synthesize returns NoInfoAnswer without calling the model when buckets are
// empty, and also when the call fails or comes back empty.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, buckets *models.TopicBuckets) string {
	if buckets.Empty() {
		return NoInfoAnswer
	}

	reply, err := s.llm.Chat(ctx, []llm.Message{
		llm.System(synthesizeSystemPrompt),
		llm.User(synthesizeUserPrompt(query, buckets)),
	})
	if err != nil {
		s.log.Warn("synthesis call failed", slog.Any("err", err))
		return NoInfoAnswer
	}

	answer := strings.TrimSpace(reply.Content)
	if answer == "" {
		return NoInfoAnswer
	}
	return answer
}
