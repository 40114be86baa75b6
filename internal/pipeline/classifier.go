package pipeline

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/DeafMist/intel-radar/backend/internal/llm"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/logstore"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/processing"
)

var greetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|good morning|good afternoon|good evening|greetings)\b`)

// Classification is the classifier's verdict on one query. For terminal modes
// NormalizedQuery holds the reply shown to the user.
type Classification struct {
	Mode            models.Mode
	NormalizedQuery string
	Terminal        bool
}

// Classifier assigns an intent mode to a query and rewrites it for search.
type Classifier struct {
	llm      llm.Client
	history  *History
	recorder *logstore.Recorder
	log      *slog.Logger
}

func NewClassifier(client llm.Client, history *History, recorder *logstore.Recorder, log *slog.Logger) *Classifier {
	return &Classifier{llm: client, history: history, recorder: recorder, log: logger.OrDiscard(log)}
}

// Classify never fails: a remote error or unreadable reply yields the
// irrelevant mode with its canned message.
func (c *Classifier) Classify(ctx context.Context, runID, query string) Classification {
	query = strings.TrimSpace(query)

	var cls Classification
	if greetingPattern.MatchString(query) {
		cls = Classification{Mode: models.ModeGreeting, NormalizedQuery: GreetingReply, Terminal: true}
	} else {
		cls = c.ask(ctx, query)
	}

	c.recorder.Record(ctx, models.Interaction{
		RunID:           runID,
		Kind:            models.KindQuery,
		OriginalQuery:   query,
		NormalizedQuery: cls.NormalizedQuery,
		Mode:            cls.Mode,
	})
	c.history.Add(Turn{Query: query, Reply: cls.NormalizedQuery})

	c.log.Debug("query classified",
		slog.String("run_id", runID),
		slog.String("mode", string(cls.Mode)),
		slog.Bool("terminal", cls.Terminal),
	)
	return cls
}

func (c *Classifier) ask(ctx context.Context, query string) Classification {
	fallback := Classification{Mode: models.ModeIrrelevant, NormalizedQuery: IrrelevantReply, Terminal: true}

	messages := []llm.Message{llm.System(classifySystemPrompt)}
	for _, turn := range c.history.Snapshot() {
		messages = append(messages, llm.User(turn.Query), llm.Assistant(turn.Reply))
	}
	messages = append(messages, llm.User(query))

	reply, err := c.llm.Chat(ctx, messages)
	if err != nil {
		c.log.Warn("classification call failed", slog.Any("err", err))
		return fallback
	}

	var parsed struct {
		Mode            string `json:"mode"`
		NormalizedQuery string `json:"normalized_query"`
	}
	if err := processing.DecodeObject(reply.Content, &parsed); err != nil {
		c.log.Warn("classification reply unreadable", slog.Any("err", err))
		return fallback
	}

	mode := models.Mode(strings.ToLower(strings.TrimSpace(parsed.Mode)))
	if !mode.Valid() {
		return fallback
	}

	normalized := strings.TrimSpace(parsed.NormalizedQuery)
	if mode.Terminal() {
		if normalized == "" {
			normalized = cannedReply(mode)
		}
		return Classification{Mode: mode, NormalizedQuery: normalized, Terminal: true}
	}
	if normalized == "" {
		normalized = query
	}
	return Classification{Mode: mode, NormalizedQuery: normalized}
}

func cannedReply(mode models.Mode) string {
	if mode == models.ModeGreeting {
		return GreetingReply
	}
	return IrrelevantReply
}
