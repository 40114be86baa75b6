package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/DeafMist/intel-radar/backend/internal/llm"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/processing"
)

// Summarizer pulls the query-relevant part out of each document with one
// completion call per document.
type Summarizer struct {
	llm          llm.Client
	workers      int64
	unitTimeout  time.Duration
	stageTimeout time.Duration
	maxChars     int
	log          *slog.Logger
}

func NewSummarizer(client llm.Client, workers int, unitTimeout, stageTimeout time.Duration, maxChars int, log *slog.Logger) *Summarizer {
	if workers <= 0 {
		workers = 1
	}
	if unitTimeout <= 0 {
		unitTimeout = DefaultSettings().SummarizeTimeout
	}
	return &Summarizer{
		llm:          client,
		workers:      int64(workers),
		unitTimeout:  unitTimeout,
		stageTimeout: stageTimeout,
		maxChars:     maxChars,
		log:          logger.OrDiscard(log),
	}
}

type unitResult struct {
	topic   string
	excerpt models.Excerpt
	ok      bool
}

// Summarize returns the surviving excerpts grouped by document topic, in
// completion order. At most workers calls are awaited at once. A unit that
// outlives its timeout is dropped without retry; its siblings are unaffected.
// Once a unit stops waiting its slot is freed even if the remote call has not
// returned yet.
func (s *Summarizer) Summarize(ctx context.Context, query string, docs []models.Document) *models.TopicBuckets {
	buckets := models.NewTopicBuckets()
	if len(docs) == 0 {
		return buckets
	}

	stageCtx := ctx
	if s.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		defer cancel()
	}

	sem := semaphore.NewWeighted(s.workers)
	results := make(chan unitResult, len(docs))
	var wg sync.WaitGroup

	for _, doc := range docs {
		err := sem.Acquire(stageCtx, 1)
		if err == nil && stageCtx.Err() != nil {
			sem.Release(1)
			err = stageCtx.Err()
		}
		if err != nil {
			s.log.Warn("summarize stage deadline reached", slog.Any("err", err))
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results <- s.summarizeOne(stageCtx, query, doc)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.ok {
			buckets.Add(r.topic, r.excerpt)
		}
	}
	return buckets
}

type chatOutcome struct {
	text string
	err  error
}

func (s *Summarizer) summarizeOne(ctx context.Context, query string, doc models.Document) unitResult {
	unitCtx, cancel := context.WithTimeout(ctx, s.unitTimeout)
	defer cancel()

	messages := []llm.Message{
		llm.System(summarizeSystemPrompt),
		llm.User(summarizeUserPrompt(query, processing.Truncate(doc.Text, s.maxChars))),
	}

	// The call is not bound to the unit deadline. On timeout the unit stops
	// waiting and the provider's own timeout ends the call.
	callCtx := context.WithoutCancel(ctx)
	outcome := make(chan chatOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				outcome <- chatOutcome{err: fmt.Errorf("summarize panic: %v", p)}
			}
		}()
		reply, err := s.llm.Chat(callCtx, messages)
		outcome <- chatOutcome{text: reply.Content, err: err}
	}()

	select {
	case out := <-outcome:
		if out.err != nil {
			s.log.Warn("summarize call failed", slog.String("url", doc.URL), slog.Any("err", out.err))
			return unitResult{}
		}
		text := strings.TrimSpace(out.text)
		if !relevant(text) {
			return unitResult{}
		}
		return unitResult{topic: doc.Topic, excerpt: models.Excerpt{URL: doc.URL, Text: text}, ok: true}
	case <-unitCtx.Done():
		s.log.Warn("summarize unit timed out", slog.String("url", doc.URL), slog.Duration("timeout", s.unitTimeout))
		return unitResult{}
	}
}

func relevant(text string) bool {
	if text == "" {
		return false
	}
	if strings.EqualFold(strings.TrimRight(text, ".!"), NoRelevantInfo) {
		return false
	}
	return !processing.IsRefusal(text)
}
