package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/processing"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

// Extractor fetches the high-score bucket in one batched call.
type Extractor struct {
	client retrieval.Extractor
	log    *slog.Logger
}

func NewExtractor(client retrieval.Extractor, log *slog.Logger) *Extractor {
	return &Extractor{client: client, log: logger.OrDiscard(log)}
}

// Extract returns a document per page with enough text. A failed call yields
// no documents; there is no crawl fallback.
func (e *Extractor) Extract(ctx context.Context, targets []models.Target) []models.Document {
	if len(targets) == 0 {
		return nil
	}

	urls := make([]string, 0, len(targets))
	topics := make(map[string]string, len(targets))
	for _, t := range targets {
		urls = append(urls, t.URL)
		if _, ok := topics[t.URL]; !ok {
			topics[t.URL] = t.Topic
		}
	}

	pages, err := e.client.Extract(ctx, urls)
	if err != nil {
		e.log.Warn("extract failed", slog.Int("urls", len(urls)), slog.Any("err", err))
		return nil
	}

	docs := make([]models.Document, 0, len(pages))
	for _, page := range pages {
		if !processing.HasContent(page.Text) {
			continue
		}
		topic := topics[page.URL]
		if topic == "" {
			topic = models.DefaultTopic
		}
		docs = append(docs, models.Document{
			URL:    page.URL,
			Topic:  topic,
			Text:   strings.TrimSpace(page.Text),
			Images: page.Images,
			Origin: models.OriginExtracted,
		})
	}

	e.log.Debug("extract done", slog.Int("requested", len(urls)), slog.Int("documents", len(docs)))
	return docs
}
