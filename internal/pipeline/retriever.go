package pipeline

import (
	"context"
	"log/slog"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

const TopicNews = "news"

// TopicsFor maps a mode to the search topics it covers.
func TopicsFor(mode models.Mode) []string {
	switch mode {
	case models.ModeNews:
		return []string{TopicNews}
	case models.ModeBlended:
		return []string{models.DefaultTopic, TopicNews}
	case models.ModeCompetitor:
		return []string{models.DefaultTopic}
	default:
		return nil
	}
}

// Retriever runs one search per topic of the query's mode.
type Retriever struct {
	search     retrieval.Searcher
	maxResults int
	log        *slog.Logger
}

func NewRetriever(search retrieval.Searcher, maxResults int, log *slog.Logger) *Retriever {
	return &Retriever{search: search, maxResults: maxResults, log: logger.OrDiscard(log)}
}

// Retrieve concatenates the results of every topic search in topic order.
// A failed topic contributes nothing and does not affect the others.
func (r *Retriever) Retrieve(ctx context.Context, query string, mode models.Mode) []models.SearchResult {
	var out []models.SearchResult
	for _, topic := range TopicsFor(mode) {
		results, err := r.search.Search(ctx, query, topic, r.maxResults)
		if err != nil {
			r.log.Warn("search failed", slog.String("topic", topic), slog.Any("err", err))
			continue
		}
		for _, res := range results {
			if res.Topic == "" {
				res.Topic = topic
			}
			out = append(out, res)
		}
	}
	return out
}
