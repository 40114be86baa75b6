// Package retrieval searches the web and fetches page content for the digest
// pipeline.
package retrieval

import (
	"context"
	"errors"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

var (
	ErrNoAPIKey           = errors.New("retrieval api key not configured")
	ErrUnexpectedStatus   = errors.New("retrieval request failed")
	ErrSearchUnavailable  = errors.New("search backend not configured")
	ErrUnsupportedContent = errors.New("unsupported content type")
)

// Page is the content fetched for one URL.
type Page struct {
	URL    string   `json:"url"`
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
}

// Searcher runs a scored web search restricted to one topic.
type Searcher interface {
	Search(ctx context.Context, query, topic string, maxResults int) ([]models.SearchResult, error)
}

// Extractor fetches the content of a batch of URLs in one call.
type Extractor interface {
	Extract(ctx context.Context, urls []string) ([]Page, error)
}

// Crawler fetches a URL and pages linked from it.
type Crawler interface {
	Crawl(ctx context.Context, url string, depth, maxPages int) ([]Page, error)
}

// Client is the full retrieval surface used by the pipeline.
type Client interface {
	Searcher
	Extractor
	Crawler
}
