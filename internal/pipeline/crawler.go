package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/processing"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

// Crawler crawls the mid-score bucket on a fixed pool under one deadline.
type Crawler struct {
	client   retrieval.Crawler
	workers  int
	depth    int
	maxPages int
	timeout  time.Duration
	log      *slog.Logger
}

func NewCrawler(client retrieval.Crawler, workers, depth, maxPages int, timeout time.Duration, log *slog.Logger) *Crawler {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = DefaultSettings().CrawlTimeout
	}
	return &Crawler{
		client:   client,
		workers:  workers,
		depth:    depth,
		maxPages: maxPages,
		timeout:  timeout,
		log:      logger.OrDiscard(log),
	}
}

// Crawl returns documents in completion order. Crawls still running when the
// pool deadline passes are abandoned and contribute nothing; one failing URL
// does not affect the others.
func (c *Crawler) Crawl(ctx context.Context, targets []models.Target) []models.Document {
	if len(targets) == 0 {
		return nil
	}

	poolCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make(chan []models.Document, len(targets))
	done := make(chan struct{})

	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(c.workers)
		for _, target := range targets {
			if poolCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				docs := c.crawlOne(poolCtx, target)
				if poolCtx.Err() != nil {
					docs = nil
				}
				results <- docs
				return nil
			})
		}
		_ = g.Wait()
	}()

	var docs []models.Document
	drain := func() []models.Document {
		for {
			select {
			case batch := <-results:
				docs = append(docs, batch...)
			default:
				return docs
			}
		}
	}
	for {
		select {
		case batch := <-results:
			docs = append(docs, batch...)
		case <-done:
			return drain()
		case <-poolCtx.Done():
			c.log.Warn("crawl pool deadline reached", slog.Int("documents", len(docs)))
			return drain()
		}
	}
}

func (c *Crawler) crawlOne(ctx context.Context, target models.Target) (docs []models.Document) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("crawl panicked", slog.String("url", target.URL), slog.Any("err", fmt.Errorf("%v", p)))
			docs = nil
		}
	}()

	pages, err := c.client.Crawl(ctx, target.URL, c.depth, c.maxPages)
	if err != nil {
		c.log.Warn("crawl failed", slog.String("url", target.URL), slog.Any("err", err))
		return nil
	}

	for _, page := range pages {
		if !processing.HasContent(page.Text) {
			continue
		}
		url := page.URL
		if url == "" {
			url = target.URL
		}
		docs = append(docs, models.Document{
			URL:    url,
			Topic:  target.Topic,
			Text:   strings.TrimSpace(page.Text),
			Images: page.Images,
			Origin: models.OriginCrawled,
		})
	}
	return docs
}
