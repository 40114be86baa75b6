package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

const (
	defaultFetchWorkers = 4
	defaultMaxBodyBytes = 2 << 20
	userAgent           = "intel-radar/1.0 (+https://github.com/DeafMist/intel-radar)"
)

// DirectClient fetches pages itself over HTTP. Search is delegated to an
// optional Searcher since there is no search index behind it.
type DirectClient struct {
	httpClient   *http.Client
	searcher     Searcher
	fetchWorkers int
	maxBodyBytes int64
	log          *slog.Logger
}

// DirectOption configures a DirectClient.
type DirectOption func(*DirectClient)

func WithHTTPClient(c *http.Client) DirectOption {
	return func(d *DirectClient) { d.httpClient = c }
}

func WithSearcher(s Searcher) DirectOption {
	return func(d *DirectClient) { d.searcher = s }
}

func WithFetchWorkers(n int) DirectOption {
	return func(d *DirectClient) {
		if n > 0 {
			d.fetchWorkers = n
		}
	}
}

func WithMaxBodyBytes(n int64) DirectOption {
	return func(d *DirectClient) {
		if n > 0 {
			d.maxBodyBytes = n
		}
	}
}

func WithLogger(log *slog.Logger) DirectOption {
	return func(d *DirectClient) { d.log = log }
}

// NewDirectClient builds a client with sane defaults.
func NewDirectClient(opts ...DirectOption) *DirectClient {
	d := &DirectClient{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		fetchWorkers: defaultFetchWorkers,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logger.OrDiscard(d.log)
	return d
}

// Search delegates to the configured Searcher.
func (d *DirectClient) Search(ctx context.Context, query, topic string, maxResults int) ([]models.SearchResult, error) {
	if d.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	return d.searcher.Search(ctx, query, topic, maxResults)
}

// Extract fetches urls concurrently. Pages that fail to load are skipped; the
// result keeps input order.
func (d *DirectClient) Extract(ctx context.Context, urls []string) ([]Page, error) {
	pages := make([]*Page, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.fetchWorkers)
	for i, raw := range urls {
		g.Go(func() error {
			page, _, err := d.fetch(gctx, raw)
			if err != nil {
				d.log.Debug("extract fetch failed", slog.String("url", raw), slog.Any("err", err))
				return nil
			}
			pages[i] = &page
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Page, 0, len(urls))
	for _, p := range pages {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Crawl walks same-host links breadth first from start, visiting at most
// maxPages pages no more than depth links away. A failure on the start page is
// returned; failures on linked pages are skipped.
func (d *DirectClient) Crawl(ctx context.Context, start string, depth, maxPages int) ([]Page, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	if depth < 0 {
		depth = 0
	}

	root, err := url.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("parse crawl url: %w", err)
	}

	type queued struct {
		url   string
		level int
	}
	queue := []queued{{url: start}}
	visited := map[string]struct{}{start: {}}
	var pages []Page

	for len(queue) > 0 && len(pages) < maxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		next := queue[0]
		queue = queue[1:]

		page, links, err := d.fetch(ctx, next.url)
		if err != nil {
			if next.level == 0 {
				return nil, err
			}
			d.log.Debug("crawl fetch failed", slog.String("url", next.url), slog.Any("err", err))
			continue
		}
		pages = append(pages, page)

		if next.level >= depth {
			continue
		}
		for _, link := range links {
			u, err := url.Parse(link)
			if err != nil || !strings.EqualFold(u.Host, root.Host) {
				continue
			}
			if _, ok := visited[link]; ok {
				continue
			}
			visited[link] = struct{}{}
			queue = append(queue, queued{url: link, level: next.level + 1})
		}
	}
	return pages, nil
}

func (d *DirectClient) fetch(ctx context.Context, raw string) (Page, []string, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return Page{}, nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return Page{}, nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	started := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Page{}, nil, fmt.Errorf("fetch %s: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, nil, fmt.Errorf("%w: fetch %s status %d", ErrUnexpectedStatus, raw, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, d.maxBodyBytes)
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "html") {
		if !strings.HasPrefix(ct, "text/") {
			return Page{}, nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, ct)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return Page{}, nil, fmt.Errorf("read %s: %w", raw, err)
		}
		return Page{URL: raw, Text: strings.TrimSpace(string(data))}, nil, nil
	}

	parsed := parseHTML(body, base)
	d.log.Debug("page fetched",
		slog.String("url", raw),
		slog.Int("chars", len(parsed.text)),
		slog.Duration("took", time.Since(started)),
	)
	return Page{URL: raw, Text: parsed.text, Images: parsed.images}, parsed.links, nil
}
