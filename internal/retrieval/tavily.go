package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com"
	defaultTimeout       = 30 * time.Second
	// MissingScore is assigned to search hits that come back without a score.
	MissingScore = 0.5
)

// TavilyClient implements Client against the Tavily REST API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTavilyClient builds a client. timeout bounds each request.
func NewTavilyClient(apiKey, baseURL string, timeout time.Duration) (*TavilyClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type searchRequest struct {
	Query             string `json:"query"`
	Topic             string `json:"topic"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type searchResponse struct {
	Results []struct {
		URL   string   `json:"url"`
		Title string   `json:"title"`
		Score *float64 `json:"score"`
	} `json:"results"`
}

// Search runs one topic-restricted search. Every result is tagged with topic.
func (c *TavilyClient) Search(ctx context.Context, query, topic string, maxResults int) ([]models.SearchResult, error) {
	if topic == "" {
		topic = models.DefaultTopic
	}
	var resp searchResponse
	err := c.post(ctx, "/search", searchRequest{
		Query:       query,
		Topic:       topic,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	}, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		score := MissingScore
		if r.Score != nil {
			score = *r.Score
		}
		results = append(results, models.SearchResult{URL: r.URL, Title: r.Title, Topic: topic, Score: score})
	}
	return results, nil
}

type extractRequest struct {
	URLs          []string `json:"urls"`
	ExtractDepth  string   `json:"extract_depth"`
	Format        string   `json:"format"`
	IncludeImages bool     `json:"include_images"`
}

type crawlRequest struct {
	URL           string `json:"url"`
	MaxDepth      int    `json:"max_depth"`
	Limit         int    `json:"limit"`
	ExtractDepth  string `json:"extract_depth"`
	Format        string `json:"format"`
	IncludeImages bool   `json:"include_images"`
}

type pagesResponse struct {
	Results []struct {
		URL        string   `json:"url"`
		RawContent string   `json:"raw_content"`
		Images     []string `json:"images"`
	} `json:"results"`
}

func (r pagesResponse) pages() []Page {
	pages := make([]Page, 0, len(r.Results))
	for _, item := range r.Results {
		pages = append(pages, Page{URL: item.URL, Text: item.RawContent, Images: item.Images})
	}
	return pages
}

// Extract fetches all urls in a single request.
func (c *TavilyClient) Extract(ctx context.Context, urls []string) ([]Page, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	var resp pagesResponse
	err := c.post(ctx, "/extract", extractRequest{
		URLs:          urls,
		ExtractDepth:  "basic",
		Format:        "markdown",
		IncludeImages: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.pages(), nil
}

// Crawl fetches url and up to maxPages pages reachable within depth links.
func (c *TavilyClient) Crawl(ctx context.Context, url string, depth, maxPages int) ([]Page, error) {
	var resp pagesResponse
	err := c.post(ctx, "/crawl", crawlRequest{
		URL:           url,
		MaxDepth:      depth,
		Limit:         maxPages,
		ExtractDepth:  "basic",
		Format:        "markdown",
		IncludeImages: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.pages(), nil
}

func (c *TavilyClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s status %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
