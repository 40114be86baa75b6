package retrieval

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

type searchEntry struct {
	results   []models.SearchResult
	expiresAt time.Time
}

// CachedClient memoizes successful searches per (query, topic, maxResults).
// Extract and Crawl pass straight through.
type CachedClient struct {
	Client
	cache *lru.Cache[[32]byte, *searchEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedClient wraps next with an LRU of size entries. Entries older than
// ttl are refetched; ttl <= 0 keeps them until evicted.
func NewCachedClient(next Client, size int, ttl time.Duration) (*CachedClient, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[[32]byte, *searchEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create search cache: %w", err)
	}
	return &CachedClient{Client: next, cache: cache, ttl: ttl, now: time.Now}, nil
}

// Search returns a cached copy when one is fresh.
func (c *CachedClient) Search(ctx context.Context, query, topic string, maxResults int) ([]models.SearchResult, error) {
	key := searchKey(query, topic, maxResults)
	if entry, ok := c.cache.Get(key); ok {
		if c.ttl <= 0 || c.now().Before(entry.expiresAt) {
			return cloneResults(entry.results), nil
		}
		c.cache.Remove(key)
	}

	results, err := c.Client.Search(ctx, query, topic, maxResults)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, &searchEntry{results: cloneResults(results), expiresAt: c.now().Add(c.ttl)})
	return results, nil
}

// Len returns the number of cached searches.
func (c *CachedClient) Len() int {
	return c.cache.Len()
}

func searchKey(query, topic string, maxResults int) [32]byte {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	return sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", normalized, topic, maxResults)))
}

func cloneResults(in []models.SearchResult) []models.SearchResult {
	if in == nil {
		return nil
	}
	out := make([]models.SearchResult, len(in))
	copy(out, in)
	return out
}
