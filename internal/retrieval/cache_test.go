package retrieval_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

type countingClient struct {
	searches int
	fail     bool
}

func (c *countingClient) Search(_ context.Context, query, topic string, _ int) ([]models.SearchResult, error) {
	c.searches++
	if c.fail {
		return nil, errors.New("boom")
	}
	return []models.SearchResult{{URL: "https://x.example/" + query, Topic: topic, Score: 0.9}}, nil
}

func (c *countingClient) Extract(context.Context, []string) ([]retrieval.Page, error) {
	return []retrieval.Page{{URL: "e"}}, nil
}

func (c *countingClient) Crawl(context.Context, string, int, int) ([]retrieval.Page, error) {
	return []retrieval.Page{{URL: "c"}}, nil
}

func TestCachedClientSearch(t *testing.T) {
	next := &countingClient{}
	cached, err := retrieval.NewCachedClient(next, 8, time.Minute)
	require.NoError(t, err)

	first, err := cached.Search(context.Background(), "Rivian  News", "news", 5)
	require.NoError(t, err)
	first[0].Score = 0

	second, err := cached.Search(context.Background(), "rivian news", "news", 5)
	require.NoError(t, err)
	require.Equal(t, 1, next.searches)
	require.InDelta(t, 0.9, second[0].Score, 1e-9)

	_, err = cached.Search(context.Background(), "rivian news", "general", 5)
	require.NoError(t, err)
	require.Equal(t, 2, next.searches)
	require.Equal(t, 2, cached.Len())
}

func TestCachedClientExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := &countingClient{}
	cached, err := retrieval.NewCachedClient(next, 8, time.Minute)
	require.NoError(t, err)
	cached.SetClock(func() time.Time { return now })

	_, _ = cached.Search(context.Background(), "q", "general", 5)
	now = now.Add(2 * time.Minute)
	_, _ = cached.Search(context.Background(), "q", "general", 5)
	require.Equal(t, 2, next.searches)
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	next := &countingClient{fail: true}
	cached, err := retrieval.NewCachedClient(next, 8, time.Minute)
	require.NoError(t, err)

	_, err = cached.Search(context.Background(), "q", "general", 5)
	require.Error(t, err)
	_, err = cached.Search(context.Background(), "q", "general", 5)
	require.Error(t, err)
	require.Equal(t, 2, next.searches)
	require.Zero(t, cached.Len())
}

func TestCachedClientPassesThroughFetches(t *testing.T) {
	cached, err := retrieval.NewCachedClient(&countingClient{}, 0, 0)
	require.NoError(t, err)

	pages, err := cached.Extract(context.Background(), []string{"u"})
	require.NoError(t, err)
	require.Equal(t, "e", pages[0].URL)

	pages, err = cached.Crawl(context.Background(), "u", 1, 1)
	require.NoError(t, err)
	require.Equal(t, "c", pages[0].URL)
}
