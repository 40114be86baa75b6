// Package app assembles the digest pipeline and its backing services from
// configuration. Every binary goes through Build so they share one wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/DeafMist/intel-radar/backend/internal/config"
	"github.com/DeafMist/intel-radar/backend/internal/elasticsearch"
	"github.com/DeafMist/intel-radar/backend/internal/llm"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/logstore"
	"github.com/DeafMist/intel-radar/backend/internal/pipeline"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

// Deps are the long-lived objects a binary needs.
type Deps struct {
	Controller *pipeline.Controller
	// Elastic is set when interactions are logged to Elasticsearch.
	Elastic *elasticsearch.Client
	// Postgres is set when interactions are logged to Postgres.
	Postgres *logstore.Postgres
	Search   *retrieval.CachedClient
}

// Build connects the log store, the completion provider and the retrieval
// backend, then returns a ready Controller.
func Build(ctx context.Context, cfg *config.Services, log *slog.Logger) (*Deps, error) {
	log = logger.OrDiscard(log)
	deps := &Deps{}

	store, err := deps.openLogStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client, err := llm.New(ctx, llm.Settings{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("llm client: %w", err)
	}

	search, err := NewRetrieval(cfg.Retrieval, log)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Search = search

	deps.Controller = pipeline.New(client, search,
		pipeline.WithLogger(log),
		pipeline.WithLogStore(store),
		pipeline.WithSettings(cfg.Pipeline),
	)
	return deps, nil
}

// NewRetrieval builds the configured retrieval backend behind a search cache.
// The direct backend fetches pages itself but still searches through Tavily
// when a key is configured.
func NewRetrieval(cfg config.Retrieval, log *slog.Logger) (*retrieval.CachedClient, error) {
	log = logger.OrDiscard(log)
	var base retrieval.Client
	switch cfg.Backend {
	case config.RetrievalDirect:
		opts := []retrieval.DirectOption{
			retrieval.WithLogger(log),
			retrieval.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			retrieval.WithFetchWorkers(cfg.FetchWorkers),
			retrieval.WithMaxBodyBytes(cfg.MaxBodyBytes),
		}
		if cfg.TavilyAPIKey != "" {
			tavily, err := retrieval.NewTavilyClient(cfg.TavilyAPIKey, cfg.TavilyBaseURL, cfg.Timeout)
			if err != nil {
				return nil, fmt.Errorf("tavily client: %w", err)
			}
			opts = append(opts, retrieval.WithSearcher(tavily))
		} else {
			log.Warn("direct retrieval without TAVILY_API_KEY: search is disabled")
		}
		base = retrieval.NewDirectClient(opts...)
	default:
		tavily, err := retrieval.NewTavilyClient(cfg.TavilyAPIKey, cfg.TavilyBaseURL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("tavily client: %w", err)
		}
		base = tavily
	}

	cached, err := retrieval.NewCachedClient(base, cfg.SearchCacheSize, cfg.SearchCacheTTL)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func (d *Deps) openLogStore(ctx context.Context, cfg *config.Services, log *slog.Logger) (logstore.Store, error) {
	switch cfg.LogBackend {
	case config.LogBackendElasticsearch:
		es, err := elasticsearch.Connect(ctx, cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log, elasticsearch.DefaultConnectOptions())
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("elasticsearch index: %w", err)
		}
		d.Elastic = es
		return logstore.Elastic(es), nil
	case config.LogBackendPostgres:
		pg, err := logstore.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		d.Postgres = pg
		return pg, nil
	default:
		log.Info("interaction logging disabled")
		return logstore.Nop{}, nil
	}
}

// Health reports whether the interaction log backend is reachable.
func (d *Deps) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	switch {
	case d.Elastic != nil:
		return d.Elastic.Health(ctx)
	case d.Postgres != nil:
		return d.Postgres.Ping(ctx)
	}
	return nil
}

// Close waits for pending interaction log writes, then releases connections
// held by the log store.
func (d *Deps) Close() error {
	if d.Controller != nil {
		d.Controller.Wait()
	}
	var errs []error
	if d.Postgres != nil {
		errs = append(errs, d.Postgres.Close())
	}
	return errors.Join(errs...)
}
