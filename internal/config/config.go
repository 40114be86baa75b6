package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

const (
	LogBackendElasticsearch = "elasticsearch"
	LogBackendPostgres      = "postgres"
	LogBackendNone          = "none"

	RetrievalTavily = "tavily"
	RetrievalDirect = "direct"
)

// LLM configures the completion provider.
type LLM struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Retrieval configures web search and page fetching.
type Retrieval struct {
	Backend         string
	TavilyAPIKey    string
	TavilyBaseURL   string
	Timeout         time.Duration
	SearchCacheSize int
	SearchCacheTTL  time.Duration
	// FetchWorkers and MaxBodyBytes only apply to the direct backend.
	FetchWorkers int
	MaxBodyBytes int64
}

// Pipeline holds the digest pipeline tunables. Score thresholds are fixed
// and not configurable.
type Pipeline struct {
	HistorySize      int           `yaml:"history_size"`
	MaxSearchResults int           `yaml:"max_search_results"`
	CrawlWorkers     int           `yaml:"crawl_workers"`
	CrawlDepth       int           `yaml:"crawl_depth"`
	CrawlMaxPages    int           `yaml:"crawl_max_pages"`
	CrawlTimeout     time.Duration `yaml:"crawl_timeout"`
	SummarizeWorkers int           `yaml:"summarize_workers"`
	SummarizeTimeout time.Duration `yaml:"summarize_timeout"`
	AggregateTimeout time.Duration `yaml:"aggregate_timeout"`
	MaxInputChars    int           `yaml:"max_input_chars"`
	DedupeLimit      int           `yaml:"dedupe_limit"`
	RecordTimeout    time.Duration `yaml:"record_timeout"`
}

// Services is everything needed to assemble a digest pipeline.
type Services struct {
	Common
	LogBackend  string
	PostgresDSN string
	LLM         LLM
	Retrieval   Retrieval
	Pipeline    Pipeline
}

// Worker holds configuration for the Kafka digest worker.
type Worker struct {
	Services
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaResultTopic string
	KafkaConsumer    string
	DedupeCapacity   int
	DedupeTTL        time.Duration
	BatchSize        int
	JobTimeout       time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Services
	BindAddr       string
	RequestTimeout time.Duration
	DefaultPage    int
	MaxPage        int
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	LogBackend  string
	PostgresDSN string
	Interval    time.Duration
	MaxAge      time.Duration
	BatchSize   int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "interactions"),
	}
}

func loadLogBackend() (string, string, error) {
	backend := strings.ToLower(getEnv("LOG_BACKEND", LogBackendElasticsearch))
	dsn := getEnv("POSTGRES_DSN", "")
	switch backend {
	case LogBackendElasticsearch, LogBackendNone:
	case LogBackendPostgres:
		if dsn == "" {
			return "", "", fmt.Errorf("POSTGRES_DSN is required when LOG_BACKEND=postgres")
		}
	default:
		return "", "", fmt.Errorf("LOG_BACKEND must be one of elasticsearch, postgres, none; got %q", backend)
	}
	return backend, dsn, nil
}

// LoadServices builds the shared pipeline configuration from environment
// variables, then applies PIPELINE_CONFIG_FILE when set.
func LoadServices() (*Services, error) {
	backend, dsn, err := loadLogBackend()
	if err != nil {
		return nil, err
	}

	c := &Services{
		Common:      loadCommon(),
		LogBackend:  backend,
		PostgresDSN: dsn,
		LLM: LLM{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", ""),
			Temperature: getFloat("LLM_TEMPERATURE", 0.2),
			MaxTokens:   getInt("LLM_MAX_TOKENS", 1024),
			Timeout:     getDuration("LLM_TIMEOUT", "60s"),
		},
		Retrieval: Retrieval{
			Backend:         strings.ToLower(getEnv("RETRIEVAL_BACKEND", RetrievalTavily)),
			TavilyAPIKey:    getEnv("TAVILY_API_KEY", ""),
			TavilyBaseURL:   getEnv("TAVILY_BASE_URL", "https://api.tavily.com"),
			Timeout:         getDuration("RETRIEVAL_TIMEOUT", "30s"),
			SearchCacheSize: getInt("SEARCH_CACHE_SIZE", 256),
			SearchCacheTTL:  getDuration("SEARCH_CACHE_TTL", "10m"),
			FetchWorkers:    getInt("RETRIEVAL_FETCH_WORKERS", 4),
			MaxBodyBytes:    int64(getInt("RETRIEVAL_MAX_BODY_BYTES", 2<<20)),
		},
		Pipeline: loadPipeline(),
	}
	c.LLM.APIKey = llmKey(c.LLM.Provider)

	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be openai or gemini; got %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be within [0, 2]")
	}
	switch c.Retrieval.Backend {
	case RetrievalTavily, RetrievalDirect:
	default:
		return nil, fmt.Errorf("RETRIEVAL_BACKEND must be tavily or direct; got %q", c.Retrieval.Backend)
	}
	if c.Retrieval.SearchCacheSize < 0 {
		return nil, fmt.Errorf("SEARCH_CACHE_SIZE cannot be negative")
	}
	if c.Retrieval.FetchWorkers <= 0 || c.Retrieval.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_FETCH_WORKERS and RETRIEVAL_MAX_BODY_BYTES must be positive")
	}

	if path := getEnv("PIPELINE_CONFIG_FILE", ""); path != "" {
		if err := ApplyPipelineFile(&c.Pipeline, path); err != nil {
			return nil, err
		}
	}
	if err := c.Pipeline.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func llmKey(provider string) string {
	if key := getEnv("LLM_API_KEY", ""); key != "" {
		return key
	}
	if provider == "gemini" {
		return getEnv("GEMINI_API_KEY", "")
	}
	return getEnv("OPENAI_API_KEY", "")
}

// DefaultPipeline returns the built-in tunables.
func DefaultPipeline() Pipeline {
	return Pipeline{
		HistorySize:      4,
		MaxSearchResults: 5,
		CrawlWorkers:     5,
		CrawlDepth:       1,
		CrawlMaxPages:    3,
		CrawlTimeout:     8 * time.Second,
		SummarizeWorkers: 6,
		SummarizeTimeout: 10 * time.Second,
		MaxInputChars:    20000,
		DedupeLimit:      10,
		RecordTimeout:    3 * time.Second,
	}
}

func loadPipeline() Pipeline {
	d := DefaultPipeline()
	return Pipeline{
		HistorySize:      getInt("PIPELINE_HISTORY_SIZE", d.HistorySize),
		MaxSearchResults: getInt("PIPELINE_MAX_SEARCH_RESULTS", d.MaxSearchResults),
		CrawlWorkers:     getInt("PIPELINE_CRAWL_WORKERS", d.CrawlWorkers),
		CrawlDepth:       getInt("PIPELINE_CRAWL_DEPTH", d.CrawlDepth),
		CrawlMaxPages:    getInt("PIPELINE_CRAWL_MAX_PAGES", d.CrawlMaxPages),
		CrawlTimeout:     getDuration("PIPELINE_CRAWL_TIMEOUT", d.CrawlTimeout.String()),
		SummarizeWorkers: getInt("PIPELINE_SUMMARIZE_WORKERS", d.SummarizeWorkers),
		SummarizeTimeout: getDuration("PIPELINE_SUMMARIZE_TIMEOUT", d.SummarizeTimeout.String()),
		AggregateTimeout: getDuration("PIPELINE_AGGREGATE_TIMEOUT", d.AggregateTimeout.String()),
		MaxInputChars:    getInt("PIPELINE_MAX_INPUT_CHARS", d.MaxInputChars),
		DedupeLimit:      getInt("PIPELINE_DEDUPE_LIMIT", d.DedupeLimit),
		RecordTimeout:    getDuration("PIPELINE_RECORD_TIMEOUT", d.RecordTimeout.String()),
	}
}

// Validate checks the tunables.
func (p Pipeline) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"history_size", p.HistorySize},
		{"max_search_results", p.MaxSearchResults},
		{"crawl_workers", p.CrawlWorkers},
		{"crawl_max_pages", p.CrawlMaxPages},
		{"summarize_workers", p.SummarizeWorkers},
		{"max_input_chars", p.MaxInputChars},
		{"dedupe_limit", p.DedupeLimit},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return fmt.Errorf("pipeline %s must be positive", f.name)
		}
	}
	if p.CrawlMaxPages > 3 {
		return fmt.Errorf("pipeline crawl_max_pages cannot exceed 3")
	}
	if p.CrawlDepth < 0 {
		return fmt.Errorf("pipeline crawl_depth cannot be negative")
	}
	if p.CrawlTimeout <= 0 || p.SummarizeTimeout <= 0 || p.RecordTimeout <= 0 {
		return fmt.Errorf("pipeline timeouts must be positive")
	}
	if p.AggregateTimeout < 0 {
		return fmt.Errorf("pipeline aggregate_timeout cannot be negative")
	}
	return nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	svc, err := LoadServices()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Services:         *svc,
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "digest_requests"),
		KafkaResultTopic: getEnv("KAFKA_RESULT_TOPIC", "digest_results"),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "digest-worker"),
		DedupeCapacity:   getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:        getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:        getInt("WORKER_BATCH_SIZE", 10),
		JobTimeout:       getDuration("WORKER_JOB_TIMEOUT", "2m"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.KafkaTopic == c.KafkaResultTopic {
		return nil, fmt.Errorf("KAFKA_RESULT_TOPIC must differ from KAFKA_TOPIC")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.JobTimeout <= 0 {
		return nil, fmt.Errorf("WORKER_JOB_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	svc, err := LoadServices()
	if err != nil {
		return nil, err
	}

	c := &API{
		Services:       *svc,
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		RequestTimeout: getDuration("API_REQUEST_TIMEOUT", "90s"),
		DefaultPage:    getInt("API_PAGE_SIZE", 20),
		MaxPage:        getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.RequestTimeout <= 0 {
		return nil, fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	backend, dsn, err := loadLogBackend()
	if err != nil {
		return nil, err
	}
	if backend == LogBackendNone {
		return nil, fmt.Errorf("retention needs LOG_BACKEND elasticsearch or postgres")
	}

	c := &Retention{
		Common:      loadCommon(),
		LogBackend:  backend,
		PostgresDSN: dsn,
		Interval:    getDuration("RETENTION_CRON", "24h"),
		MaxAge:      getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize:   getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
