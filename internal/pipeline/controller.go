// Package pipeline runs a query through the digest state machine:
// classify, search, extract or crawl, aggregate and format.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/intel-radar/backend/internal/dedupe"
	"github.com/DeafMist/intel-radar/backend/internal/llm"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/logstore"
	"github.com/DeafMist/intel-radar/backend/internal/models"
	"github.com/DeafMist/intel-radar/backend/internal/retrieval"
)

// ErrEmptyQuery is reported when Run receives a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

type options struct {
	log      *slog.Logger
	store    logstore.Store
	settings Settings
	history  *History
	runID    func() string
}

// Option configures a Controller.
type Option func(*options)

func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithLogStore sets where query and response interactions are written.
func WithLogStore(store logstore.Store) Option {
	return func(o *options) { o.store = store }
}

func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithHistory shares a conversation history between controllers.
func WithHistory(h *History) Option {
	return func(o *options) { o.history = h }
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) Option {
	return func(o *options) { o.runID = fn }
}

// Controller sequences the pipeline stages for each query. It is safe for
// concurrent use; only the conversation history is shared between runs.
type Controller struct {
	classifier  *Classifier
	retriever   *Retriever
	extractor   *Extractor
	crawler     *Crawler
	dedupe      dedupe.Deduplicator
	summarizer  *Summarizer
	synthesizer *Synthesizer
	formatter   *Formatter
	recorder    *logstore.Recorder

	runID func() string
	log   *slog.Logger
}

// New assembles a Controller over the completion and retrieval services.
func New(client llm.Client, retriever retrieval.Client, opts ...Option) *Controller {
	o := options{settings: DefaultSettings(), runID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDiscard(o.log)
	s := o.settings
	if o.history == nil {
		o.history = NewHistory(s.HistorySize)
	}
	recorder := logstore.NewRecorder(o.store, log, s.RecordTimeout)

	return &Controller{
		classifier:  NewClassifier(client, o.history, recorder, log),
		retriever:   NewRetriever(retriever, s.MaxSearchResults, log),
		extractor:   NewExtractor(retriever, log),
		crawler:     NewCrawler(retriever, s.CrawlWorkers, s.CrawlDepth, s.CrawlMaxPages, s.CrawlTimeout, log),
		dedupe:      dedupe.Deduplicator{Threshold: dedupe.DefaultThreshold, Limit: s.DedupeLimit},
		summarizer:  NewSummarizer(client, s.SummarizeWorkers, s.SummarizeTimeout, s.AggregateTimeout, s.MaxInputChars, log),
		synthesizer: NewSynthesizer(client, log),
		formatter:   NewFormatter(recorder, log),
		recorder:    recorder,

		runID: o.runID,
		log:   log,
	}
}

// Run processes one query. It never panics and only reports an error status
// for a blank query; stage faults come back as a success carrying the
// generic failure content.
func (c *Controller) Run(ctx context.Context, query string) models.Response {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Failure(ErrEmptyQuery.Error())
	}

	qc := &models.QueryContext{RunID: c.runID(), OriginalQuery: query}
	start := time.Now()

	state := StateClassify
	for state != StateDone {
		c.step(ctx, qc, state)
		state = Next(state, Transition{Terminal: qc.Terminal, High: len(qc.High), Mid: len(qc.Mid)})
	}

	if qc.Envelope == nil {
		qc.Envelope = failureEnvelope(qc)
	}

	c.log.Info("digest run finished",
		slog.String("run_id", qc.RunID),
		slog.String("mode", string(qc.Mode)),
		slog.String("strategy", qc.Strategy),
		slog.Int("documents", len(qc.Documents)),
		slog.Bool("errored", qc.Errored),
		slog.Duration("elapsed", time.Since(start)),
	)
	return models.Success(qc.Envelope)
}

// Wait blocks until the interaction log writes of finished runs are done.
func (c *Controller) Wait() {
	c.recorder.Wait()
}

// step runs one stage, turning a panic into the errored flag. Once errored,
// every stage but FORMAT passes through.
func (c *Controller) step(ctx context.Context, qc *models.QueryContext, state State) {
	if qc.Errored && state != StateFormat {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("pipeline stage failed",
				slog.String("run_id", qc.RunID),
				slog.String("stage", state.String()),
				slog.Any("err", fmt.Errorf("%v", p)),
			)
			qc.Errored = true
		}
	}()

	switch state {
	case StateClassify:
		c.classify(ctx, qc)
	case StateSearch:
		c.search(ctx, qc)
	case StateExtract:
		qc.Documents = c.extractor.Extract(ctx, qc.High)
	case StateCrawl:
		qc.Documents = c.crawler.Crawl(ctx, qc.Mid)
	case StateAggregate:
		c.aggregate(ctx, qc)
	case StateFormat:
		qc.Envelope = c.formatter.Format(ctx, qc)
	}
}

func (c *Controller) classify(ctx context.Context, qc *models.QueryContext) {
	cls := c.classifier.Classify(ctx, qc.RunID, qc.OriginalQuery)
	qc.Mode = cls.Mode
	qc.NormalizedQuery = cls.NormalizedQuery
	qc.Terminal = cls.Terminal
}

func (c *Controller) search(ctx context.Context, qc *models.QueryContext) {
	qc.Results = c.retriever.Retrieve(ctx, qc.NormalizedQuery, qc.Mode)
	routes := Route(qc.Results)
	qc.High, qc.Mid = routes.High, routes.Mid
	qc.Strategy = routes.Strategy()

	c.log.Debug("search routed",
		slog.String("run_id", qc.RunID),
		slog.Int("results", len(qc.Results)),
		slog.Int("high", len(qc.High)),
		slog.Int("mid", len(qc.Mid)),
		slog.String("strategy", qc.Strategy),
	)
}

func (c *Controller) aggregate(ctx context.Context, qc *models.QueryContext) {
	qc.Documents = c.dedupe.Filter(qc.Documents)
	if qc.Strategy == "" {
		qc.Strategy = StrategyNone
	}
	qc.Buckets = c.summarizer.Summarize(ctx, qc.NormalizedQuery, qc.Documents)
	qc.Answer = c.synthesizer.Synthesize(ctx, qc.NormalizedQuery, qc.Buckets)
}
