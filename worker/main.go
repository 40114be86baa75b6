package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/intel-radar/backend/internal/app"
	"github.com/DeafMist/intel-radar/backend/internal/config"
	"github.com/DeafMist/intel-radar/backend/internal/dedupe"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

// digestJob is one request on the jobs topic.
type digestJob struct {
	ID          string `json:"id"`
	Query       string `json:"query"`
	SubmittedAt string `json:"submitted_at"`
}

// digestResult is published to the results topic keyed by job id.
type digestResult struct {
	ID          string          `json:"id"`
	Query       string          `json:"query"`
	Response    models.Response `json:"response"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

type digester interface {
	Run(ctx context.Context, query string) models.Response
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

const dlqAttempts = 5

var dlqBackoff = time.Second

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := app.Build(ctx, &cfg.Services, log)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		os.Exit(1)
	}
	defer deps.Close()

	guard := dedupe.NewReplayGuard(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	defer reader.Close()

	results := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaResultTopic,
		Balancer:    &kafka.Hash{},
		MaxAttempts: 3,
	})
	defer results.Close()

	dlqTopic := cfg.KafkaTopic + "_dlq"
	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       dlqTopic,
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("result_topic", cfg.KafkaResultTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, deps.Controller, results, guard, cfg, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			if !deadLetter(ctx, log, dlqWriter, msg, err) {
				if ctx.Err() != nil {
					return
				}
				log.Error("DLQ write exhausted retries, message left uncommitted",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage runs one digest job and publishes its result. A job id that
// was already answered inside the replay window is acknowledged without work.
func processMessage(ctx context.Context, log *slog.Logger, digest digester, results messageWriter, guard *dedupe.ReplayGuard, cfg *config.Worker, msg kafka.Message) error {
	var job digestJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("decode job: %w", err)
	}

	query := strings.TrimSpace(job.Query)
	if query == "" {
		return errors.New("empty query")
	}

	id := strings.TrimSpace(job.ID)
	if id == "" {
		id = strings.TrimSpace(string(msg.Key))
	}
	if id == "" {
		id = uuid.NewString()
	}

	if !guard.Claim(id) {
		log.Debug("duplicate job", slog.String("id", id))
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()
	resp := digest.Run(jobCtx, query)

	result := digestResult{
		ID:          id,
		Query:       query,
		Response:    resp,
		CompletedAt: time.Now().UTC(),
	}
	if ts := parseTimestamp(job.SubmittedAt); !ts.IsZero() {
		result.SubmittedAt = &ts
	}

	value, err := json.Marshal(result)
	if err != nil {
		guard.Release(id)
		return fmt.Errorf("encode result: %w", err)
	}
	if err := results.WriteMessages(ctx, kafka.Message{Key: []byte(id), Value: value}); err != nil {
		guard.Release(id)
		return fmt.Errorf("publish result: %w", err)
	}

	log.Info("digest published", slog.String("id", id), slog.String("status", resp.Status))
	return nil
}

// deadLetter copies msg to the DLQ with the failure attached, retrying with
// exponential backoff. It reports whether the write succeeded.
func deadLetter(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range dlqAttempts {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := dlqBackoff << uint(attempt)
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts.UTC()
		}
	}

	return time.Time{}
}
