package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/config"
	"github.com/DeafMist/intel-radar/backend/internal/logger"
)

type stubPruner struct {
	maxAge    time.Duration
	batchSize int
	deadline  bool
	err       error
}

func (s *stubPruner) DeleteOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	s.maxAge, s.batchSize = maxAge, batchSize
	_, s.deadline = ctx.Deadline()
	return 3, s.err
}

func TestRunOncePassesRetentionSettings(t *testing.T) {
	p := &stubPruner{}
	cfg := &config.Retention{MaxAge: 48 * time.Hour, BatchSize: 250}

	runOnce(context.Background(), logger.Discard(), p, cfg)

	require.Equal(t, 48*time.Hour, p.maxAge)
	require.Equal(t, 250, p.batchSize)
	require.True(t, p.deadline)
}

func TestRunOnceSurvivesStoreErrors(t *testing.T) {
	p := &stubPruner{err: errors.New("cluster red")}
	require.NotPanics(t, func() {
		runOnce(context.Background(), logger.Discard(), p, &config.Retention{MaxAge: time.Hour, BatchSize: 1})
	})
}
