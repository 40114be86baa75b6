package logstore_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/intel-radar/backend/internal/logstore"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

type memoryStore struct {
	mu      sync.Mutex
	records []models.Interaction
	err     error
}

func (m *memoryStore) Insert(ctx context.Context, rec models.Interaction) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func TestRecorderFillsIDAndTimestamp(t *testing.T) {
	store := &memoryStore{}
	rec := logstore.NewRecorder(store, nil, time.Second)

	rec.Record(context.Background(), models.Interaction{RunID: "run-1", Kind: models.KindQuery})
	rec.Record(context.Background(), models.Interaction{ID: "fixed", RunID: "run-1", Kind: models.KindResponse})
	rec.Wait()

	require.Len(t, store.records, 2)
	for _, got := range store.records {
		require.NotEmpty(t, got.ID)
		require.False(t, got.Timestamp.IsZero())
		if got.Kind == models.KindResponse {
			require.Equal(t, "fixed", got.ID)
		} else {
			require.NotEqual(t, "fixed", got.ID)
		}
	}
}

func TestRecorderDoesNotWaitForStore(t *testing.T) {
	release := make(chan struct{})
	store := logstore.Func(func(ctx context.Context, _ models.Interaction) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	rec := logstore.NewRecorder(store, nil, 5*time.Second)

	start := time.Now()
	rec.Record(context.Background(), models.Interaction{RunID: "run-5", Kind: models.KindQuery})
	require.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	rec.Wait()
}

func TestRecorderSwallowsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	rec := logstore.NewRecorder(&memoryStore{err: errors.New("disk full")}, log, time.Second)
	require.NotPanics(t, func() {
		rec.Record(context.Background(), models.Interaction{RunID: "run-2", Kind: models.KindQuery})
		rec.Wait()
	})
	require.Contains(t, buf.String(), "disk full")

	panicky := logstore.Func(func(context.Context, models.Interaction) error { panic("driver bug") })
	rec = logstore.NewRecorder(panicky, log, time.Second)
	require.NotPanics(t, func() {
		rec.Record(context.Background(), models.Interaction{RunID: "run-3", Kind: models.KindQuery})
		rec.Wait()
	})
	require.Contains(t, buf.String(), "driver bug")
}

func TestRecorderSurvivesCancelledContext(t *testing.T) {
	store := &memoryStore{}
	rec := logstore.NewRecorder(store, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, models.Interaction{RunID: "run-4", Kind: models.KindResponse})
	rec.Wait()
	require.Len(t, store.records, 1)
}

func TestNilRecorderAndNopStore(t *testing.T) {
	var rec *logstore.Recorder
	require.NotPanics(t, func() {
		rec.Record(context.Background(), models.Interaction{})
		rec.Wait()
	})

	rec = logstore.NewRecorder(nil, nil, 0)
	require.NotPanics(t, func() {
		rec.Record(context.Background(), models.Interaction{})
		rec.Wait()
	})
}

type fakeIndexer struct{ got []models.Interaction }

func (f *fakeIndexer) IndexInteraction(_ context.Context, rec models.Interaction) error {
	f.got = append(f.got, rec)
	return nil
}

func TestElasticAdapter(t *testing.T) {
	idx := &fakeIndexer{}
	store := logstore.Elastic(idx)
	require.NoError(t, store.Insert(context.Background(), models.Interaction{ID: "x"}))
	require.Equal(t, "x", idx.got[0].ID)
}
