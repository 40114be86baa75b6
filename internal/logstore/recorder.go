package logstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/intel-radar/backend/internal/logger"
	"github.com/DeafMist/intel-radar/backend/internal/models"
)

const defaultRecordTimeout = 3 * time.Second

// Recorder writes interaction records best-effort in the background. Failures
// and panics in the store are logged and never reach the caller.
type Recorder struct {
	store   Store
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
	pending sync.WaitGroup
}

// NewRecorder builds a Recorder. A nil store discards records.
func NewRecorder(store Store, log *slog.Logger, timeout time.Duration) *Recorder {
	if store == nil {
		store = Nop{}
	}
	if timeout <= 0 {
		timeout = defaultRecordTimeout
	}
	return &Recorder{store: store, log: logger.OrDiscard(log), timeout: timeout, now: time.Now}
}

// Record fills ID and Timestamp when empty and hands rec to the store without
// waiting for the write. The write gets its own timeout and outlives ctx.
func (r *Recorder) Record(ctx context.Context, rec models.Interaction) {
	if r == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now().UTC()
	}

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		if err := r.insert(ctx, rec); err != nil {
			r.log.Warn("interaction log write failed",
				slog.String("run_id", rec.RunID),
				slog.String("kind", string(rec.Kind)),
				slog.Any("err", err),
			)
		}
	}()
}

// Wait blocks until every write started by Record has finished.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.pending.Wait()
}

func (r *Recorder) insert(ctx context.Context, rec models.Interaction) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("log store panic: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	return r.store.Insert(ctx, rec)
}
