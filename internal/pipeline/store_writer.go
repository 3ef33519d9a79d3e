package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/metrics"
)

// SnapshotStore is the slice of the Postgres store the writer needs.
type SnapshotStore interface {
	BatchInsert(ctx context.Context, snaps []*domain.TelemetrySnapshot) error
}

type StoreWriter struct {
	ch        <-chan *domain.TelemetrySnapshot
	db        SnapshotStore
	logger    *zerolog.Logger
	batchSize int
	flushMS   int
}

func NewStoreWriter(
	ch <-chan *domain.TelemetrySnapshot,
	db SnapshotStore,
	logger *zerolog.Logger,
	batchSize int,
	flushMS int,
) *StoreWriter {
	return &StoreWriter{
		ch:        ch,
		db:        db,
		logger:    logger,
		batchSize: batchSize,
		flushMS:   flushMS,
	}
}

func (w *StoreWriter) Run(ctx context.Context) {
	batch := make([]*domain.TelemetrySnapshot, 0, w.batchSize)
	ticker := time.NewTicker(time.Duration(w.flushMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(ctx, batch)
				}
				return
			}
			batch = append(batch, snap)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				// ctx is already cancelled; the shutdown flush needs its
				// own deadline or the insert fails before it starts.
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				w.flush(flushCtx, batch)
				cancel()
			}
			return
		}
	}
}

// flush tries the batch insert once more after a short pause before giving
// up; a failed batch is counted and dropped, never requeued.
func (w *StoreWriter) flush(ctx context.Context, batch []*domain.TelemetrySnapshot) {
	err := w.db.BatchInsert(ctx, batch)
	if err != nil {
		w.logger.Warn().Err(err).Int("batch", len(batch)).Msg("store write failed, retrying")
		time.Sleep(500 * time.Millisecond)
		err = w.db.BatchInsert(ctx, batch)
		if err != nil {
			w.logger.Error().Err(err).Int("batch", len(batch)).Msg("store write permanently failed")
			metrics.StoreWriteFailures.Add(int64(len(batch)))
			return
		}
	}
	metrics.StoreWriteSuccess.Add(int64(len(batch)))
}
