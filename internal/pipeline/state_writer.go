package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/domain"
)

// StateStore is the slice of the Redis store the writer needs.
type StateStore interface {
	PipelineStateUpdate(ctx context.Context, snap *domain.TelemetrySnapshot) error
}

type StateWriter struct {
	ch     <-chan *domain.TelemetrySnapshot
	redis  StateStore
	logger *zerolog.Logger
}

func NewStateWriter(
	ch <-chan *domain.TelemetrySnapshot,
	redis StateStore,
	logger *zerolog.Logger,
) *StateWriter {
	return &StateWriter{ch: ch, redis: redis, logger: logger}
}

func (w *StateWriter) Run(ctx context.Context) {
	batch := make([]*domain.TelemetrySnapshot, 0, 100)
	ticker := time.NewTicker(50 * time.Millisecond) // keeps the live view close to real time
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-w.ch:
			if !ok {
				w.flushBatch(ctx, batch)
				return
			}
			batch = append(batch, snap)
			if len(batch) >= 100 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flushBatch(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				// ctx is already cancelled; the shutdown flush needs its
				// own deadline or every update fails before it starts.
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				w.flushBatch(flushCtx, batch)
				cancel()
			}
			return
		}
	}
}

func (w *StateWriter) flushBatch(ctx context.Context, batch []*domain.TelemetrySnapshot) {
	for _, snap := range batch {
		if err := w.redis.PipelineStateUpdate(ctx, snap); err != nil {
			w.logger.Warn().Err(err).Str("vehicle", snap.VehicleID).Msg("state update failed")
		}
	}
}
