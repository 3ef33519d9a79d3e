package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/decision"
	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/metrics"
	"ev-fleet/optimizer/internal/remotecontrol"
)

// RecommendationStore persists issued recommendations and the commands they
// trigger.
type RecommendationStore interface {
	InsertRecommendation(ctx context.Context, vehicleID string, rec domain.Recommendation, batteryPct int, speedKmh float64) error
	InsertCommand(ctx context.Context, cmd remotecontrol.Command) error
}

// DedupStore suppresses repeat recommendations for a vehicle inside the
// dedup window and fans dispatched commands out to subscribers.
type DedupStore interface {
	CheckRecommendationDedup(ctx context.Context, vehicleID string, rec domain.Recommendation) (bool, error)
	SetRecommendationDedup(ctx context.Context, vehicleID string, rec domain.Recommendation) error
	PublishCommand(ctx context.Context, payload []byte) error
}

// DecisionWorker classifies each snapshot and turns non-normal
// recommendations into recorded, dispatched remote-control commands.
// Failures abort the one snapshot that hit them; the worker keeps going.
type DecisionWorker struct {
	ch     <-chan *domain.TelemetrySnapshot
	engine *decision.Engine
	db     RecommendationStore
	redis  DedupStore
	logger *zerolog.Logger
}

func NewDecisionWorker(
	ch <-chan *domain.TelemetrySnapshot,
	engine *decision.Engine,
	db RecommendationStore,
	redis DedupStore,
	logger *zerolog.Logger,
) *DecisionWorker {
	return &DecisionWorker{
		ch:     ch,
		engine: engine,
		db:     db,
		redis:  redis,
		logger: logger,
	}
}

func (w *DecisionWorker) Run(ctx context.Context) {
	for {
		select {
		case snap, ok := <-w.ch:
			if !ok {
				return
			}
			w.process(context.Background(), snap)

		case <-ctx.Done():
			return
		}
	}
}

func (w *DecisionWorker) process(ctx context.Context, snap *domain.TelemetrySnapshot) {
	rec := w.engine.Evaluate(snap)
	if rec == domain.RecommendNormalOperation {
		return
	}

	isDuplicate, err := w.redis.CheckRecommendationDedup(ctx, snap.VehicleID, rec)
	if err != nil {
		w.logger.Warn().Err(err).Str("vehicle", snap.VehicleID).Msg("dedup check failed")
		return
	}
	if isDuplicate {
		return
	}

	if err := w.db.InsertRecommendation(ctx, snap.VehicleID, rec, snap.BatteryPct, snap.SpeedKmh); err != nil {
		w.logger.Error().Err(err).Str("vehicle", snap.VehicleID).Msg("recommendation insert failed")
		return
	}
	metrics.RecommendationsIssued.Add(1)

	if err := w.redis.SetRecommendationDedup(ctx, snap.VehicleID, rec); err != nil {
		w.logger.Warn().Err(err).Str("vehicle", snap.VehicleID).Msg("dedup set failed")
	}

	w.logger.Info().
		Str("vehicle", snap.VehicleID).
		Str("recommendation", string(rec)).
		Int("battery_pct", snap.BatteryPct).
		Float64("speed_kmh", snap.SpeedKmh).
		Msg("recommendation issued")

	action, ok := remotecontrol.ActionFor(rec)
	if !ok {
		return
	}

	cmd := remotecontrol.NewCommand(snap.VehicleID, action)
	if err := w.db.InsertCommand(ctx, cmd); err != nil {
		w.logger.Error().Err(err).Str("command", cmd.ID).Msg("command insert failed")
		return
	}

	payload, _ := json.Marshal(cmd)
	if err := w.redis.PublishCommand(ctx, payload); err != nil {
		w.logger.Warn().Err(err).Str("command", cmd.ID).Msg("command publish failed")
	}
	metrics.CommandsDispatched.Add(1)
}
