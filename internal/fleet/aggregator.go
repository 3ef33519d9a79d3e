package fleet

import (
	"errors"

	"ev-fleet/optimizer/internal/decision"
	"ev-fleet/optimizer/internal/domain"
)

// ErrEmptyBatch is returned when aggregation is requested over zero
// snapshots. Failing loudly beats handing the caller a NaN mean.
var ErrEmptyBatch = errors.New("fleet: empty snapshot batch")

// LowBatterySuggestion is advisory text only; nothing machine-actionable
// hangs off it.
const LowBatterySuggestion = "increase charging frequency for low battery EVs"

// Summary is the fleet-wide view derived from one batch of snapshots.
// It is recomputed on every call and never cached.
type Summary struct {
	MeanBatteryPct float64  `json:"mean_battery_pct"`
	LowBattery     []string `json:"low_battery_vehicles"`
	Suggestion     string   `json:"suggestion,omitempty"`
	VehicleCount   int      `json:"vehicle_count"`
}

// Aggregate folds a batch of snapshots into a Summary. The batch is read
// only; callers keep ownership. The low-battery list preserves the order
// vehicles appeared in the batch, and the same batch always produces the
// same Summary.
func Aggregate(batch []domain.TelemetrySnapshot) (Summary, error) {
	if len(batch) == 0 {
		return Summary{}, ErrEmptyBatch
	}

	var total int
	var low []string
	for _, s := range batch {
		total += s.BatteryPct
		if s.BatteryPct < decision.LowBatteryPct {
			low = append(low, s.VehicleID)
		}
	}

	summary := Summary{
		MeanBatteryPct: float64(total) / float64(len(batch)),
		LowBattery:     low,
		VehicleCount:   len(batch),
	}
	if len(low) > 0 {
		summary.Suggestion = LowBatterySuggestion
	}
	return summary, nil
}

// Histogram counts battery levels into bins equal-width buckets over
// [0,100]. A 100% reading lands in the last bucket. Display consumers plot
// the result; this package only counts.
func Histogram(batch []domain.TelemetrySnapshot, bins int) []int {
	if bins <= 0 {
		return nil
	}
	counts := make([]int, bins)
	for _, s := range batch {
		i := s.BatteryPct * bins / 100
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return counts
}
