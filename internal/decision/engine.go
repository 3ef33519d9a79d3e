package decision

import "ev-fleet/optimizer/internal/domain"

// Operational thresholds. Battery uses strict less-than and speed strict
// greater-than: a vehicle at exactly 20% or exactly 70 km/h is normal.
const (
	LowBatteryPct = 20
	SpeedLimitKmh = 70.0
)

// Rule pairs a recommendation with the predicate that triggers it.
type Rule struct {
	Recommendation domain.Recommendation
	Match          func(s *domain.TelemetrySnapshot) bool
}

// DefaultRules is evaluated in order; the first match wins. Low battery
// outranks speeding: a vehicle that is both low and fast is routed to a
// charger, not slowed down.
var DefaultRules = []Rule{
	{
		Recommendation: domain.RecommendRouteToCharging,
		Match: func(s *domain.TelemetrySnapshot) bool {
			return s.BatteryPct < LowBatteryPct
		},
	},
	{
		Recommendation: domain.RecommendReduceSpeed,
		Match: func(s *domain.TelemetrySnapshot) bool {
			return s.SpeedKmh > SpeedLimitKmh
		},
	},
}

// Engine classifies single snapshots. It holds no state between calls and
// is safe to share across goroutines.
type Engine struct {
	rules []Rule
}

// NewEngine returns an engine using DefaultRules.
func NewEngine() *Engine {
	return &Engine{rules: DefaultRules}
}

// NewEngineWithRules returns an engine with a caller-supplied rule order.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Evaluate returns exactly one recommendation for the snapshot. It is total:
// any well-formed snapshot classifies, falling through to normal operation.
func (e *Engine) Evaluate(s *domain.TelemetrySnapshot) domain.Recommendation {
	for _, r := range e.rules {
		if r.Match(s) {
			return r.Recommendation
		}
	}
	return domain.RecommendNormalOperation
}
