package domain

import "time"

// ChargeStatus reports whether the vehicle is drawing from or feeding the
// battery at the moment the snapshot was taken.
type ChargeStatus string

const (
	StatusCharging    ChargeStatus = "charging"
	StatusDischarging ChargeStatus = "discharging"
)

// TelemetrySnapshot is one point-in-time reading from a single vehicle.
// Snapshots are immutable once normalized; the pipeline never writes back
// into one after it has been dispatched.
type TelemetrySnapshot struct {
	VehicleID string `json:"vehicle_id"`

	BatteryPct int     `json:"battery_pct"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SpeedKmh   float64 `json:"speed_kmh"`
	TempC      float64 `json:"temp_c"`

	ChargeStatus ChargeStatus `json:"charge_status"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Normalize clamps fields to their documented ranges: battery to [0,100]
// and speed to non-negative. Miscalibrated sensors do report values
// outside those ranges.
func (s *TelemetrySnapshot) Normalize() {
	if s.BatteryPct < 0 {
		s.BatteryPct = 0
	}
	if s.BatteryPct > 100 {
		s.BatteryPct = 100
	}
	if s.SpeedKmh < 0 {
		s.SpeedKmh = 0
	}
}

// Recommendation is the operational classification of one snapshot.
type Recommendation string

const (
	RecommendRouteToCharging Recommendation = "route_to_charging"
	RecommendReduceSpeed     Recommendation = "reduce_speed"
	RecommendNormalOperation Recommendation = "normal_operation"
)
