package collector

import (
	"math/rand"
	"time"

	"ev-fleet/optimizer/internal/domain"
)

// Collector simulates the telematics devices: it produces pseudo-random
// snapshots in the ranges real devices report. Used by the simulate
// command and in tests; production snapshots arrive over HTTP or MQTT.
type Collector struct {
	rng *rand.Rand
}

func New(seed int64) *Collector {
	return &Collector{rng: rand.New(rand.NewSource(seed))}
}

// Snapshot fabricates one reading for the vehicle. Coordinates fall in the
// service area box (lat 34–36, lng -118.5 to -116).
func (c *Collector) Snapshot(vehicleID string) domain.TelemetrySnapshot {
	status := domain.StatusDischarging
	if c.rng.Intn(2) == 0 {
		status = domain.StatusCharging
	}

	return domain.TelemetrySnapshot{
		VehicleID:    vehicleID,
		BatteryPct:   c.rng.Intn(101),
		Latitude:     34.0 + c.rng.Float64()*2.0,
		Longitude:    -118.5 + c.rng.Float64()*2.5,
		SpeedKmh:     c.rng.Float64() * 80,
		TempC:        15 + c.rng.Float64()*15,
		ChargeStatus: status,
		Timestamp:    time.Now().UTC(),
	}
}

// Batch fabricates one snapshot per vehicle ID, in the given order.
func (c *Collector) Batch(vehicleIDs []string) []domain.TelemetrySnapshot {
	batch := make([]domain.TelemetrySnapshot, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		batch = append(batch, c.Snapshot(id))
	}
	return batch
}
