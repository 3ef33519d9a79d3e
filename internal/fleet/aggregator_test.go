package fleet

import (
	"errors"
	"reflect"
	"testing"

	"ev-fleet/optimizer/internal/domain"
)

func snap(id string, battery int) domain.TelemetrySnapshot {
	return domain.TelemetrySnapshot{VehicleID: id, BatteryPct: battery}
}

func TestAggregate(t *testing.T) {
	batch := []domain.TelemetrySnapshot{
		snap("EV-101", 10),
		snap("EV-102", 30),
		snap("EV-103", 50),
	}

	summary, err := Aggregate(batch)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if summary.MeanBatteryPct != 30.0 {
		t.Errorf("MeanBatteryPct = %v, want 30.0", summary.MeanBatteryPct)
	}
	if want := []string{"EV-101"}; !reflect.DeepEqual(summary.LowBattery, want) {
		t.Errorf("LowBattery = %v, want %v", summary.LowBattery, want)
	}
	if summary.Suggestion != LowBatterySuggestion {
		t.Errorf("Suggestion = %q, want %q", summary.Suggestion, LowBatterySuggestion)
	}
	if summary.VehicleCount != 3 {
		t.Errorf("VehicleCount = %d, want 3", summary.VehicleCount)
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	_, err := Aggregate(nil)
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Aggregate(nil) error = %v, want ErrEmptyBatch", err)
	}

	_, err = Aggregate([]domain.TelemetrySnapshot{})
	if !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Aggregate(empty) error = %v, want ErrEmptyBatch", err)
	}
}

func TestAggregateNoLowBattery(t *testing.T) {
	batch := []domain.TelemetrySnapshot{
		snap("EV-101", 60),
		snap("EV-102", 80),
	}

	summary, err := Aggregate(batch)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(summary.LowBattery) != 0 {
		t.Errorf("LowBattery = %v, want empty", summary.LowBattery)
	}
	if summary.Suggestion != "" {
		t.Errorf("Suggestion = %q, want empty when no low-battery vehicles", summary.Suggestion)
	}
}

func TestAggregateBoundary(t *testing.T) {
	// Exactly 20% is not low.
	summary, err := Aggregate([]domain.TelemetrySnapshot{snap("EV-101", 20)})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(summary.LowBattery) != 0 {
		t.Errorf("LowBattery = %v, want empty at the 20%% boundary", summary.LowBattery)
	}
}

func TestAggregatePreservesInputOrder(t *testing.T) {
	batch := []domain.TelemetrySnapshot{
		snap("EV-103", 5),
		snap("EV-101", 50),
		snap("EV-102", 19),
		snap("EV-104", 0),
	}

	summary, err := Aggregate(batch)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if want := []string{"EV-103", "EV-102", "EV-104"}; !reflect.DeepEqual(summary.LowBattery, want) {
		t.Errorf("LowBattery = %v, want %v", summary.LowBattery, want)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	batch := []domain.TelemetrySnapshot{
		snap("EV-101", 10),
		snap("EV-102", 33),
		snap("EV-103", 77),
	}

	first, err := Aggregate(batch)
	if err != nil {
		t.Fatalf("first Aggregate: %v", err)
	}
	second, err := Aggregate(batch)
	if err != nil {
		t.Fatalf("second Aggregate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Aggregate differs: %+v vs %+v", first, second)
	}
}

func TestHistogram(t *testing.T) {
	batch := []domain.TelemetrySnapshot{
		snap("EV-101", 0),
		snap("EV-102", 9),
		snap("EV-103", 10),
		snap("EV-104", 55),
		snap("EV-105", 100),
	}

	counts := Histogram(batch, 10)
	if len(counts) != 10 {
		t.Fatalf("len(counts) = %d, want 10", len(counts))
	}
	if counts[0] != 2 {
		t.Errorf("counts[0] = %d, want 2 (battery 0 and 9)", counts[0])
	}
	if counts[9] != 1 {
		t.Errorf("counts[9] = %d, want 1 (battery 100 in last bucket)", counts[9])
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(batch) {
		t.Errorf("histogram total = %d, want %d", total, len(batch))
	}
}

func TestHistogramInvalidBins(t *testing.T) {
	if got := Histogram(nil, 0); got != nil {
		t.Errorf("Histogram(nil, 0) = %v, want nil", got)
	}
	if got := Histogram(nil, -1); got != nil {
		t.Errorf("Histogram(nil, -1) = %v, want nil", got)
	}
}
