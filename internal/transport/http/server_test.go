package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/auth"
	"ev-fleet/optimizer/internal/config"
	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/fleet"
	"ev-fleet/optimizer/internal/pipeline"
	"ev-fleet/optimizer/internal/remotecontrol"
)

type memFleetSource struct {
	batch []domain.TelemetrySnapshot
}

func (m *memFleetSource) LatestSnapshots(ctx context.Context) ([]domain.TelemetrySnapshot, error) {
	return m.batch, nil
}

type memCommandSink struct {
	commands  []remotecontrol.Command
	published [][]byte
}

func (m *memCommandSink) InsertCommand(ctx context.Context, cmd remotecontrol.Command) error {
	m.commands = append(m.commands, cmd)
	return nil
}

func (m *memCommandSink) PublishCommand(ctx context.Context, payload []byte) error {
	m.published = append(m.published, payload)
	return nil
}

func newTestServer(fleetSrc FleetSource, sink CommandSink) *Server {
	logger := zerolog.Nop()
	cfg := &config.Config{ValidAPIKeys: []string{"test-key"}, AuthCacheTTLSeconds: 300}
	authMW := NewAuthMiddleware(auth.NewAuthenticator(cfg, noLookup{}))
	dispatcher := pipeline.NewDispatcher(16, 16, 16)
	return NewServer(dispatcher, fleetSrc, sink, nil, nil, authMW, &logger)
}

type noLookup struct{}

func (noLookup) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	return "", nil
}

func doJSON(t *testing.T, srv *Server, method, path, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIngestAccepted(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	body := `{"vehicle_id":"EV-101","battery_pct":150,"speed_kmh":-3,"charge_status":"charging"}`
	rec := doJSON(t, srv, http.MethodPost, "/telemetry", body, "test-key")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	snap := <-srv.dispatcher.StoreChan
	if snap.BatteryPct != 100 {
		t.Errorf("BatteryPct = %d, want clamped to 100", snap.BatteryPct)
	}
	if snap.SpeedKmh != 0 {
		t.Errorf("SpeedKmh = %v, want clamped to 0", snap.SpeedKmh)
	}
}

func TestIngestRequiresAPIKey(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodPost, "/telemetry", `{"vehicle_id":"EV-101"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without API key", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/telemetry", `{"vehicle_id":"EV-101"}`, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 with a bad API key", rec.Code)
	}
}

func TestIngestRejectsBadPayload(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodPost, "/telemetry", `{not json`, "test-key")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed JSON", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/telemetry", `{"battery_pct":50}`, "test-key")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when vehicle_id is missing", rec.Code)
	}
}

func TestCommandDispatch(t *testing.T) {
	sink := &memCommandSink{}
	srv := newTestServer(&memFleetSource{}, sink)

	body := `{"vehicle_id":"101","action":"start_charging"}`
	rec := doJSON(t, srv, http.MethodPost, "/commands", body, "test-key")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var cmd remotecontrol.Command
	if err := json.Unmarshal(rec.Body.Bytes(), &cmd); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(cmd.Description, "101") || !strings.Contains(cmd.Description, "started charging") {
		t.Errorf("Description = %q, want mention of the vehicle and effect", cmd.Description)
	}
	if len(sink.commands) != 1 {
		t.Errorf("recorded commands = %d, want 1", len(sink.commands))
	}
	if len(sink.published) != 1 {
		t.Errorf("published commands = %d, want 1", len(sink.published))
	}
}

func TestCommandInvalidActionSoftFailure(t *testing.T) {
	sink := &memCommandSink{}
	srv := newTestServer(&memFleetSource{}, sink)

	body := `{"vehicle_id":"101","action":"fly"}`
	rec := doJSON(t, srv, http.MethodPost, "/commands", body, "test-key")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (soft failure)", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["description"] != remotecontrol.InvalidAction {
		t.Errorf("description = %q, want sentinel %q", resp["description"], remotecontrol.InvalidAction)
	}
	if len(sink.commands) != 0 {
		t.Errorf("recorded commands = %d, want 0 for an invalid action", len(sink.commands))
	}
}

func TestFleetSummary(t *testing.T) {
	src := &memFleetSource{batch: []domain.TelemetrySnapshot{
		{VehicleID: "EV-101", BatteryPct: 10},
		{VehicleID: "EV-102", BatteryPct: 30},
		{VehicleID: "EV-103", BatteryPct: 50},
	}}
	srv := newTestServer(src, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodGet, "/fleet/summary", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var summary fleet.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.MeanBatteryPct != 30.0 {
		t.Errorf("MeanBatteryPct = %v, want 30.0", summary.MeanBatteryPct)
	}
	if len(summary.LowBattery) != 1 || summary.LowBattery[0] != "EV-101" {
		t.Errorf("LowBattery = %v, want [EV-101]", summary.LowBattery)
	}
}

func TestFleetSummaryEmptyFleet(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodGet, "/fleet/summary", "", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 for an empty fleet", rec.Code)
	}
}

func TestBatteryHistogram(t *testing.T) {
	src := &memFleetSource{batch: []domain.TelemetrySnapshot{
		{VehicleID: "EV-101", BatteryPct: 5},
		{VehicleID: "EV-102", BatteryPct: 95},
	}}
	srv := newTestServer(src, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodGet, "/fleet/battery-histogram?bins=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Bins   int   `json:"bins"`
		Counts []int `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Bins != 2 || len(resp.Counts) != 2 {
		t.Fatalf("bins = %d, counts = %v, want 2 buckets", resp.Bins, resp.Counts)
	}
	if resp.Counts[0] != 1 || resp.Counts[1] != 1 {
		t.Errorf("counts = %v, want [1 1]", resp.Counts)
	}

	rec = doJSON(t, srv, http.MethodGet, "/fleet/battery-histogram?bins=0", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bins=0", rec.Code)
	}
}

func TestROIEndpoint(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodGet, "/roi?investment=500000&maintenance=20000&fuel_savings=60000&charging_costs=10000", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["roi_percent"] != 6.0 {
		t.Errorf("roi_percent = %v, want 6.0", resp["roi_percent"])
	}
}

func TestROIEndpointZeroInvestment(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodGet, "/roi?fuel_savings=60000", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for zero investment", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&memFleetSource{}, &memCommandSink{})

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
