package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/cloud"
	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/finance"
	"ev-fleet/optimizer/internal/fleet"
	"ev-fleet/optimizer/internal/metrics"
	"ev-fleet/optimizer/internal/pipeline"
	"ev-fleet/optimizer/internal/remotecontrol"
)

// FleetSource supplies the current batch of per-vehicle snapshots that
// fleet-level aggregation runs over.
type FleetSource interface {
	LatestSnapshots(ctx context.Context) ([]domain.TelemetrySnapshot, error)
}

// CommandSink records and fans out operator-issued commands.
type CommandSink interface {
	InsertCommand(ctx context.Context, cmd remotecontrol.Command) error
	PublishCommand(ctx context.Context, payload []byte) error
}

type Server struct {
	dispatcher *pipeline.Dispatcher
	fleetSrc   FleetSource
	commands   CommandSink
	cloud      *cloud.Client
	feed       *LiveFeed
	authMW     *AuthMiddleware
	logger     *zerolog.Logger
	mux        *http.ServeMux
}

func NewServer(
	dispatcher *pipeline.Dispatcher,
	fleetSrc FleetSource,
	commands CommandSink,
	cloudClient *cloud.Client,
	feed *LiveFeed,
	authMW *AuthMiddleware,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		dispatcher: dispatcher,
		fleetSrc:   fleetSrc,
		commands:   commands,
		cloud:      cloudClient,
		feed:       feed,
		authMW:     authMW,
		logger:     logger,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Handle("POST /telemetry", s.authMW.Wrap(http.HandlerFunc(s.handleIngest)))
	s.mux.Handle("POST /commands", s.authMW.Wrap(http.HandlerFunc(s.handleCommand)))
	s.mux.HandleFunc("GET /fleet/summary", s.handleFleetSummary)
	s.mux.HandleFunc("GET /fleet/battery-histogram", s.handleHistogram)
	s.mux.HandleFunc("GET /roi", s.handleROI)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /metrics", metrics.HandleMetrics)
	if s.feed != nil {
		s.mux.HandleFunc("GET /live", s.feed.Handle)
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var snap domain.TelemetrySnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot payload")
		return
	}
	if snap.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	snap.Normalize()
	metrics.SnapshotsReceived.Add(1)
	s.dispatcher.Dispatch(&snap)

	if s.cloud != nil {
		go s.cloud.Forward(context.Background(), &snap)
	}

	w.WriteHeader(http.StatusAccepted)
}

type commandRequest struct {
	VehicleID string `json:"vehicle_id"`
	Action    string `json:"action"`
}

// handleCommand serves operator-issued remote control. Unknown actions are
// a soft failure: the response carries the sentinel description and no
// command is recorded.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid command payload")
		return
	}
	if req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	action := remotecontrol.Action(req.Action)
	if !remotecontrol.Recognized(action) {
		writeJSON(w, http.StatusOK, map[string]string{
			"description": remotecontrol.Describe(req.VehicleID, action),
		})
		return
	}

	cmd := remotecontrol.NewCommand(req.VehicleID, action)
	if err := s.commands.InsertCommand(r.Context(), cmd); err != nil {
		s.logger.Error().Err(err).Str("command", cmd.ID).Msg("command insert failed")
		writeError(w, http.StatusInternalServerError, "failed to record command")
		return
	}
	payload, _ := json.Marshal(cmd)
	if err := s.commands.PublishCommand(r.Context(), payload); err != nil {
		s.logger.Warn().Err(err).Str("command", cmd.ID).Msg("command publish failed")
	}
	metrics.CommandsDispatched.Add(1)

	writeJSON(w, http.StatusOK, cmd)
}

func (s *Server) handleFleetSummary(w http.ResponseWriter, r *http.Request) {
	batch, err := s.fleetSrc.LatestSnapshots(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("latest snapshots fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to load fleet state")
		return
	}

	summary, err := fleet.Aggregate(batch)
	if errors.Is(err, fleet.ErrEmptyBatch) {
		writeError(w, http.StatusConflict, "no telemetry recorded yet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "aggregation failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	bins := 10
	if v := r.URL.Query().Get("bins"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bins must be a positive integer")
			return
		}
		bins = n
	}

	batch, err := s.fleetSrc.LatestSnapshots(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("latest snapshots fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to load fleet state")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bins":   bins,
		"counts": fleet.Histogram(batch, bins),
	})
}

func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	costs, err := parseCosts(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	roi, err := finance.ROI(costs)
	if errors.Is(err, finance.ErrZeroInvestment) {
		writeError(w, http.StatusBadRequest, "initial investment must be non-zero")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"roi_percent": roi})
}

func parseCosts(r *http.Request) (finance.Costs, error) {
	var costs finance.Costs
	fields := []struct {
		name string
		dst  *float64
	}{
		{"investment", &costs.InitialInvestment},
		{"maintenance", &costs.MaintenanceCosts},
		{"fuel_savings", &costs.FuelSavings},
		{"charging_costs", &costs.ChargingCosts},
	}
	for _, f := range fields {
		v := r.URL.Query().Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return costs, errors.New(f.name + " must be a number")
		}
		*f.dst = n
	}
	return costs, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
