package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/EricMurray-e-m-dev/MillGuard/internal/anomaly"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/engine"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/models"
	"github.com/EricMurray-e-m-dev/MillGuard/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Pinger reports backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves liveness, metrics and the read-only monitoring API.
type Server struct {
	engine  *engine.Engine
	pinger  Pinger
	metrics http.Handler
	router  *mux.Router
	server  *http.Server
	logger  *zap.SugaredLogger
}

// NewServer wires routes. metrics may be nil.
func NewServer(eng *engine.Engine, pinger Pinger, metrics http.Handler, logger *zap.SugaredLogger) *Server {
	s := &Server{
		engine:  eng,
		pinger:  pinger,
		metrics: metrics,
		router:  mux.NewRouter(),
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/fleet", s.handleFleet).Methods(http.MethodGet)
	api.HandleFunc("/equipment", s.handleEquipment).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/readings", s.handleReadings).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/thresholds", s.handleThresholds).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/anomalies", s.handleAnomalies).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}/ack", s.handleAcknowledge).Methods(http.MethodPost)
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Infof("HTTP server listening on: %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"store":  "disconnected",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"store":  "connected",
	})
}

type fleetResponse struct {
	FleetHealthIndex float64                `json:"fleet_health_index"`
	Equipment        []models.HealthSummary `json:"equipment"`
}

func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	summaries, fleet, err := s.engine.Fleet(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fleetResponse{FleetHealthIndex: fleet, Equipment: summaries})
}

func (s *Server) handleEquipment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Registry().All())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, ok, err := s.engine.Summary(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "no readings recorded for "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	readings, err := s.engine.Readings(r.Context(), mux.Vars(r)["id"], hours)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	variable, err := queryVariable(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hours, err := queryInt(r, "hours", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	bands, err := s.engine.Bands(r.Context(), mux.Vars(r)["id"], variable, hours)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bands)
}

type anomalyResponse struct {
	Variable models.Variable  `json:"variable"`
	Points   []anomaly.Point  `json:"points"`
	Periods  []anomaly.Period `json:"periods"`
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	variable, err := queryVariable(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hours, err := queryInt(r, "hours", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := anomaly.DefaultOptions()
	if opts.Window, err = queryInt(r, "window", opts.Window); err != nil {
		s.writeError(w, err)
		return
	}
	if opts.Threshold, err = queryFloat(r, "threshold", opts.Threshold); err != nil {
		s.writeError(w, err)
		return
	}

	points, periods, err := s.engine.Anomalies(r.Context(), mux.Vars(r)["id"], variable, hours, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, anomalyResponse{Variable: variable, Points: points, Periods: periods})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AlertFilter{
		EquipmentID:        q.Get("equipment"),
		UnacknowledgedOnly: q.Get("unacknowledged") == "true",
	}

	if sev := q.Get("severity"); sev != "" {
		parsed, err := models.ParseAlertSeverity(sev)
		if err != nil {
			s.writeError(w, err)
			return
		}
		filter.Severity = parsed
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		s.writeError(w, err)
		return
	}
	days, err := queryInt(r, "days", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if days > 0 {
		filter.Since = s.engine.AlertsSince(days)
	}

	alerts, err := s.engine.Alerts(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.engine.Acknowledge(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "acknowledged"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrUnknownEquipment):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	default:
		s.logger.Errorf("API request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryVariable(r *http.Request) (models.Variable, error) {
	name := r.URL.Query().Get("variable")
	if name == "" {
		return models.VariableVibration, nil
	}
	return models.ParseVariable(name)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", models.ErrValidation, key, raw)
	}
	return v, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", models.ErrValidation, key, raw)
	}
	return v, nil
}
