// Package api exposes the engine over HTTP: feed snapshots, alert
// ingestion, response actions, playbook management, audit access and the
// operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/config"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/engine"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/mode"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/playbook"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/registry"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/response"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP front of the engine
type Server struct {
	engine    *engine.Engine
	responder *response.Engine
	catalog   *playbook.Catalog
	registry  *registry.Registry
	auditLog  *audit.Log
	settings  *config.Manager
	mode      *mode.Controller
	metrics   *metrics.Metrics
	logger    *slog.Logger
	router    *mux.Router
	ready     func() bool
}

// NewServer builds the server and its routes. ready reports readiness
// for /readyz; a nil ready is always ready.
func NewServer(eng *engine.Engine, responder *response.Engine, catalog *playbook.Catalog, reg *registry.Registry, auditLog *audit.Log, settings *config.Manager, modeCtl *mode.Controller, m *metrics.Metrics, logger *slog.Logger, ready func() bool) *Server {
	s := &Server{
		engine:    eng,
		responder: responder,
		catalog:   catalog,
		registry:  reg,
		auditLog:  auditLog,
		settings:  settings,
		mode:      modeCtl,
		metrics:   m,
		logger:    logger,
		ready:     ready,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.logMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)
	v1.HandleFunc("/alerts", s.handleIngestAlert).Methods(http.MethodPost)
	v1.HandleFunc("/network", s.handleNetworkData).Methods(http.MethodGet)
	v1.HandleFunc("/packets", s.handlePackets).Methods(http.MethodGet)
	v1.HandleFunc("/honeypots", s.handleHoneypots).Methods(http.MethodGet)
	v1.HandleFunc("/honeypots/logs", s.handleHoneypotLogs).Methods(http.MethodGet)

	v1.HandleFunc("/blocked-ips", s.handleBlockedIPs).Methods(http.MethodGet)
	v1.HandleFunc("/actions/block-ip", s.handleBlockIP).Methods(http.MethodPost)
	v1.HandleFunc("/actions/unblock-ip", s.handleUnblockIP).Methods(http.MethodPost)
	v1.HandleFunc("/actions/rollback", s.handleRollback).Methods(http.MethodPost)

	v1.HandleFunc("/playbooks", s.handleListPlaybooks).Methods(http.MethodGet)
	v1.HandleFunc("/playbooks", s.handleAddPlaybook).Methods(http.MethodPost)
	v1.HandleFunc("/playbooks/run", s.handleRunPlaybook).Methods(http.MethodPost)
	v1.HandleFunc("/playbooks/runs/{id}", s.handleGetRun).Methods(http.MethodGet)

	v1.HandleFunc("/audit", s.handleAuditLog).Methods(http.MethodGet)
	v1.HandleFunc("/audit", s.handleClearAudit).Methods(http.MethodDelete)
	v1.HandleFunc("/audit/export", s.handleAuditExport).Methods(http.MethodGet)

	v1.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	v1.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)

	v1.HandleFunc("/mode", s.handleGetMode).Methods(http.MethodGet)
	v1.HandleFunc("/mode/toggle", s.handleToggleMode).Methods(http.MethodPost)

	s.router = r
}

// Handler returns the configured root handler
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			"method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		s.writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "alerts": s.engine.Alerts()})
}

func (s *Server) handleIngestAlert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := validateAlertPayload(body); err != nil {
		if s.metrics != nil {
			s.metrics.IncAlertsRejected()
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var alert model.ThreatAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid alert payload")
		return
	}

	ingested, created := s.engine.Ingest(alert)
	if !created {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "duplicate": true, "alert": ingested})
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "alert": ingested})
}

func (s *Server) handleNetworkData(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"points":  s.engine.NetworkData(),
		"spiking": s.engine.Spiking(),
	})
}

func (s *Server) handlePackets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "packets": s.engine.Packets()})
}

func (s *Server) handleHoneypots(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "honeypots": s.engine.Honeypots()})
}

func (s *Server) handleHoneypotLogs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "logs": s.engine.HoneypotLogs()})
}

func (s *Server) handleBlockedIPs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "blocked_ips": s.registry.Blocked()})
}

type blockRequest struct {
	IP     string `json:"ip"`
	Reason string `json:"reason"`
}

func (s *Server) handleBlockIP(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.IP == "" {
		s.writeError(w, http.StatusBadRequest, "ip is required")
		return
	}
	if req.Reason == "" {
		req.Reason = "API Request"
	}

	if !s.responder.BlockIP(req.IP, req.Reason) {
		s.writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"error":   "IP is already blocked",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "live": s.mode.IsLive()})
}

type unblockRequest struct {
	IP string `json:"ip"`
}

func (s *Server) handleUnblockIP(w http.ResponseWriter, r *http.Request) {
	var req unblockRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.IP == "" {
		s.writeError(w, http.StatusBadRequest, "ip is required")
		return
	}
	s.responder.UnblockIP(req.IP)
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type rollbackRequest struct {
	LogID string `json:"log_id"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.LogID == "" {
		s.writeError(w, http.StatusBadRequest, "log_id is required")
		return
	}

	entry, err := s.responder.Rollback(req.LogID)
	switch {
	case errors.Is(err, response.ErrEntryNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, response.ErrNotRollbackable):
		s.writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "entry": entry})
	}
}

func (s *Server) handleListPlaybooks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "playbooks": s.catalog.All()})
}

func (s *Server) handleAddPlaybook(w http.ResponseWriter, r *http.Request) {
	var pb model.Playbook
	if !s.decode(w, r, &pb) {
		return
	}
	if err := s.catalog.AddCustom(pb); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"success": true, "playbook_id": pb.ID})
}

type runRequest struct {
	AlertID    string `json:"alert_id"`
	PlaybookID string `json:"playbook_id,omitempty"`
}

func (s *Server) handleRunPlaybook(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AlertID == "" {
		s.writeError(w, http.StatusBadRequest, "alert_id is required")
		return
	}

	alert, ok := s.engine.FindAlert(req.AlertID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "alert not found")
		return
	}

	var pb model.Playbook
	if req.PlaybookID != "" {
		pb, ok = s.catalog.Get(req.PlaybookID)
		if !ok {
			s.writeError(w, http.StatusNotFound, "playbook not found")
			return
		}
	} else {
		pb = s.catalog.Select(alert.Type)
	}

	run, err := s.responder.Execute(r.Context(), pb, alert)
	if errors.Is(err, response.ErrRunInProgress) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "run": run, "succeeded": run.Succeeded()})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.responder.Run(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "run": run, "succeeded": run.Succeeded()})
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": s.auditLog.Entries()})
}

func (s *Server) handleClearAudit(w http.ResponseWriter, r *http.Request) {
	s.auditLog.Clear()
	s.logger.Info("Audit log cleared via API")
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-log.json.zst"`)
	if err := s.auditLog.Export(w); err != nil {
		s.logger.Error("Audit export failed", "error", err)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": s.settings.Get()})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if !s.decode(w, r, &settings) {
		return
	}
	if err := s.settings.Update(settings); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.auditLog.Append("Settings saved.")
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings})
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"live":    s.mode.IsLive(),
		"mode":    s.mode.String(),
	})
}

func (s *Server) handleToggleMode(w http.ResponseWriter, r *http.Request) {
	live := s.mode.Toggle()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"live":    live,
		"mode":    s.mode.String(),
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
