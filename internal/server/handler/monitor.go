package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/monitor"
)

// MonitorService defines the monitor lifecycle and metrics methods the
// handler requires.
type MonitorService interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
	ForceUpdate(ctx context.Context) []domain.ArbitrageOpportunity
	Status() monitor.Status
	Performance(ctx context.Context, hours int) (monitor.Performance, error)
}

// MonitorHandler serves monitor control and metrics endpoints.
type MonitorHandler struct {
	svc    MonitorService
	runCtx context.Context
	logger *slog.Logger
}

// NewMonitorHandler creates a MonitorHandler. runCtx is the application
// lifetime context; a monitor started over HTTP must outlive the request
// that started it.
func NewMonitorHandler(svc MonitorService, runCtx context.Context, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{svc: svc, runCtx: runCtx, logger: logger}
}

// GetStatus returns the monitor's runtime counters.
// GET /api/monitor/status
func (h *MonitorHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// GetPerformance returns aggregate metrics over the persisted opportunity
// history.
// GET /api/monitor/performance?hours=24
func (h *MonitorHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24, 24*30)

	perf, err := h.svc.Performance(r.Context(), hours)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: performance query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute performance")
		return
	}

	writeJSON(w, http.StatusOK, perf)
}

// ForceUpdate triggers an immediate monitoring cycle and returns its
// opportunities.
// POST /api/monitor/update
func (h *MonitorHandler) ForceUpdate(w http.ResponseWriter, r *http.Request) {
	opps := h.svc.ForceUpdate(r.Context())
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps, Count: len(opps)})
}

// StartMonitor starts the periodic monitoring loop.
// POST /api/monitor/start
func (h *MonitorHandler) StartMonitor(w http.ResponseWriter, r *http.Request) {
	if h.svc.Running() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already running"})
		return
	}
	h.svc.Start(h.runCtx)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StopMonitor stops the periodic monitoring loop.
// POST /api/monitor/stop
func (h *MonitorHandler) StopMonitor(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Running() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "not running"})
		return
	}
	h.svc.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
