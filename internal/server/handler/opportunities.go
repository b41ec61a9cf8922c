package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// OpportunityService defines the monitor methods the opportunity handler
// requires.
type OpportunityService interface {
	CurrentOpportunities(ctx context.Context) []domain.ArbitrageOpportunity
	TopOpportunities(ctx context.Context, limit int) []domain.ArbitrageOpportunity
	OpportunityByMarkets(polyID, kalshiID string) (domain.ArbitrageOpportunity, error)
}

// Summarizer aggregates a set of opportunities into summary statistics.
type Summarizer interface {
	Summary(opps []domain.ArbitrageOpportunity) domain.OpportunitySummary
}

// OpportunityHandler serves opportunity-related HTTP endpoints.
type OpportunityHandler struct {
	svc        OpportunityService
	summarizer Summarizer
	logger     *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(svc OpportunityService, summarizer Summarizer, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{svc: svc, summarizer: summarizer, logger: logger}
}

// listOpportunitiesResponse wraps the opportunity list responses.
type listOpportunitiesResponse struct {
	Opportunities []domain.ArbitrageOpportunity `json:"opportunities"`
	Count         int                           `json:"count"`
}

// ListCurrent returns the latest cycle's ranked opportunities.
// GET /api/opportunities
func (h *OpportunityHandler) ListCurrent(w http.ResponseWriter, r *http.Request) {
	opps := h.svc.CurrentOpportunities(r.Context())
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps, Count: len(opps)})
}

// ListTop returns the highest-profit opportunities from the latest cycle.
// GET /api/opportunities/top?limit=10
func (h *OpportunityHandler) ListTop(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10, 100)

	opps := h.svc.TopOpportunities(r.Context(), limit)
	if opps == nil {
		opps = []domain.ArbitrageOpportunity{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps, Count: len(opps)})
}

// Summary returns aggregate statistics over the current opportunities.
// GET /api/opportunities/summary
func (h *OpportunityHandler) Summary(w http.ResponseWriter, r *http.Request) {
	opps := h.svc.CurrentOpportunities(r.Context())
	writeJSON(w, http.StatusOK, h.summarizer.Summary(opps))
}

// GetByMarkets returns the current opportunity for a specific market pair.
// GET /api/opportunities/{polyID}/{kalshiID}
func (h *OpportunityHandler) GetByMarkets(w http.ResponseWriter, r *http.Request) {
	polyID := r.PathValue("polyID")
	kalshiID := r.PathValue("kalshiID")
	if polyID == "" || kalshiID == "" {
		writeError(w, http.StatusBadRequest, "missing market ids")
		return
	}

	opp, err := h.svc.OpportunityByMarkets(polyID, kalshiID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no opportunity for market pair")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get opportunity by markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to look up opportunity")
		return
	}

	writeJSON(w, http.StatusOK, opp)
}
