package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// SimilarityService computes cross-venue similarity reports on demand.
type SimilarityService interface {
	Similarities(ctx context.Context, topN int) ([]domain.SimilarityReport, error)
}

// MatchHandler serves matched-pair and similarity diagnostic endpoints.
type MatchHandler struct {
	matches      domain.MatchStore
	similarities SimilarityService
	logger       *slog.Logger
}

// NewMatchHandler creates a MatchHandler. matches may be nil when Postgres
// is not configured; ListMatches then returns 501.
func NewMatchHandler(matches domain.MatchStore, similarities SimilarityService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matches: matches, similarities: similarities, logger: logger}
}

// ListMatches returns persisted matched market pairs.
// GET /api/matches?limit=50
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		writeError(w, http.StatusNotImplemented, "match persistence not configured")
		return
	}

	limit := queryInt(r, "limit", 50, 500)

	matches, err := h.matches.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []domain.MatchCandidate{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}

// ListSimilarities fetches fresh listings from both venues and returns the
// ranked cross-product similarity reports.
// GET /api/similarities?top=20
func (h *MatchHandler) ListSimilarities(w http.ResponseWriter, r *http.Request) {
	topN := queryInt(r, "top", 20, 200)

	reports, err := h.similarities.Similarities(r.Context(), topN)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: similarities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute similarities")
		return
	}
	if reports == nil {
		reports = []domain.SimilarityReport{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"similarities": reports,
		"count":        len(reports),
	})
}
