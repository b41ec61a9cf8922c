package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/monitor"
)

type fakeOppService struct {
	current []domain.ArbitrageOpportunity
	byPair  map[string]domain.ArbitrageOpportunity
}

func (f *fakeOppService) CurrentOpportunities(context.Context) []domain.ArbitrageOpportunity {
	return f.current
}

func (f *fakeOppService) TopOpportunities(_ context.Context, limit int) []domain.ArbitrageOpportunity {
	if limit > len(f.current) {
		limit = len(f.current)
	}
	return f.current[:limit]
}

func (f *fakeOppService) OpportunityByMarkets(polyID, kalshiID string) (domain.ArbitrageOpportunity, error) {
	opp, ok := f.byPair[polyID+"_"+kalshiID]
	if !ok {
		return domain.ArbitrageOpportunity{}, domain.ErrNotFound
	}
	return opp, nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summary(opps []domain.ArbitrageOpportunity) domain.OpportunitySummary {
	return domain.OpportunitySummary{Total: len(opps)}
}

type fakeMonitorService struct {
	running bool
	status  monitor.Status
	forced  []domain.ArbitrageOpportunity
}

func (f *fakeMonitorService) Start(context.Context) { f.running = true }
func (f *fakeMonitorService) Stop()                 { f.running = false }
func (f *fakeMonitorService) Running() bool         { return f.running }

func (f *fakeMonitorService) ForceUpdate(context.Context) []domain.ArbitrageOpportunity {
	return f.forced
}

func (f *fakeMonitorService) Status() monitor.Status { return f.status }

func (f *fakeMonitorService) Performance(_ context.Context, hours int) (monitor.Performance, error) {
	return monitor.Performance{TimePeriodHours: hours}, nil
}

type fakeSimilarityService struct {
	reports []domain.SimilarityReport
	err     error
}

func (f *fakeSimilarityService) Similarities(context.Context, int) ([]domain.SimilarityReport, error) {
	return f.reports, f.err
}

type fakeMatchStore struct {
	matches []domain.MatchCandidate
}

func (f *fakeMatchStore) Upsert(context.Context, domain.MatchCandidate) error { return nil }

func (f *fakeMatchStore) List(context.Context, int) ([]domain.MatchCandidate, error) {
	return f.matches, nil
}

func opp(id string, pct float64) domain.ArbitrageOpportunity {
	return domain.ArbitrageOpportunity{ID: id, ProfitPercentage: pct}
}

func TestListCurrent(t *testing.T) {
	h := NewOpportunityHandler(&fakeOppService{current: []domain.ArbitrageOpportunity{
		opp("a", 0.08), opp("b", 0.06),
	}}, fakeSummarizer{}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListCurrent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listOpportunitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "a", resp.Opportunities[0].ID)
}

func TestListCurrentEmptyIsNotNull(t *testing.T) {
	h := NewOpportunityHandler(&fakeOppService{}, fakeSummarizer{}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListCurrent(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))

	assert.Contains(t, rec.Body.String(), `"opportunities":[]`)
}

func TestListTopLimit(t *testing.T) {
	h := NewOpportunityHandler(&fakeOppService{current: []domain.ArbitrageOpportunity{
		opp("a", 0.08), opp("b", 0.06), opp("c", 0.05),
	}}, fakeSummarizer{}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListTop(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/top?limit=2", nil))

	var resp listOpportunitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestSummary(t *testing.T) {
	h := NewOpportunityHandler(&fakeOppService{current: []domain.ArbitrageOpportunity{
		opp("a", 0.08),
	}}, fakeSummarizer{}, slog.Default())

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/summary", nil))

	assert.Contains(t, rec.Body.String(), `"total_opportunities":1`)
}

func TestGetByMarkets(t *testing.T) {
	svc := &fakeOppService{byPair: map[string]domain.ArbitrageOpportunity{
		"p1_k1": opp("a", 0.08),
	}}
	h := NewOpportunityHandler(svc, fakeSummarizer{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/p1/k1", nil)
	req.SetPathValue("polyID", "p1")
	req.SetPathValue("kalshiID", "k1")
	rec := httptest.NewRecorder()
	h.GetByMarkets(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a"`)
}

func TestGetByMarketsNotFound(t *testing.T) {
	h := NewOpportunityHandler(&fakeOppService{}, fakeSummarizer{}, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/p1/k9", nil)
	req.SetPathValue("polyID", "p1")
	req.SetPathValue("kalshiID", "k9")
	rec := httptest.NewRecorder()
	h.GetByMarkets(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMonitorStatus(t *testing.T) {
	svc := &fakeMonitorService{status: monitor.Status{Running: true, CycleCount: 7}}
	h := NewMonitorHandler(svc, context.Background(), slog.Default())

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/monitor/status", nil))

	assert.Contains(t, rec.Body.String(), `"cycle_count":7`)
}

func TestMonitorPerformanceHours(t *testing.T) {
	h := NewMonitorHandler(&fakeMonitorService{}, context.Background(), slog.Default())

	rec := httptest.NewRecorder()
	h.GetPerformance(rec, httptest.NewRequest(http.MethodGet, "/api/monitor/performance?hours=48", nil))

	assert.Contains(t, rec.Body.String(), `"time_period_hours":48`)
}

func TestMonitorForceUpdate(t *testing.T) {
	svc := &fakeMonitorService{forced: []domain.ArbitrageOpportunity{opp("a", 0.08)}}
	h := NewMonitorHandler(svc, context.Background(), slog.Default())

	rec := httptest.NewRecorder()
	h.ForceUpdate(rec, httptest.NewRequest(http.MethodPost, "/api/monitor/update", nil))

	var resp listOpportunitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestMonitorStartStop(t *testing.T) {
	svc := &fakeMonitorService{}
	h := NewMonitorHandler(svc, context.Background(), slog.Default())

	rec := httptest.NewRecorder()
	h.StartMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/monitor/start", nil))
	assert.Contains(t, rec.Body.String(), "started")
	assert.True(t, svc.running)

	rec = httptest.NewRecorder()
	h.StartMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/monitor/start", nil))
	assert.Contains(t, rec.Body.String(), "already running")

	rec = httptest.NewRecorder()
	h.StopMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/monitor/stop", nil))
	assert.Contains(t, rec.Body.String(), "stopped")
	assert.False(t, svc.running)

	rec = httptest.NewRecorder()
	h.StopMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/monitor/stop", nil))
	assert.Contains(t, rec.Body.String(), "not running")
}

func TestListMatches(t *testing.T) {
	h := NewMatchHandler(&fakeMatchStore{matches: []domain.MatchCandidate{
		{PolyID: "p1", KalshiID: "k1", Confidence: 0.9},
	}}, &fakeSimilarityService{}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListMatches(rec, httptest.NewRequest(http.MethodGet, "/api/matches", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestListMatchesWithoutStore(t *testing.T) {
	h := NewMatchHandler(nil, &fakeSimilarityService{}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListMatches(rec, httptest.NewRequest(http.MethodGet, "/api/matches", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestListSimilarities(t *testing.T) {
	h := NewMatchHandler(nil, &fakeSimilarityService{reports: []domain.SimilarityReport{
		{OverallScore: 0.72},
	}}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListSimilarities(rec, httptest.NewRequest(http.MethodGet, "/api/similarities?top=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestListSimilaritiesError(t *testing.T) {
	h := NewMatchHandler(nil, &fakeSimilarityService{err: assert.AnError}, slog.Default())

	rec := httptest.NewRecorder()
	h.ListSimilarities(rec, httptest.NewRequest(http.MethodGet, "/api/similarities", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
