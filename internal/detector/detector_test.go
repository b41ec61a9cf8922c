package detector

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	cfg := config.Defaults()
	return New(cfg.Arbitrage, cfg.Polymarket, cfg.Kalshi, slog.Default())
}

func match(polyID, kalshiID string, confidence float64) domain.MatchCandidate {
	return domain.MatchCandidate{
		PolyID:         polyID,
		KalshiID:       kalshiID,
		PolyQuestion:   "poly question",
		KalshiQuestion: "kalshi question",
		Confidence:     confidence,
		MatchType:      domain.MatchManual,
	}
}

func listing(venue domain.Venue, id string, yes, no, volume float64) domain.ListingSnapshot {
	return domain.ListingSnapshot{
		Venue:     venue,
		ID:        id,
		Question:  "q",
		YesPrice:  yes,
		NoPrice:   no,
		Volume24h: volume,
	}
}

func index(listings ...domain.ListingSnapshot) map[string]domain.ListingSnapshot {
	return domain.ListingsByID(listings)
}

func TestDetectProfitMath(t *testing.T) {
	d := newTestDetector(t)

	// Poly YES at 0.45 vs Kalshi YES at 0.50: buy poly, sell kalshi.
	polys := index(listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000))

	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, domain.BuyPolySellKalshi, opp.Strategy)
	assert.Equal(t, domain.OutcomeYes, opp.Outcome)

	// Gross 0.05, fees 0.45*0.02 + 0.50*0.01 = 0.014, net 0.036/unit.
	assert.InDelta(t, 0.08, opp.ProfitPercentage, 1e-9)

	// Position capped at min(10% of volume, 1000, configured 1000) = 1000.
	assert.InDelta(t, 1000.0, opp.MaxPositionSize, 1e-9)
	assert.InDelta(t, 1000.0, opp.RequiredCapital, 1e-9)

	// 1000/0.45 units at 0.036 net each.
	units := 1000.0 / 0.45
	assert.InDelta(t, 0.036*units, opp.ProfitPotential, 1e-6)
	assert.InDelta(t, opp.ProfitPotential, opp.FeeAdjustedProfit, 1e-9)

	// Slippage haircut (0.45+0.50)*0.02/2 = 0.0095/unit leaves 0.0265/unit.
	assert.InDelta(t, 0.0265*units, opp.SlippageAdjustedProfit, 1e-6)

	// Confidence 1.0 * (0.08/0.1) * 1.0 * (0.0265/0.036).
	assert.InDelta(t, 0.8*(0.0265/0.036), opp.ConfidenceScore, 1e-6)

	// Rank 0.4*(0.08/0.2) + 0.3*conf + 0.2*1 + 0.1*1.
	assert.InDelta(t, 0.16+0.3*opp.ConfidenceScore+0.2+0.1, opp.RankScore, 1e-9)

	assert.Equal(t, "Buy yes on Polymarket @ $0.450, sell on Kalshi @ $0.500", opp.Notes)
}

func TestDetectOppositeDirection(t *testing.T) {
	d := newTestDetector(t)

	// Kalshi YES is the cheap side; NO prices are level on both venues.
	polys := index(listing(domain.VenuePolymarket, "p1", 0.54, 0.51, 10000))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.47, 0.51, 10000))

	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	require.Len(t, opps, 1)
	assert.Equal(t, domain.BuyKalshiSellPoly, opps[0].Strategy)
	assert.Equal(t, domain.OutcomeYes, opps[0].Outcome)
}

func TestDetectRejectsInvalidPrices(t *testing.T) {
	d := newTestDetector(t)
	matches := []domain.MatchCandidate{match("p1", "k1", 1.0)}

	cases := map[string]struct {
		poly   domain.ListingSnapshot
		kalshi domain.ListingSnapshot
	}{
		"missing price": {
			listing(domain.VenuePolymarket, "p1", 0.45, 0, 10000),
			listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000),
		},
		"price above one": {
			listing(domain.VenuePolymarket, "p1", 1.2, 0.55, 10000),
			listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000),
		},
		"sum out of tolerance": {
			listing(domain.VenuePolymarket, "p1", 0.45, 0.70, 10000),
			listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			opps := d.Detect(matches, index(tc.poly), index(tc.kalshi))
			assert.Empty(t, opps)
		})
	}
}

func TestDetectRejectsThinVolume(t *testing.T) {
	d := newTestDetector(t)

	// Poly volume below its 100 floor.
	polys := index(listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 80))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000))
	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	assert.Empty(t, opps)

	// Kalshi volume below its 50 floor.
	polys = index(listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000))
	kalshis = index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 30))
	opps = d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	assert.Empty(t, opps)
}

func TestDetectNoGapNoOpportunity(t *testing.T) {
	d := newTestDetector(t)

	polys := index(listing(domain.VenuePolymarket, "p1", 0.50, 0.50, 10000))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000))
	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	assert.Empty(t, opps)
}

func TestDetectSkipsMatchWithoutListings(t *testing.T) {
	d := newTestDetector(t)

	polys := index(listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000))
	opps := d.Detect([]domain.MatchCandidate{match("p1", "k-missing", 1.0)}, polys, index())
	assert.Empty(t, opps)
}

func TestDetectFiltersLowConfidence(t *testing.T) {
	d := newTestDetector(t)

	// A weak match drags confidence below the 0.5 floor even though the
	// price gap itself clears the profit threshold.
	polys := index(listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000))
	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 0.6)}, polys, kalshis)
	assert.Empty(t, opps)
}

func TestDetectFiltersSmallCapital(t *testing.T) {
	d := newTestDetector(t)

	// 10% of volume 90 caps the position at $9, under the $10 floor.
	polys := index(listing(domain.VenuePolymarket, "p1", 0.40, 0.60, 10000))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.55, 0.45, 90))
	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	assert.Empty(t, opps)
}

func TestDetectFiltersExpired(t *testing.T) {
	d := newTestDetector(t)

	past := time.Now().Add(-time.Hour)
	poly := listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000)
	poly.EndDate = past
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000))

	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, index(poly), kalshis)
	assert.Empty(t, opps)
}

func TestDetectRanksBestFirst(t *testing.T) {
	d := newTestDetector(t)

	polys := index(
		listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000),
		listing(domain.VenuePolymarket, "p2", 0.40, 0.60, 10000),
	)
	kalshis := index(
		listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000),
		listing(domain.VenueKalshi, "k2", 0.50, 0.50, 10000),
	)
	matches := []domain.MatchCandidate{
		match("p1", "k1", 1.0),
		match("p2", "k2", 1.0),
	}

	opps := d.Detect(matches, polys, kalshis)
	require.GreaterOrEqual(t, len(opps), 2)
	for i := 1; i < len(opps); i++ {
		assert.GreaterOrEqual(t, opps[i-1].RankScore, opps[i].RankScore)
	}
	// The wider 0.40/0.50 gap ranks first.
	assert.Equal(t, "p2", opps[0].PolyID)
}

func TestSummary(t *testing.T) {
	d := newTestDetector(t)

	polys := index(listing(domain.VenuePolymarket, "p1", 0.45, 0.55, 10000))
	kalshis := index(listing(domain.VenueKalshi, "k1", 0.50, 0.50, 10000))
	opps := d.Detect([]domain.MatchCandidate{match("p1", "k1", 1.0)}, polys, kalshis)
	require.Len(t, opps, 1)

	summary := d.Summary(opps)
	assert.Equal(t, 1, summary.Total)
	assert.InDelta(t, opps[0].ProfitPotential, summary.TotalProfit, 1e-9)
	assert.InDelta(t, opps[0].ProfitPercentage, summary.AvgProfitPercentage, 1e-9)
	assert.InDelta(t, opps[0].RequiredCapital, summary.TotalRequiredCapital, 1e-9)
	require.NotNil(t, summary.HighestProfit)
	assert.Equal(t, "p1", summary.HighestProfit.PolyID)
	assert.Equal(t, 1, summary.ByStrategy[domain.BuyPolySellKalshi])
	assert.Equal(t, 0, summary.ByStrategy[domain.BuyKalshiSellPoly])
	assert.Equal(t, 1, summary.ByOutcome[domain.OutcomeYes])
}

func TestSummaryEmpty(t *testing.T) {
	d := newTestDetector(t)
	summary := d.Summary(nil)
	assert.Equal(t, 0, summary.Total)
	assert.Nil(t, summary.HighestProfit)
	assert.Zero(t, summary.TotalProfit)
}
