package matcher

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

func newTestMatcher(t *testing.T, cfg config.MatchingConfig) *Matcher {
	t.Helper()
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = 0.8
	}
	return New(cfg, nil, slog.Default())
}

func poly(id, question string) domain.ListingSnapshot {
	return domain.ListingSnapshot{Venue: domain.VenuePolymarket, ID: id, Question: question}
}

func kalshi(id, question string) domain.ListingSnapshot {
	return domain.ListingSnapshot{Venue: domain.VenueKalshi, ID: id, Question: question}
}

func TestCleanQuestion(t *testing.T) {
	assert.Equal(t, "Will BTC hit 100k?", CleanQuestion("  Will   BTC hit \t100k? "))
	assert.Equal(t, "Fed cut rates in 24", CleanQuestion("Fed cut rates in 2024"))
	assert.Equal(t, "Trump wins 25 election", CleanQuestion("Trump wins 2025 election"))
	assert.Equal(t, "Price above 50 by June?", CleanQuestion("Price above $50 by June?"))
}

func TestFuzzyScore(t *testing.T) {
	assert.InDelta(t, 1.0, FuzzyScore("Will Trump win?", "Will Trump win?"), 1e-9)
	assert.InDelta(t, 1.0, FuzzyScore("win Trump Will?", "Will Trump win?"), 1e-9)
	assert.Less(t, FuzzyScore("Will it rain tomorrow?", "Bitcoin above 100k?"), 0.5)
}

func TestKeywordScore(t *testing.T) {
	// Stopwords never count toward the Jaccard sets.
	assert.InDelta(t, 1.0, KeywordScore("the election winner", "election winner"), 1e-9)
	assert.Equal(t, 0.0, KeywordScore("bitcoin price", "rain tomorrow"))
	assert.Equal(t, 0.0, KeywordScore("the a an", "election"))
	// {trump, wins, election} vs {trump, election}: 2 shared of 3 total.
	assert.InDelta(t, 2.0/3.0, KeywordScore("trump wins election", "trump election"), 1e-9)
}

func TestCommonKeywords(t *testing.T) {
	common := CommonKeywords("Will Trump win the 2024 election", "Trump to win election")
	assert.Equal(t, []string{"election", "trump", "win"}, common)

	// Short tokens are dropped.
	assert.Empty(t, CommonKeywords("up by 5", "up at 5"))
}

func TestFindMatchesManualPairsFirst(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{
		Pairs: []domain.ManualPair{
			{PolyID: "p1", KalshiID: "k1", Confidence: 0.9, Notes: "same event"},
		},
	})

	polys := []domain.ListingSnapshot{poly("p1", "Will Trump win the election?")}
	kalshis := []domain.ListingSnapshot{
		kalshi("k1", "Something entirely unrelated"),
		kalshi("k2", "Will Trump win the election?"),
	}

	matches, err := m.FindMatches(context.Background(), polys, kalshis)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// The manual pair consumes p1 even though k2 is the better text match.
	assert.Equal(t, "k1", matches[0].KalshiID)
	assert.Equal(t, domain.MatchManual, matches[0].MatchType)
	assert.Equal(t, 0.9, matches[0].Confidence)
	assert.Equal(t, "same event", matches[0].Notes)
}

func TestFindMatchesManualConfidenceDefaultsToOne(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{
		Pairs: []domain.ManualPair{{PolyID: "p1", KalshiID: "k1"}},
	})

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "q")},
		[]domain.ListingSnapshot{kalshi("k1", "q")})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1.0, matches[0].Confidence)
}

func TestFindMatchesManualPairSkippedWhenListingAbsent(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{
		Pairs: []domain.ManualPair{{PolyID: "p1", KalshiID: "missing"}},
	})

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "Will it happen?")},
		[]domain.ListingSnapshot{kalshi("k9", "Totally different topic entirely")})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindMatchesAutomaticFuzzy(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{})

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "Will Trump win the 2024 election?")},
		[]domain.ListingSnapshot{
			kalshi("k1", "Will Trump win the 2024 election?"),
			kalshi("k2", "Bitcoin above 100k by March?"),
		})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	match := matches[0]
	assert.Equal(t, "p1", match.PolyID)
	assert.Equal(t, "k1", match.KalshiID)
	assert.Equal(t, domain.MatchFuzzy, match.MatchType)
	assert.InDelta(t, 1.0, match.Confidence, 1e-9)
	assert.Equal(t, "Auto-matched using fuzzy (score: 1.000)", match.Notes)
}

func TestFindMatchesBelowThreshold(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{SimilarityThreshold: 0.95})

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "Will Trump win the election?")},
		[]domain.ListingSnapshot{kalshi("k1", "Will Biden win the election?")})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindMatchesExcludedPair(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{
		Excluded: []domain.ExcludedPair{{PolyID: "p1", KalshiID: "k1", Reason: "different resolution dates"}},
	})

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "Will Trump win the 2024 election?")},
		[]domain.ListingSnapshot{kalshi("k1", "Will Trump win the 2024 election?")})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindMatchesSkipsEmptyListings(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{})

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("", "Will X happen?"), poly("p2", "")},
		[]domain.ListingSnapshot{kalshi("k1", "Will X happen?")})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Model() string { return "stub" }

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func TestFindMatchesSemanticWins(t *testing.T) {
	// Lexically distant questions, identical embeddings.
	emb := &stubEmbedder{vectors: map[string][]float32{
		CleanQuestion("Will the incumbent be re-elected?"): {1, 0, 0},
		CleanQuestion("Does Biden stay in office?"):        {1, 0, 0},
	}}
	m := New(config.MatchingConfig{SimilarityThreshold: 0.8}, emb, slog.Default())

	matches, err := m.FindMatches(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "Will the incumbent be re-elected?")},
		[]domain.ListingSnapshot{kalshi("k1", "Does Biden stay in office?")})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.MatchSemantic, matches[0].MatchType)
	assert.InDelta(t, 1.0, matches[0].Confidence, 1e-9)
}

func TestSimilaritiesRankedAndFlagged(t *testing.T) {
	m := newTestMatcher(t, config.MatchingConfig{
		Excluded: []domain.ExcludedPair{{PolyID: "p1", KalshiID: "k2"}},
	})

	reports, err := m.Similarities(context.Background(),
		[]domain.ListingSnapshot{poly("p1", "Will Trump win the 2024 election?")},
		[]domain.ListingSnapshot{
			kalshi("k1", "Will Trump win the 2024 election?"),
			kalshi("k2", "Will Trump win in 2024?"),
			kalshi("k3", "Heavy rain in Seattle this week?"),
		}, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// Best pair first; the weighted score of an exact fuzzy+keyword match
	// with no semantic backend is 0.4*1 + 0.2*1 = 0.6.
	assert.Equal(t, "k1", reports[0].Kalshi.ID)
	assert.InDelta(t, 0.6, reports[0].OverallScore, 1e-9)
	assert.Equal(t, domain.MatchFuzzy, reports[0].MatchType)
	assert.Contains(t, reports[0].Reasons, "Very similar wording and structure")
	assert.Contains(t, reports[0].CommonKeywords, "trump")
	assert.False(t, reports[0].Excluded)

	// Excluded pairs are still reported, flagged with a default reason.
	assert.Equal(t, "k2", reports[1].Kalshi.ID)
	assert.True(t, reports[1].Excluded)
	assert.Equal(t, "Manually excluded", reports[1].ExclusionReason)
}
