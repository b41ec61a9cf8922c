// Package matcher pairs up listings from different venues that refer to the
// same real-world event. Manual pairs win outright; the remainder is matched
// automatically by the best of fuzzy, semantic and keyword similarity.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/embed"
)

// Matcher finds equivalent listings across venues.
type Matcher struct {
	threshold float64
	manual    map[string]domain.ManualPair
	excluded  map[string]domain.ExcludedPair
	embedder  embed.Embedder
	logger    *slog.Logger
}

// New builds a Matcher from the matching configuration. embedder may be nil,
// in which case semantic similarity always scores zero.
func New(cfg config.MatchingConfig, embedder embed.Embedder, logger *slog.Logger) *Matcher {
	m := &Matcher{
		threshold: cfg.SimilarityThreshold,
		manual:    make(map[string]domain.ManualPair, len(cfg.Pairs)),
		excluded:  make(map[string]domain.ExcludedPair, len(cfg.Excluded)),
		embedder:  embedder,
		logger:    logger.With(slog.String("component", "matcher")),
	}
	for _, p := range cfg.Pairs {
		m.manual[pairKey(p.PolyID, p.KalshiID)] = p
	}
	for _, p := range cfg.Excluded {
		m.excluded[pairKey(p.PolyID, p.KalshiID)] = p
	}
	return m
}

func pairKey(polyID, kalshiID string) string {
	return polyID + "_" + kalshiID
}

// FindMatches pairs Polymarket listings with Kalshi listings. Manual pairs
// are emitted first; listings they consume are withheld from automatic
// matching. Each remaining Polymarket listing is then matched to its single
// best-scoring Kalshi listing, kept only when the score clears the
// similarity threshold.
func (m *Matcher) FindMatches(ctx context.Context, poly, kalshi []domain.ListingSnapshot) ([]domain.MatchCandidate, error) {
	manual := m.manualMatches(poly, kalshi)

	matchedPoly := make(map[string]bool, len(manual))
	matchedKalshi := make(map[string]bool, len(manual))
	for _, c := range manual {
		matchedPoly[c.PolyID] = true
		matchedKalshi[c.KalshiID] = true
	}

	var remainingPoly, remainingKalshi []domain.ListingSnapshot
	for _, l := range poly {
		if !matchedPoly[l.ID] {
			remainingPoly = append(remainingPoly, l)
		}
	}
	for _, l := range kalshi {
		if !matchedKalshi[l.ID] {
			remainingKalshi = append(remainingKalshi, l)
		}
	}

	auto, err := m.automaticMatches(ctx, remainingPoly, remainingKalshi)
	if err != nil {
		return nil, err
	}

	matches := append(manual, auto...)
	m.logger.InfoContext(ctx, "matching complete",
		slog.Int("total", len(matches)),
		slog.Int("manual", len(manual)),
		slog.Int("automatic", len(auto)))
	return matches, nil
}

func (m *Matcher) manualMatches(poly, kalshi []domain.ListingSnapshot) []domain.MatchCandidate {
	polyByID := domain.ListingsByID(poly)
	kalshiByID := domain.ListingsByID(kalshi)

	keys := make([]string, 0, len(m.manual))
	for k := range m.manual {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var matches []domain.MatchCandidate
	for _, k := range keys {
		pair := m.manual[k]
		p, okP := polyByID[pair.PolyID]
		q, okK := kalshiByID[pair.KalshiID]
		if !okP || !okK {
			continue
		}
		confidence := pair.Confidence
		if confidence == 0 {
			confidence = 1.0
		}
		matches = append(matches, domain.MatchCandidate{
			PolyID:         pair.PolyID,
			KalshiID:       pair.KalshiID,
			PolyQuestion:   p.Question,
			KalshiQuestion: q.Question,
			Confidence:     confidence,
			MatchType:      domain.MatchManual,
			Notes:          pair.Notes,
			MatchedAt:      time.Now().UTC(),
		})
	}
	return matches
}

func (m *Matcher) automaticMatches(ctx context.Context, poly, kalshi []domain.ListingSnapshot) ([]domain.MatchCandidate, error) {
	polyVecs, kalshiVecs := m.embedQuestions(ctx, poly, kalshi)

	var matches []domain.MatchCandidate
	for i, p := range poly {
		if p.ID == "" || p.Question == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("matcher: %w", err)
		}

		var (
			best       *domain.ListingSnapshot
			bestScore  float64
			bestMethod domain.MatchType
		)
		for j := range kalshi {
			k := kalshi[j]
			if k.ID == "" || k.Question == "" {
				continue
			}
			if _, ok := m.excluded[pairKey(p.ID, k.ID)]; ok {
				continue
			}

			if s := FuzzyScore(p.Question, k.Question); s > bestScore {
				bestScore, best, bestMethod = s, &kalshi[j], domain.MatchFuzzy
			}
			if polyVecs != nil {
				if s := semanticScore(polyVecs[i], kalshiVecs[j]); s > bestScore {
					bestScore, best, bestMethod = s, &kalshi[j], domain.MatchSemantic
				}
			}
			if s := KeywordScore(p.Question, k.Question); s > bestScore {
				bestScore, best, bestMethod = s, &kalshi[j], domain.MatchKeyword
			}
		}

		if best != nil && bestScore >= m.threshold {
			matches = append(matches, domain.MatchCandidate{
				PolyID:         p.ID,
				KalshiID:       best.ID,
				PolyQuestion:   p.Question,
				KalshiQuestion: best.Question,
				Confidence:     bestScore,
				MatchType:      bestMethod,
				Notes:          fmt.Sprintf("Auto-matched using %s (score: %.3f)", bestMethod, bestScore),
				MatchedAt:      time.Now().UTC(),
			})
		}
	}
	return matches, nil
}

// embedQuestions embeds both listing sets in one batch per side. Embedding
// failure is not fatal; semantic scores simply drop to zero for the run.
func (m *Matcher) embedQuestions(ctx context.Context, poly, kalshi []domain.ListingSnapshot) ([][]float32, [][]float32) {
	if m.embedder == nil || len(poly) == 0 || len(kalshi) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(poly)+len(kalshi))
	for _, l := range poly {
		texts = append(texts, CleanQuestion(l.Question))
	}
	for _, l := range kalshi {
		texts = append(texts, CleanQuestion(l.Question))
	}

	vecs, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		m.logger.WarnContext(ctx, "embedding failed, semantic scores disabled for this run",
			slog.String("error", err.Error()))
		return nil, nil
	}
	return vecs[:len(poly)], vecs[len(poly):]
}

// Similarities scores every cross-venue listing pair and returns the topN
// reports ordered by blended score. Excluded pairs are reported and flagged
// rather than dropped.
func (m *Matcher) Similarities(ctx context.Context, poly, kalshi []domain.ListingSnapshot, topN int) ([]domain.SimilarityReport, error) {
	polyVecs, kalshiVecs := m.embedQuestions(ctx, poly, kalshi)

	reports := make([]domain.SimilarityReport, 0, len(poly)*len(kalshi))
	for i, p := range poly {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("matcher: %w", err)
		}
		for j, k := range kalshi {
			fuzzyScore := FuzzyScore(p.Question, k.Question)
			var semScore float64
			if polyVecs != nil {
				semScore = semanticScore(polyVecs[i], kalshiVecs[j])
			}
			kwScore := KeywordScore(p.Question, k.Question)

			report := domain.SimilarityReport{
				Poly:           p,
				Kalshi:         k,
				FuzzyScore:     fuzzyScore,
				SemanticScore:  semScore,
				KeywordScore:   kwScore,
				OverallScore:   fuzzyScore*fuzzyWeight + semScore*semanticWeight + kwScore*keywordWeight,
				MatchType:      dominantMatchType(fuzzyScore, semScore, kwScore),
				CommonKeywords: CommonKeywords(p.Question, k.Question),
				Reasons:        similarityReasons(p.Question, k.Question, fuzzyScore, semScore, kwScore),
			}
			if ex, ok := m.excluded[pairKey(p.ID, k.ID)]; ok {
				report.Excluded = true
				report.ExclusionReason = ex.Reason
				if report.ExclusionReason == "" {
					report.ExclusionReason = "Manually excluded"
				}
			}
			reports = append(reports, report)
		}
	}

	sort.SliceStable(reports, func(a, b int) bool {
		return reports[a].OverallScore > reports[b].OverallScore
	})
	if topN > 0 && len(reports) > topN {
		reports = reports[:topN]
	}
	return reports, nil
}
