package matcher

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/embed"
)

// Weights for the blended similarity score used in diagnostic reports.
const (
	fuzzyWeight    = 0.4
	semanticWeight = 0.4
	keywordWeight  = 0.2
)

// FuzzyScore returns a 0-1 token-sort similarity of two cleaned questions.
func FuzzyScore(q1, q2 string) float64 {
	a := CleanQuestion(q1)
	b := CleanQuestion(q2)
	return float64(fuzzy.TokenSortRatio(a, b)) / 100.0
}

// KeywordScore returns the Jaccard similarity of the two questions'
// keyword sets. Empty keyword sets score 0.
func KeywordScore(q1, q2 string) float64 {
	w1 := keywords(q1, false)
	w2 := keywords(q2, false)
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}
	inter := 0
	for w := range w1 {
		if w2[w] {
			inter++
		}
	}
	union := len(w1) + len(w2) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// semanticScore returns the cosine similarity of two precomputed question
// vectors, or 0 when either vector is missing.
func semanticScore(v1, v2 []float32) float64 {
	if v1 == nil || v2 == nil {
		return 0
	}
	return embed.Cosine(v1, v2)
}

// similarityReasons turns the three component scores into the short
// human-readable explanations shown next to a similarity report.
func similarityReasons(q1, q2 string, fuzzyScore, semScore, kwScore float64) []string {
	var reasons []string

	switch {
	case fuzzyScore > 0.8:
		reasons = append(reasons, "Very similar wording and structure")
	case fuzzyScore > 0.6:
		reasons = append(reasons, "Similar wording with some differences")
	case fuzzyScore > 0.4:
		reasons = append(reasons, "Some common phrases detected")
	}

	switch {
	case semScore > 0.8:
		reasons = append(reasons, "Very similar meaning and context")
	case semScore > 0.6:
		reasons = append(reasons, "Similar conceptual meaning")
	case semScore > 0.4:
		reasons = append(reasons, "Some semantic overlap")
	}

	switch {
	case kwScore > 0.7:
		reasons = append(reasons, "Many shared keywords")
	case kwScore > 0.5:
		reasons = append(reasons, "Several common keywords")
	case kwScore > 0.3:
		reasons = append(reasons, "Some shared keywords")
	}

	l1 := strings.ToLower(q1)
	l2 := strings.ToLower(q2)
	if sharesAny(l1, l2, "election", "vote", "win", "president") {
		reasons = append(reasons, "Both relate to elections/politics")
	} else if sharesAny(l1, l2, "price", "market", "stock", "crypto") {
		reasons = append(reasons, "Both relate to financial markets")
	} else if sharesAny(l1, l2, "sports", "team", "game", "season") {
		reasons = append(reasons, "Both relate to sports events")
	}

	if len(reasons) == 0 {
		return []string{"Low similarity detected"}
	}
	return reasons
}

// sharesAny reports whether any of the patterns occurs in both strings.
func sharesAny(s1, s2 string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s1, p) && strings.Contains(s2, p) {
			return true
		}
	}
	return false
}

// dominantMatchType picks the match type for a report from its component
// scores, preferring fuzzy then semantic on ties.
func dominantMatchType(fuzzyScore, semScore, kwScore float64) domain.MatchType {
	best := fuzzyScore
	if semScore > best {
		best = semScore
	}
	if kwScore > best {
		best = kwScore
	}
	switch {
	case best == fuzzyScore:
		return domain.MatchFuzzy
	case best == semScore:
		return domain.MatchSemantic
	default:
		return domain.MatchKeyword
	}
}
