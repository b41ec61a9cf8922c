package domain

import "time"

// MatchType records which method produced a match candidate.
type MatchType string

const (
	MatchManual   MatchType = "manual"
	MatchFuzzy    MatchType = "fuzzy"
	MatchSemantic MatchType = "semantic"
	MatchKeyword  MatchType = "keyword"
)

// MatchCandidate asserts that a Polymarket listing and a Kalshi listing refer
// to the same real-world event. Candidates are immutable once returned by the
// matcher; one matching run consumes each listing ID by at most one automatic
// match, with manual pairs applied first.
type MatchCandidate struct {
	PolyID         string    `json:"poly_id"`
	KalshiID       string    `json:"kalshi_id"`
	PolyQuestion   string    `json:"poly_question"`
	KalshiQuestion string    `json:"kalshi_question"`
	Confidence     float64   `json:"confidence"`
	MatchType      MatchType `json:"match_type"`
	Notes          string    `json:"notes,omitempty"`
	MatchedAt      time.Time `json:"matched_at"`
}

// ManualPair is an operator-asserted equivalence between two listings,
// applied before automatic matching. Confidence defaults to 1.0.
type ManualPair struct {
	PolyID     string  `toml:"poly_id" json:"poly_id"`
	KalshiID   string  `toml:"kalshi_id" json:"kalshi_id"`
	Confidence float64 `toml:"confidence" json:"confidence"`
	Notes      string  `toml:"notes" json:"notes,omitempty"`
}

// ExcludedPair marks a listing pair that must never be matched automatically,
// regardless of similarity score.
type ExcludedPair struct {
	PolyID   string `toml:"poly_id" json:"poly_id"`
	KalshiID string `toml:"kalshi_id" json:"kalshi_id"`
	Reason   string `toml:"reason" json:"reason,omitempty"`
}

// SimilarityReport carries the full score breakdown for one listing pair.
// It exists purely for inspection and threshold tuning; automatic matching
// decisions never read it.
type SimilarityReport struct {
	Poly            ListingSnapshot `json:"poly"`
	Kalshi          ListingSnapshot `json:"kalshi"`
	FuzzyScore      float64         `json:"fuzzy_score"`
	SemanticScore   float64         `json:"semantic_score"`
	KeywordScore    float64         `json:"keyword_score"`
	OverallScore    float64         `json:"overall_score"`
	MatchType       MatchType       `json:"match_type"`
	CommonKeywords  []string        `json:"common_keywords"`
	Reasons         []string        `json:"reasons"`
	Excluded        bool            `json:"excluded"`
	ExclusionReason string          `json:"exclusion_reason,omitempty"`
}
