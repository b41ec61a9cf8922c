package matcher

import (
	"regexp"
	"sort"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Strip everything except word characters, whitespace and basic
	// punctuation that carries meaning in market questions.
	punctuationRe = regexp.MustCompile(`[^\w\s?.!\-:]`)
)

// stopWords are dropped before keyword comparison.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "will": true,
	"be": true, "is": true, "are": true, "was": true, "were": true,
}

// CleanQuestion normalizes a market question for comparison: collapses
// whitespace, strips noisy punctuation and shortens year mentions so
// "2024"/"24" style variants line up across venues.
func CleanQuestion(q string) string {
	q = whitespaceRe.ReplaceAllString(strings.TrimSpace(q), " ")
	q = punctuationRe.ReplaceAllString(q, "")
	q = strings.ReplaceAll(q, "2024", "24")
	q = strings.ReplaceAll(q, "2025", "25")
	return q
}

// keywords returns the lowercased non-stopword tokens of a cleaned question.
// Tokens of three or more characters only when longOnly is set.
func keywords(q string, longOnly bool) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(CleanQuestion(q))) {
		if stopWords[w] {
			continue
		}
		if longOnly && len(w) <= 2 {
			continue
		}
		out[w] = true
	}
	return out
}

// CommonKeywords returns the sorted keywords shared by two questions,
// considering only tokens longer than two characters.
func CommonKeywords(q1, q2 string) []string {
	w1 := keywords(q1, true)
	w2 := keywords(q2, true)
	var common []string
	for w := range w1 {
		if w2[w] {
			common = append(common, w)
		}
	}
	sort.Strings(common)
	return common
}
