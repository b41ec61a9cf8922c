package domain

import "time"

// CycleStatus is the outcome of one monitoring cycle.
type CycleStatus string

const (
	CycleSuccess CycleStatus = "success"
	CycleError   CycleStatus = "error"
	CycleWarning CycleStatus = "warning"
)

// CycleRecord summarizes one end-to-end monitoring cycle for the audit trail.
// One record is created per cycle, including quiet and failed cycles.
type CycleRecord struct {
	Timestamp      time.Time     `json:"timestamp"`
	Opportunities  int           `json:"opportunities_detected"`
	MarketsScanned int           `json:"markets_analyzed"`
	APICalls       int           `json:"api_calls_made"`
	Elapsed        time.Duration `json:"processing_time"`
	Status         CycleStatus   `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	PolyListings   int           `json:"poly_listings"`
	KalshiListings int           `json:"kalshi_listings"`
	MatchedPairs   int           `json:"matched_pairs"`
}
