package domain

import (
	"context"
	"time"
)

// ListingProvider fetches current listings from one venue. Implementations
// own their HTTP/timeout discipline; the monitor only counts calls and
// tolerates empty results.
type ListingProvider interface {
	// GetListings returns up to limit normalized listing snapshots.
	GetListings(ctx context.Context, limit int) ([]ListingSnapshot, error)
	// Venue identifies which platform this provider serves.
	Venue() Venue
}

// MatchStore persists matched market pairs with upsert semantics keyed on
// (poly_id, kalshi_id).
type MatchStore interface {
	Upsert(ctx context.Context, match MatchCandidate) error
	List(ctx context.Context, limit int) ([]MatchCandidate, error)
}

// OpportunityStore persists detected arbitrage opportunities.
type OpportunityStore interface {
	// Insert stores an opportunity and returns its assigned ID.
	Insert(ctx context.Context, opp ArbitrageOpportunity) (string, error)
	ListRecent(ctx context.Context, limit int) ([]ArbitrageOpportunity, error)
	ListSince(ctx context.Context, since time.Time) ([]ArbitrageOpportunity, error)
	// ListBefore returns opportunities detected before cutoff, oldest first,
	// for archival. DeleteBefore prunes them afterwards.
	ListBefore(ctx context.Context, cutoff time.Time) ([]ArbitrageOpportunity, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CycleStore persists per-cycle monitoring records.
type CycleStore interface {
	Log(ctx context.Context, rec CycleRecord) error
	ListSince(ctx context.Context, since time.Time) ([]CycleRecord, error)
	// ListBefore returns cycle records older than cutoff, oldest first,
	// for archival. DeleteBefore prunes them afterwards.
	ListBefore(ctx context.Context, cutoff time.Time) ([]CycleRecord, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OpportunityCache mirrors the latest cycle's ranked opportunity list for
// cheap reads by dashboards that should not touch Postgres.
type OpportunityCache interface {
	SetCurrent(ctx context.Context, opps []ArbitrageOpportunity, updatedAt time.Time) error
	GetCurrent(ctx context.Context) ([]ArbitrageOpportunity, time.Time, error)
}

// BlobWriter uploads archive objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}

// RateLimiter gates requests per key within a sliding window. Allow reports
// whether the request is permitted and counts it when it is.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
