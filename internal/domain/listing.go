package domain

import "time"

// Venue identifies one of the two trading platforms being compared.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// ListingSnapshot is a normalized view of one binary market on one venue at
// fetch time. It is produced by the platform clients and consumed by the
// matcher and detector; the core never mutates it.
type ListingSnapshot struct {
	Venue     Venue     `json:"venue"`
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	YesPrice  float64   `json:"yes_price"`
	NoPrice   float64   `json:"no_price"`
	Volume24h float64   `json:"volume_24h"`
	Liquidity float64   `json:"liquidity,omitempty"`
	EndDate   time.Time `json:"end_date,omitzero"`
	FetchedAt time.Time `json:"fetched_at"`
}

// HasPrices reports whether both outcome prices are present (non-zero).
// Missing price data is tolerated here; the detector rejects such snapshots
// before any arithmetic.
func (l ListingSnapshot) HasPrices() bool {
	return l.YesPrice > 0 && l.NoPrice > 0
}

// PricesValid reports whether both prices are in (0,1] and the yes+no sum is
// within the [0.95, 1.05] consistency band.
func (l ListingSnapshot) PricesValid() bool {
	if l.YesPrice <= 0 || l.YesPrice > 1.0 || l.NoPrice <= 0 || l.NoPrice > 1.0 {
		return false
	}
	sum := l.YesPrice + l.NoPrice
	return sum >= 0.95 && sum <= 1.05
}

// ListingsByID indexes a slice of snapshots by listing ID. Later duplicates
// overwrite earlier ones.
func ListingsByID(listings []ListingSnapshot) map[string]ListingSnapshot {
	out := make(map[string]ListingSnapshot, len(listings))
	for _, l := range listings {
		out[l.ID] = l
	}
	return out
}
