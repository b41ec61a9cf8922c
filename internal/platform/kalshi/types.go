package kalshi

import (
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// KalshiMarket represents a market as returned by the Kalshi REST API.
// All prices are quoted in cents (1-99).
type KalshiMarket struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	Volume24H      int64   `json:"volume_24h"`
	Liquidity      int64   `json:"liquidity"`
	OpenInterest   int64   `json:"open_interest"`
	Category       string  `json:"category"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
	CanCloseEarly  bool    `json:"can_close_early"`
	OpenTime       string  `json:"open_time"`
	CloseTime      string  `json:"close_time"`
	ExpirationTime string  `json:"expiration_time"`
}

// KalshiErrorResponse represents a Kalshi API error response.
type KalshiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToListing converts a Kalshi market to a listing snapshot, converting
// cent-denominated bids to dollar probabilities. A market with a zero bid on
// either side yields a snapshot without prices.
func (m *KalshiMarket) ToListing(fetchedAt time.Time) domain.ListingSnapshot {
	l := domain.ListingSnapshot{
		Venue:     domain.VenueKalshi,
		ID:        m.Ticker,
		Question:  m.Title,
		YesPrice:  m.YesBid / 100,
		NoPrice:   m.NoBid / 100,
		Volume24h: float64(m.Volume24H),
		Liquidity: float64(m.Liquidity),
		FetchedAt: fetchedAt,
	}
	if l.Volume24h == 0 {
		l.Volume24h = float64(m.Volume)
	}

	if m.CloseTime != "" {
		if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
			l.EndDate = t
		}
	}

	return l
}
