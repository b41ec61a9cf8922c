package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or numeric string. Gamma volume
// and liquidity fields come back as either.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes and OutcomePrices arrive as JSON-encoded arrays inside strings.
type APIMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Description   string    `json:"description"`
	Slug          string    `json:"slug"`
	Active        flexBool  `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool      `json:"closed"`
	Outcomes      string    `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string    `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Volume        flexFloat `json:"volume"`
	Volume24hr    flexFloat `json:"volume24hr"`
	Liquidity     flexFloat `json:"liquidity"`
	EndDateISO    string    `json:"endDateIso"`
}

// ToListing converts a Gamma APIMarket to a listing snapshot. Markets whose
// outcome prices cannot be parsed keep zero prices; the price fields are an
// outcome-name lookup, not positional, so non-binary markets simply leave
// both at zero.
func (m *APIMarket) ToListing(fetchedAt time.Time) domain.ListingSnapshot {
	l := domain.ListingSnapshot{
		Venue:     domain.VenuePolymarket,
		ID:        m.ID,
		Question:  m.Question,
		Volume24h: float64(m.Volume24hr),
		Liquidity: float64(m.Liquidity),
		FetchedAt: fetchedAt,
	}
	if l.Volume24h == 0 {
		l.Volume24h = float64(m.Volume)
	}

	if m.EndDateISO != "" {
		if t, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
			l.EndDate = t
		}
	}

	yes, no, ok := m.outcomePrices()
	if ok {
		l.YesPrice = yes
		l.NoPrice = no
	}

	return l
}

// outcomePrices decodes the doubly-encoded outcome arrays and maps prices to
// the Yes/No outcomes by name.
func (m *APIMarket) outcomePrices() (yes, no float64, ok bool) {
	if m.Outcomes == "" || m.OutcomePrices == "" {
		return 0, 0, false
	}

	var names []string
	if err := json.Unmarshal([]byte(m.Outcomes), &names); err != nil {
		return 0, 0, false
	}
	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil {
		return 0, 0, false
	}

	for i, name := range names {
		if i >= len(prices) {
			break
		}
		p, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(name) {
		case "yes":
			yes = p
			ok = true
		case "no":
			no = p
			ok = true
		}
	}

	return yes, no, ok
}
