package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GammaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGammaClient(config.VenueConfig{BaseURL: srv.URL})
}

func TestGetListingsParsesMarkets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "volume24hr", q.Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "m1",
				"question": "Will Trump win the 2024 election?",
				"active": "true",
				"closed": false,
				"outcomes": "[\"Yes\",\"No\"]",
				"outcomePrices": "[\"0.45\",\"0.55\"]",
				"volume": "12500.5",
				"volume24hr": 980.25,
				"liquidity": "300",
				"endDateIso": "2024-11-05T00:00:00Z"
			},
			{
				"id": "m2",
				"question": "Closed market",
				"closed": true,
				"outcomes": "[\"Yes\",\"No\"]",
				"outcomePrices": "[\"0.9\",\"0.1\"]"
			},
			{
				"id": "m3",
				"question": "No price data yet"
			}
		]`))
	})

	listings, err := c.GetListings(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	m1 := listings[0]
	assert.Equal(t, domain.VenuePolymarket, m1.Venue)
	assert.Equal(t, "m1", m1.ID)
	assert.Equal(t, "Will Trump win the 2024 election?", m1.Question)
	assert.Equal(t, 0.45, m1.YesPrice)
	assert.Equal(t, 0.55, m1.NoPrice)
	assert.Equal(t, 980.25, m1.Volume24h)
	assert.Equal(t, 300.0, m1.Liquidity)
	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), m1.EndDate)
	assert.False(t, m1.FetchedAt.IsZero())
	assert.True(t, m1.PricesValid())

	m3 := listings[1]
	assert.Equal(t, "m3", m3.ID)
	assert.False(t, m3.HasPrices())
	assert.True(t, m3.EndDate.IsZero())
}

func TestGetListingsFallsBackToTotalVolume(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "m1", "question": "q", "volume": "500"}]`))
	})

	listings, err := c.GetListings(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, 500.0, listings[0].Volume24h)
}

func TestGetListingsStatusErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		want   error
	}{
		"not found":    {http.StatusNotFound, domain.ErrNotFound},
		"unauthorized": {http.StatusForbidden, domain.ErrUnauthorized},
		"rate limited": {http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := c.GetListings(context.Background(), 5)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
		})
	}
}

func TestGetListingsServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	_, err := c.GetListings(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestToListingNonBinaryOutcomes(t *testing.T) {
	m := APIMarket{
		ID:            "m9",
		Question:      "Who wins the championship?",
		Outcomes:      `["Lakers","Celtics","Other"]`,
		OutcomePrices: `["0.4","0.35","0.25"]`,
	}

	l := m.ToListing(time.Now())
	assert.Zero(t, l.YesPrice)
	assert.Zero(t, l.NoPrice)
	assert.False(t, l.HasPrices())
}

func TestVenue(t *testing.T) {
	c := NewGammaClient(config.VenueConfig{})
	assert.Equal(t, domain.VenuePolymarket, c.Venue())
}
