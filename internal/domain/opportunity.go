package domain

import "time"

// Strategy is the trade direction of an opportunity.
type Strategy string

const (
	// BuyPolySellKalshi buys the outcome on Polymarket and sells it on Kalshi.
	BuyPolySellKalshi Strategy = "buy_poly_sell_kalshi"
	// BuyKalshiSellPoly buys the outcome on Kalshi and sells it on Polymarket.
	BuyKalshiSellPoly Strategy = "buy_kalshi_sell_poly"
)

// Outcome is one of the two binary resolution sides of a prediction market.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// ArbitrageOpportunity is one fee- and slippage-adjusted cross-venue trade
// candidate. Instances are created fresh each detection cycle and are not
// mutated after creation except for the detector stamping RankScore.
type ArbitrageOpportunity struct {
	ID             string `json:"id,omitempty"`
	PolyID         string `json:"poly_id"`
	KalshiID       string `json:"kalshi_id"`
	PolyQuestion   string `json:"poly_question"`
	KalshiQuestion string `json:"kalshi_question"`

	PolyYesPrice   float64 `json:"poly_yes_price"`
	PolyNoPrice    float64 `json:"poly_no_price"`
	KalshiYesPrice float64 `json:"kalshi_yes_price"`
	KalshiNoPrice  float64 `json:"kalshi_no_price"`

	PolyVolume   float64 `json:"poly_volume"`
	KalshiVolume float64 `json:"kalshi_volume"`

	Strategy Strategy `json:"strategy"`
	Outcome  Outcome  `json:"outcome"`

	// ProfitPotential is the fee-adjusted total profit across the full
	// position. SlippageAdjustedProfit additionally applies the slippage
	// haircut; FeeAdjustedProfit equals ProfitPotential and is kept as a
	// separate column for history queries.
	ProfitPotential        float64 `json:"profit_potential"`
	FeeAdjustedProfit      float64 `json:"fee_adjusted_profit"`
	SlippageAdjustedProfit float64 `json:"slippage_adjusted_profit"`
	ProfitPercentage       float64 `json:"profit_percentage"`
	RequiredCapital        float64 `json:"required_capital"`
	MaxPositionSize        float64 `json:"max_position_size"`

	ConfidenceScore float64 `json:"confidence_score"`
	MatchConfidence float64 `json:"match_confidence"`

	// RankScore is the weighted composite used to order surviving
	// opportunities. It is computed once during ranking and carried as a
	// first-class field, never re-parsed out of Notes.
	RankScore float64 `json:"rank_score"`

	DetectedAt time.Time  `json:"detected_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Expired reports whether the opportunity carries an expiry that has passed.
func (o ArbitrageOpportunity) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// SuppressionKey identifies an opportunity for alert cooldown purposes.
func (o ArbitrageOpportunity) SuppressionKey() string {
	return o.PolyID + "_" + o.KalshiID + "_" + string(o.Outcome)
}

// OpportunitySummary aggregates a batch of detected opportunities.
type OpportunitySummary struct {
	Total                int                   `json:"total_opportunities"`
	TotalProfit          float64               `json:"total_potential_profit"`
	AvgProfitPercentage  float64               `json:"average_profit_percentage"`
	HighestProfit        *ArbitrageOpportunity `json:"highest_profit_opportunity,omitempty"`
	TotalRequiredCapital float64               `json:"total_required_capital"`
	ByStrategy           map[Strategy]int      `json:"by_strategy"`
	ByOutcome            map[Outcome]int       `json:"by_outcome"`
}
