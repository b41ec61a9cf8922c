// Package detector turns matched listing pairs into ranked, fee- and
// slippage-adjusted arbitrage opportunities.
package detector

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// Detector evaluates matched market pairs for profitable price gaps.
type Detector struct {
	minProfitThreshold float64
	maxPositionSize    float64
	slippageBuffer     float64
	minTradeCapital    float64
	minConfidence      float64

	polyFeeRate     float64
	kalshiFeeRate   float64
	polyMinVolume   float64
	kalshiMinVolume float64

	logger *slog.Logger
	now    func() time.Time
}

// New builds a Detector from the arbitrage and per-venue configuration.
func New(cfg config.ArbitrageConfig, polyCfg, kalshiCfg config.VenueConfig, logger *slog.Logger) *Detector {
	return &Detector{
		minProfitThreshold: cfg.MinProfitThreshold,
		maxPositionSize:    cfg.MaxPositionSize,
		slippageBuffer:     cfg.SlippageBuffer,
		minTradeCapital:    cfg.MinTradeCapital,
		minConfidence:      cfg.MinConfidence,
		polyFeeRate:        polyCfg.FeeRate,
		kalshiFeeRate:      kalshiCfg.FeeRate,
		polyMinVolume:      polyCfg.MinVolume,
		kalshiMinVolume:    kalshiCfg.MinVolume,
		logger:             logger.With(slog.String("component", "detector")),
		now:                time.Now,
	}
}

// profitMetrics holds the per-trade economics of a single direction.
type profitMetrics struct {
	profitPotential        float64
	profitPercentage       float64
	requiredCapital        float64
	maxPositionSize        float64
	slippageAdjustedProfit float64
	feeAdjustedProfit      float64
}

// Detect evaluates every matched pair against the latest listing snapshots
// and returns the surviving opportunities filtered and ranked best-first.
func (d *Detector) Detect(matches []domain.MatchCandidate, polyByID, kalshiByID map[string]domain.ListingSnapshot) []domain.ArbitrageOpportunity {
	var opportunities []domain.ArbitrageOpportunity

	for _, match := range matches {
		p, okP := polyByID[match.PolyID]
		k, okK := kalshiByID[match.KalshiID]
		if !okP || !okK {
			continue
		}
		opportunities = append(opportunities, d.analyzePair(match, p, k)...)
	}

	filtered := d.filter(opportunities)
	d.rank(filtered)

	d.logger.Info("detection complete",
		slog.Int("candidates", len(opportunities)),
		slog.Int("opportunities", len(filtered)))
	return filtered
}

// analyzePair checks both outcomes of a matched pair in both trade
// directions. Pairs with incomplete prices, implausible price sums or thin
// volume produce nothing.
func (d *Detector) analyzePair(match domain.MatchCandidate, p, k domain.ListingSnapshot) []domain.ArbitrageOpportunity {
	if !p.HasPrices() || !k.HasPrices() {
		return nil
	}
	if !p.PricesValid() || !k.PricesValid() {
		return nil
	}
	if p.Volume24h < d.polyMinVolume || k.Volume24h < d.kalshiMinVolume {
		return nil
	}

	var opps []domain.ArbitrageOpportunity
	opps = append(opps, d.checkOutcome(match, p, k, domain.OutcomeYes, p.YesPrice, k.YesPrice)...)
	opps = append(opps, d.checkOutcome(match, p, k, domain.OutcomeNo, p.NoPrice, k.NoPrice)...)
	return opps
}

func (d *Detector) checkOutcome(match domain.MatchCandidate, p, k domain.ListingSnapshot, outcome domain.Outcome, polyPrice, kalshiPrice float64) []domain.ArbitrageOpportunity {
	var opps []domain.ArbitrageOpportunity
	volume := math.Min(p.Volume24h, k.Volume24h)

	if polyPrice < kalshiPrice {
		metrics := d.profit(polyPrice, kalshiPrice, d.polyFeeRate, d.kalshiFeeRate, volume)
		if metrics.profitPercentage >= d.minProfitThreshold {
			opp := d.buildOpportunity(match, p, k, outcome, domain.BuyPolySellKalshi, metrics)
			opp.Notes = fmt.Sprintf("Buy %s on Polymarket @ $%.3f, sell on Kalshi @ $%.3f", outcome, polyPrice, kalshiPrice)
			opps = append(opps, opp)
		}
	}
	if kalshiPrice < polyPrice {
		metrics := d.profit(kalshiPrice, polyPrice, d.kalshiFeeRate, d.polyFeeRate, volume)
		if metrics.profitPercentage >= d.minProfitThreshold {
			opp := d.buildOpportunity(match, p, k, outcome, domain.BuyKalshiSellPoly, metrics)
			opp.Notes = fmt.Sprintf("Buy %s on Kalshi @ $%.3f, sell on Polymarket @ $%.3f", outcome, kalshiPrice, polyPrice)
			opps = append(opps, opp)
		}
	}
	return opps
}

// profit computes the trade economics of buying at buyPrice and selling at
// sellPrice, scaled to the largest position the venues' shared volume and
// the configured capital limit allow.
func (d *Detector) profit(buyPrice, sellPrice, buyFeeRate, sellFeeRate, volume float64) profitMetrics {
	grossPerUnit := sellPrice - buyPrice
	totalFeesPerUnit := buyPrice*buyFeeRate + sellPrice*sellFeeRate
	netPerUnit := grossPerUnit - totalFeesPerUnit

	slippagePerUnit := (buyPrice + sellPrice) * d.slippageBuffer / 2
	slippageAdjustedPerUnit := netPerUnit - slippagePerUnit

	// Cap the position at 10% of the thinner venue's volume, $1000, and
	// the configured limit, whichever is smallest.
	maxPosition := math.Min(math.Min(volume*0.1, 1000), d.maxPositionSize)

	var units, profitPercentage float64
	if buyPrice > 0 {
		units = maxPosition / buyPrice
		profitPercentage = netPerUnit / buyPrice
	}

	return profitMetrics{
		profitPotential:        netPerUnit * units,
		profitPercentage:       profitPercentage,
		requiredCapital:        maxPosition,
		maxPositionSize:        maxPosition,
		slippageAdjustedProfit: slippageAdjustedPerUnit * units,
		feeAdjustedProfit:      netPerUnit * units,
	}
}

func (d *Detector) buildOpportunity(match domain.MatchCandidate, p, k domain.ListingSnapshot, outcome domain.Outcome, strategy domain.Strategy, metrics profitMetrics) domain.ArbitrageOpportunity {
	var expiresAt *time.Time
	if !p.EndDate.IsZero() {
		t := p.EndDate
		expiresAt = &t
	}
	return domain.ArbitrageOpportunity{
		PolyID:                 match.PolyID,
		KalshiID:               match.KalshiID,
		PolyQuestion:           match.PolyQuestion,
		KalshiQuestion:         match.KalshiQuestion,
		PolyYesPrice:           p.YesPrice,
		PolyNoPrice:            p.NoPrice,
		KalshiYesPrice:         k.YesPrice,
		KalshiNoPrice:          k.NoPrice,
		PolyVolume:             p.Volume24h,
		KalshiVolume:           k.Volume24h,
		Strategy:               strategy,
		Outcome:                outcome,
		ProfitPotential:        metrics.profitPotential,
		FeeAdjustedProfit:      metrics.feeAdjustedProfit,
		SlippageAdjustedProfit: metrics.slippageAdjustedProfit,
		ProfitPercentage:       metrics.profitPercentage,
		RequiredCapital:        metrics.requiredCapital,
		MaxPositionSize:        metrics.maxPositionSize,
		ConfidenceScore:        d.confidence(metrics, match.Confidence),
		MatchConfidence:        match.Confidence,
		DetectedAt:             d.now().UTC(),
		ExpiresAt:              expiresAt,
	}
}

// confidence blends match confidence with profit margin, position size and
// slippage resilience into a single 0-1 score.
func (d *Detector) confidence(metrics profitMetrics, matchConfidence float64) float64 {
	profitFactor := math.Min(metrics.profitPercentage/0.1, 1.0)
	volumeFactor := math.Min(metrics.maxPositionSize/1000, 1.0)

	slippageFactor := 0.1
	if metrics.profitPotential > 0 {
		slippageFactor = math.Max(0.1, metrics.slippageAdjustedProfit/metrics.profitPotential)
	}

	return math.Min(matchConfidence*profitFactor*volumeFactor*slippageFactor, 1.0)
}

// filter drops opportunities below the profit, capital and confidence
// floors, plus anything already expired.
func (d *Detector) filter(opps []domain.ArbitrageOpportunity) []domain.ArbitrageOpportunity {
	now := d.now()
	var kept []domain.ArbitrageOpportunity
	for _, opp := range opps {
		if opp.ProfitPercentage < d.minProfitThreshold {
			continue
		}
		if opp.RequiredCapital < d.minTradeCapital {
			continue
		}
		if opp.ConfidenceScore < d.minConfidence {
			continue
		}
		if opp.Expired(now) {
			continue
		}
		kept = append(kept, opp)
	}
	return kept
}

// rank stamps each opportunity with its composite score and sorts the slice
// best-first. Equal scores keep their detection order.
func (d *Detector) rank(opps []domain.ArbitrageOpportunity) {
	for i := range opps {
		opp := &opps[i]
		profitScore := math.Min(opp.ProfitPercentage/0.2, 1.0)
		positionScore := math.Min(opp.MaxPositionSize/1000, 1.0)
		opp.RankScore = profitScore*0.4 + opp.ConfidenceScore*0.3 + positionScore*0.2 + opp.MatchConfidence*0.1
	}
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].RankScore > opps[j].RankScore
	})
}

// Summary aggregates a batch of opportunities for display and notification.
func (d *Detector) Summary(opps []domain.ArbitrageOpportunity) domain.OpportunitySummary {
	summary := domain.OpportunitySummary{
		Total:      len(opps),
		ByStrategy: map[domain.Strategy]int{domain.BuyPolySellKalshi: 0, domain.BuyKalshiSellPoly: 0},
		ByOutcome:  map[domain.Outcome]int{domain.OutcomeYes: 0, domain.OutcomeNo: 0},
	}
	if len(opps) == 0 {
		return summary
	}

	var totalPct float64
	highest := 0
	for i, opp := range opps {
		summary.TotalProfit += opp.ProfitPotential
		summary.TotalRequiredCapital += opp.RequiredCapital
		totalPct += opp.ProfitPercentage
		summary.ByStrategy[opp.Strategy]++
		summary.ByOutcome[opp.Outcome]++
		if opp.ProfitPotential > opps[highest].ProfitPotential {
			highest = i
		}
	}
	summary.AvgProfitPercentage = totalPct / float64(len(opps))
	top := opps[highest]
	summary.HighestProfit = &top
	return summary
}
