package monitor

import (
	"context"
	"fmt"
	"time"
)

// Status is a point-in-time snapshot of the monitor's rolling counters.
type Status struct {
	Running              bool          `json:"is_running"`
	LastUpdate           time.Time     `json:"last_update,omitzero"`
	CycleCount           int64         `json:"cycle_count"`
	TotalOpportunities   int64         `json:"total_opportunities_found"`
	CurrentOpportunities int           `json:"current_opportunities"`
	AverageCycleTime     time.Duration `json:"average_cycle_time"`
	APICallsMade         int64         `json:"api_calls_made"`
}

// Performance is a time-windowed report derived from persisted opportunity
// history rather than the in-memory cache.
type Performance struct {
	TotalOpportunities      int           `json:"total_opportunities"`
	TotalPotentialProfit    float64       `json:"total_potential_profit"`
	AverageProfitPercentage float64       `json:"average_profit_percentage"`
	// SuccessRate is the fraction of opportunities whose profit percentage
	// met the detector's minimum threshold.
	SuccessRate           float64       `json:"success_rate"`
	TotalAPICalls         int64         `json:"total_api_calls"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	TimePeriodHours       int           `json:"time_period_hours"`
	OpportunitiesPerHour  float64       `json:"opportunities_per_hour"`
	AvgConfidence         float64       `json:"avg_confidence"`
	MaxProfitPercentage   float64       `json:"max_profit_opportunity"`
	MinProfitPercentage   float64       `json:"min_profit_opportunity"`
}

// Status returns the monitor's current state and cumulative counters.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	avg := time.Duration(0)
	if m.metrics.cycles > 0 {
		avg = m.metrics.processingTotal / time.Duration(m.metrics.cycles)
	}
	return Status{
		Running:              m.running,
		LastUpdate:           m.lastUpdate,
		CycleCount:           m.metrics.cycles,
		TotalOpportunities:   m.metrics.opportunities,
		CurrentOpportunities: len(m.current),
		AverageCycleTime:     avg,
		APICallsMade:         m.metrics.apiCalls,
	}
}

// Performance computes windowed metrics over the opportunities persisted in
// the last hours hours. An empty window yields a zeroed report.
func (m *Monitor) Performance(ctx context.Context, hours int) (Performance, error) {
	if m.deps.Opportunities == nil {
		return Performance{TimePeriodHours: hours}, nil
	}

	since := m.now().Add(-time.Duration(hours) * time.Hour)
	opps, err := m.deps.Opportunities.ListSince(ctx, since)
	if err != nil {
		return Performance{}, fmt.Errorf("monitor: load opportunity history: %w", err)
	}

	perf := Performance{TimePeriodHours: hours}
	if len(opps) == 0 {
		return perf, nil
	}

	m.mu.Lock()
	perf.TotalAPICalls = m.metrics.apiCalls
	if m.metrics.cycles > 0 {
		perf.AverageProcessingTime = m.metrics.processingTotal / time.Duration(m.metrics.cycles)
	}
	m.mu.Unlock()

	perf.TotalOpportunities = len(opps)
	perf.MaxProfitPercentage = opps[0].ProfitPercentage
	perf.MinProfitPercentage = opps[0].ProfitPercentage

	var totalPct, totalConfidence float64
	successes := 0
	for _, opp := range opps {
		perf.TotalPotentialProfit += opp.ProfitPotential
		totalPct += opp.ProfitPercentage
		totalConfidence += opp.ConfidenceScore
		if opp.ProfitPercentage >= m.minProfitThreshold {
			successes++
		}
		if opp.ProfitPercentage > perf.MaxProfitPercentage {
			perf.MaxProfitPercentage = opp.ProfitPercentage
		}
		if opp.ProfitPercentage < perf.MinProfitPercentage {
			perf.MinProfitPercentage = opp.ProfitPercentage
		}
	}

	n := float64(len(opps))
	perf.AverageProfitPercentage = totalPct / n
	perf.AvgConfidence = totalConfidence / n
	perf.SuccessRate = float64(successes) / n
	if hours > 0 {
		perf.OpportunitiesPerHour = n / float64(hours)
	}
	return perf, nil
}
