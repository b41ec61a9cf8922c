// Package monitor drives the periodic fetch → match → detect → persist →
// alert cycle and caches each cycle's result for cheap reads.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/alert"
	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/detector"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
	"github.com/alanyoungcy/arbmonitor/internal/matcher"
)

// Deps are the collaborators a Monitor is composed from. Stores, cache and
// alerts may be nil; the monitor degrades to in-memory operation.
type Deps struct {
	PolyProvider   domain.ListingProvider
	KalshiProvider domain.ListingProvider
	Matcher        *matcher.Matcher
	Detector       *detector.Detector
	Alerts         *alert.Manager
	Matches        domain.MatchStore
	Opportunities  domain.OpportunityStore
	Cycles         domain.CycleStore
	Cache          domain.OpportunityCache
	Notifier       alert.Notifier
}

// Monitor owns the background cycle loop. At most one cycle executes at a
// time; ForceUpdate and the periodic loop serialize on the same mutex.
type Monitor struct {
	interval           time.Duration
	stopTimeout        time.Duration
	batchSize          int
	minProfitThreshold float64

	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	cycleMu sync.Mutex // serializes cycle execution

	mu         sync.Mutex // guards the fields below
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	current    []domain.ArbitrageOpportunity
	lastUpdate time.Time
	metrics    counters
}

type counters struct {
	cycles          int64
	opportunities   int64
	apiCalls        int64
	processingTotal time.Duration
}

// New builds a Monitor. minProfitThreshold is the detector's filter floor,
// reused by performance reporting to compute the success rate.
func New(cfg config.MonitoringConfig, minProfitThreshold float64, deps Deps, logger *slog.Logger) *Monitor {
	return &Monitor{
		interval:           cfg.UpdateInterval.Duration,
		stopTimeout:        cfg.StopTimeout.Duration,
		batchSize:          cfg.BatchSize,
		minProfitThreshold: minProfitThreshold,
		deps:               deps,
		logger:             logger.With(slog.String("component", "monitor")),
		now:                time.Now,
	}
}

// Start launches the periodic cycle loop. Calling Start while already
// running logs a warning and does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.WarnContext(ctx, "monitoring is already running")
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go m.loop(loopCtx, done)
	m.logger.InfoContext(ctx, "arbitrage monitoring started",
		slog.Duration("interval", m.interval))
}

// Stop signals the loop to exit and waits up to the configured timeout for
// it to acknowledge. The monitor is considered stopped either way. Calling
// Stop while already stopped logs a warning and does nothing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Warn("monitoring is not running")
		return
	}
	m.running = false
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(m.stopTimeout):
		m.logger.Warn("monitoring loop did not stop in time",
			slog.Duration("timeout", m.stopTimeout))
	}
	m.logger.Info("arbitrage monitoring stopped")
}

// Running reports whether the periodic loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// loop runs cycles separated by the update interval. There is no catch-up
// scheduling; a slow cycle delays the next one by its own duration.
func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		m.runCycle(ctx)
		timer.Reset(m.interval)
	}
}

// ForceUpdate runs exactly one cycle synchronously, regardless of whether
// the periodic loop is running, and returns the cycle's opportunities. It
// blocks until any in-flight periodic cycle completes first.
func (m *Monitor) ForceUpdate(ctx context.Context) []domain.ArbitrageOpportunity {
	m.logger.InfoContext(ctx, "forcing immediate monitoring cycle")
	return m.runCycle(ctx)
}

// runCycle executes one cycle end to end, then swaps the cached result and
// updates the rolling counters. Never returns an error; failed cycles are
// recorded and yield an empty list.
func (m *Monitor) runCycle(ctx context.Context) []domain.ArbitrageOpportunity {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	start := m.now()
	opps, rec := m.cycle(ctx)
	rec.Timestamp = start.UTC()
	rec.Elapsed = m.now().Sub(start)

	if m.deps.Cycles != nil {
		if err := m.deps.Cycles.Log(ctx, rec); err != nil {
			m.logger.WarnContext(ctx, "failed to record cycle",
				slog.String("error", err.Error()))
		}
	}

	m.mu.Lock()
	m.current = opps
	m.lastUpdate = start
	m.metrics.cycles++
	m.metrics.opportunities += int64(len(opps))
	m.metrics.apiCalls += int64(rec.APICalls)
	m.metrics.processingTotal += rec.Elapsed
	cycleNum := m.metrics.cycles
	m.mu.Unlock()

	if m.deps.Cache != nil {
		if err := m.deps.Cache.SetCurrent(ctx, opps, start); err != nil {
			m.logger.WarnContext(ctx, "failed to refresh opportunity cache",
				slog.String("error", err.Error()))
		}
	}

	m.logger.InfoContext(ctx, "monitoring cycle completed",
		slog.Int64("cycle", cycleNum),
		slog.Int("opportunities", len(opps)),
		slog.Duration("elapsed", rec.Elapsed),
		slog.String("status", string(rec.Status)))
	return opps
}

// cycle performs the fetch/match/detect/persist/alert pipeline and reports
// what happened via the returned CycleRecord.
func (m *Monitor) cycle(ctx context.Context) ([]domain.ArbitrageOpportunity, domain.CycleRecord) {
	rec := domain.CycleRecord{Status: domain.CycleSuccess}

	poly, err := m.deps.PolyProvider.GetListings(ctx, m.batchSize)
	rec.APICalls++
	if err != nil {
		return nil, m.errorRecord(ctx, rec, "polymarket fetch failed", err)
	}
	kalshi, err := m.deps.KalshiProvider.GetListings(ctx, m.batchSize)
	rec.APICalls++
	if err != nil {
		return nil, m.errorRecord(ctx, rec, "kalshi fetch failed", err)
	}

	rec.PolyListings = len(poly)
	rec.KalshiListings = len(kalshi)
	rec.MarketsScanned = len(poly) + len(kalshi)

	if len(poly) == 0 || len(kalshi) == 0 {
		// A venue returning nothing is a quiet cycle, not a failure.
		m.logger.WarnContext(ctx, "no listings from one or both venues",
			slog.Int("poly", len(poly)), slog.Int("kalshi", len(kalshi)))
		rec.Status = domain.CycleWarning
		return nil, rec
	}

	matches, err := m.deps.Matcher.FindMatches(ctx, poly, kalshi)
	if err != nil {
		return nil, m.errorRecord(ctx, rec, "matching failed", err)
	}
	rec.MatchedPairs = len(matches)
	if len(matches) == 0 {
		m.logger.InfoContext(ctx, "no market matches found")
		return nil, rec
	}

	if m.deps.Matches != nil {
		for _, match := range matches {
			if err := m.deps.Matches.Upsert(ctx, match); err != nil {
				return nil, m.errorRecord(ctx, rec, "match persistence failed", err)
			}
		}
	}

	opps := m.deps.Detector.Detect(matches, domain.ListingsByID(poly), domain.ListingsByID(kalshi))
	rec.Opportunities = len(opps)

	if m.deps.Opportunities != nil {
		for i := range opps {
			id, err := m.deps.Opportunities.Insert(ctx, opps[i])
			if err != nil {
				return nil, m.errorRecord(ctx, rec, "opportunity persistence failed", err)
			}
			opps[i].ID = id
		}
	}

	if m.deps.Alerts != nil {
		m.deps.Alerts.Process(ctx, opps)
	}
	return opps, rec
}

func (m *Monitor) errorRecord(ctx context.Context, rec domain.CycleRecord, msg string, err error) domain.CycleRecord {
	m.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
	rec.Status = domain.CycleError
	rec.ErrorMessage = err.Error()
	rec.Opportunities = 0
	if m.deps.Notifier != nil {
		if nerr := m.deps.Notifier.Notify(ctx, alert.EventCycleError, "Monitoring Cycle Failed", err.Error()); nerr != nil {
			m.logger.WarnContext(ctx, "cycle error notification failed", slog.String("error", nerr.Error()))
		}
	}
	return rec
}

// CurrentOpportunities returns the latest completed cycle's opportunity
// list. Before the first cycle it falls back to recent persisted history.
func (m *Monitor) CurrentOpportunities(ctx context.Context) []domain.ArbitrageOpportunity {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if len(current) > 0 {
		return current
	}

	if m.deps.Opportunities != nil {
		opps, err := m.deps.Opportunities.ListRecent(ctx, 50)
		if err != nil {
			m.logger.WarnContext(ctx, "failed to load recent opportunities",
				slog.String("error", err.Error()))
			return nil
		}
		return opps
	}
	return nil
}

// TopOpportunities returns up to limit current opportunities ordered by
// total profit potential, best first.
func (m *Monitor) TopOpportunities(ctx context.Context, limit int) []domain.ArbitrageOpportunity {
	opps := m.CurrentOpportunities(ctx)
	sorted := make([]domain.ArbitrageOpportunity, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ProfitPotential > sorted[j].ProfitPotential
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// OpportunityByMarkets returns the cached opportunity for a market pair, or
// domain.ErrNotFound when the pair is not in the current cycle's output.
func (m *Monitor) OpportunityByMarkets(polyID, kalshiID string) (domain.ArbitrageOpportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, opp := range m.current {
		if opp.PolyID == polyID && opp.KalshiID == kalshiID {
			return opp, nil
		}
	}
	return domain.ArbitrageOpportunity{}, domain.ErrNotFound
}

// Similarities fetches fresh listings from both venues and returns the topN
// most similar cross-venue pairs for inspection.
func (m *Monitor) Similarities(ctx context.Context, topN int) ([]domain.SimilarityReport, error) {
	poly, err := m.deps.PolyProvider.GetListings(ctx, m.batchSize)
	if err != nil {
		return nil, err
	}
	kalshi, err := m.deps.KalshiProvider.GetListings(ctx, m.batchSize)
	if err != nil {
		return nil, err
	}
	if len(poly) == 0 || len(kalshi) == 0 {
		m.logger.WarnContext(ctx, "no market data available for similarity analysis")
		return nil, nil
	}
	return m.deps.Matcher.Similarities(ctx, poly, kalshi, topN)
}
