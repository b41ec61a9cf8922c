package alert

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

type recordingNotifier struct {
	events   []string
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(_ context.Context, event, _, message string) error {
	r.events = append(r.events, event)
	r.messages = append(r.messages, message)
	return r.err
}

func newTestManager(notifier Notifier) (*Manager, *time.Time) {
	cfg := config.Defaults().Alerts
	m := New(cfg, notifier, slog.Default())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func opportunity(polyID, kalshiID string, outcome domain.Outcome, profitPct float64) domain.ArbitrageOpportunity {
	return domain.ArbitrageOpportunity{
		PolyID:           polyID,
		KalshiID:         kalshiID,
		Outcome:          outcome,
		Strategy:         domain.BuyPolySellKalshi,
		ProfitPercentage: profitPct,
		ProfitPotential:  42.5,
		ConfidenceScore:  0.8,
	}
}

func TestProcessSendsAboveFloor(t *testing.T) {
	notifier := &recordingNotifier{}
	m, _ := newTestManager(notifier)

	sent := m.Process(context.Background(), []domain.ArbitrageOpportunity{
		opportunity("p1", "k1", domain.OutcomeYes, 0.12),
	})
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, EventArbAlert, notifier.events[0])
	assert.Equal(t,
		"Arbitrage opportunity detected! Profit: 12.0% ($42.50) Strategy: buy_poly_sell_kalshi Outcome: yes Confidence: 80.0%",
		notifier.messages[0])
}

func TestProcessSkipsBelowFloor(t *testing.T) {
	notifier := &recordingNotifier{}
	m, _ := newTestManager(notifier)

	// Detector-grade profit, but under the 10% alert floor.
	sent := m.Process(context.Background(), []domain.ArbitrageOpportunity{
		opportunity("p1", "k1", domain.OutcomeYes, 0.07),
	})
	assert.Zero(t, sent)
	assert.Empty(t, notifier.events)
}

func TestProcessCooldown(t *testing.T) {
	notifier := &recordingNotifier{}
	m, now := newTestManager(notifier)
	opps := []domain.ArbitrageOpportunity{opportunity("p1", "k1", domain.OutcomeYes, 0.12)}

	assert.Equal(t, 1, m.Process(context.Background(), opps))

	// Within the 300s cooldown the same key stays quiet.
	*now = now.Add(200 * time.Second)
	assert.Zero(t, m.Process(context.Background(), opps))

	// After the cooldown it alerts again.
	*now = now.Add(101 * time.Second)
	assert.Equal(t, 1, m.Process(context.Background(), opps))
	assert.Len(t, notifier.events, 2)
}

func TestProcessCooldownKeyedPerOutcome(t *testing.T) {
	notifier := &recordingNotifier{}
	m, _ := newTestManager(notifier)

	sent := m.Process(context.Background(), []domain.ArbitrageOpportunity{
		opportunity("p1", "k1", domain.OutcomeYes, 0.12),
		opportunity("p1", "k1", domain.OutcomeNo, 0.12),
		opportunity("p2", "k2", domain.OutcomeYes, 0.12),
	})
	assert.Equal(t, 3, sent)
}

func TestProcessRecordsSendDespiteDeliveryError(t *testing.T) {
	notifier := &recordingNotifier{err: assert.AnError}
	m, _ := newTestManager(notifier)
	opps := []domain.ArbitrageOpportunity{opportunity("p1", "k1", domain.OutcomeYes, 0.12)}

	assert.Equal(t, 1, m.Process(context.Background(), opps))
	// A failed delivery still starts the cooldown; the next cycle will not
	// hammer the channel with the same opportunity.
	assert.Zero(t, m.Process(context.Background(), opps))
}

func TestProcessNilNotifier(t *testing.T) {
	m, _ := newTestManager(nil)
	sent := m.Process(context.Background(), []domain.ArbitrageOpportunity{
		opportunity("p1", "k1", domain.OutcomeYes, 0.12),
	})
	assert.Equal(t, 1, sent)
}

func TestPrune(t *testing.T) {
	m, now := newTestManager(nil)
	m.Process(context.Background(), []domain.ArbitrageOpportunity{
		opportunity("p1", "k1", domain.OutcomeYes, 0.12),
	})

	*now = now.Add(10 * time.Minute)
	m.Prune()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.lastSent)
}
