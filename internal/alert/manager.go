// Package alert gates high-value opportunities through a per-market cooldown
// and hands the survivors to the notification channels.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/arbmonitor/internal/config"
	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// Notifier event types.
const (
	// EventArbAlert is used for opportunity alerts.
	EventArbAlert = "arb_alert"
	// EventCycleError is used when a monitoring cycle fails.
	EventCycleError = "cycle_error"
)

// Notifier is the delivery surface the manager needs; satisfied by
// notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Manager decides which detected opportunities are worth waking an operator
// for. An opportunity alerts only when its profit clears the alert floor and
// the same market pair and outcome has not alerted within the cooldown.
type Manager struct {
	minProfit float64
	cooldown  time.Duration
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// New builds a Manager. notifier may be nil; alerts are then logged only.
func New(cfg config.AlertConfig, notifier Notifier, logger *slog.Logger) *Manager {
	return &Manager{
		minProfit: cfg.MinProfit,
		cooldown:  cfg.Cooldown.Duration,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "alerts")),
		now:       time.Now,
		lastSent:  make(map[string]time.Time),
	}
}

// Process walks a ranked batch of opportunities and sends an alert for each
// one that passes the gates, recording the send time so repeats stay quiet
// for the cooldown window. It returns the number of alerts sent.
func (m *Manager) Process(ctx context.Context, opps []domain.ArbitrageOpportunity) int {
	now := m.now()
	sent := 0

	for _, opp := range opps {
		if !m.shouldAlert(opp, now) {
			continue
		}

		message := formatMessage(opp)
		m.logger.WarnContext(ctx, "arbitrage alert", slog.String("message", message))
		if m.notifier != nil {
			if err := m.notifier.Notify(ctx, EventArbAlert, "Arbitrage Alert", message); err != nil {
				m.logger.ErrorContext(ctx, "alert delivery failed",
					slog.String("key", opp.SuppressionKey()),
					slog.String("error", err.Error()))
			}
		}

		m.mu.Lock()
		m.lastSent[opp.SuppressionKey()] = now
		m.mu.Unlock()
		sent++
	}
	return sent
}

func (m *Manager) shouldAlert(opp domain.ArbitrageOpportunity, now time.Time) bool {
	if opp.ProfitPercentage < m.minProfit {
		return false
	}

	m.mu.Lock()
	last, ok := m.lastSent[opp.SuppressionKey()]
	m.mu.Unlock()
	if ok && now.Sub(last) < m.cooldown {
		return false
	}
	return true
}

// Prune drops suppression entries older than the cooldown so the map does
// not grow without bound across long runs.
func (m *Manager) Prune() {
	cutoff := m.now().Add(-m.cooldown)
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, at := range m.lastSent {
		if at.Before(cutoff) {
			delete(m.lastSent, key)
		}
	}
}

func formatMessage(opp domain.ArbitrageOpportunity) string {
	return fmt.Sprintf(
		"Arbitrage opportunity detected! Profit: %.1f%% ($%.2f) Strategy: %s Outcome: %s Confidence: %.1f%%",
		opp.ProfitPercentage*100,
		opp.ProfitPotential,
		opp.Strategy,
		opp.Outcome,
		opp.ConfidenceScore*100,
	)
}
