package stats

import (
	"log/slog"
	"time"
)

// CostAlert describes a request whose estimated cost crossed the threshold.
type CostAlert struct {
	SessionID    string
	TraceID      string
	CostUSD      float64
	ThresholdUSD float64
	OverByUSD    float64
	Timestamp    time.Time
}

// CostGuard flags expensive requests. A zero threshold disables it.
type CostGuard struct {
	ThresholdUSD float64
	logger       *slog.Logger
}

// NewCostGuard creates a guard that logs through logger.
func NewCostGuard(thresholdUSD float64, logger *slog.Logger) *CostGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostGuard{ThresholdUSD: thresholdUSD, logger: logger}
}

// Check returns an alert when totals exceed the threshold.
func (g *CostGuard) Check(sessionID, traceID string, totals Totals) *CostAlert {
	if g == nil || g.ThresholdUSD <= 0 || totals.EstimatedCost <= g.ThresholdUSD {
		return nil
	}
	alert := &CostAlert{
		SessionID:    sessionID,
		TraceID:      traceID,
		CostUSD:      totals.EstimatedCost,
		ThresholdUSD: g.ThresholdUSD,
		OverByUSD:    totals.EstimatedCost - g.ThresholdUSD,
		Timestamp:    time.Now(),
	}
	g.logger.Warn("stats: request cost above threshold",
		"session_id", sessionID,
		"trace_id", traceID,
		"cost_usd", alert.CostUSD,
		"threshold_usd", alert.ThresholdUSD,
		"total_tokens", totals.TotalTokens)
	return alert
}
