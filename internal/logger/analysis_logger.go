package logger

import (
	"github.com/sirupsen/logrus"
)

// AnalysisLogger provides dedicated logging for effectiveness reports and
// bankroll simulations.
type AnalysisLogger struct {
	*logrus.Entry
}

// NewAnalysisLogger creates a new analysis logger.
func NewAnalysisLogger(baseLogger *logrus.Logger) *AnalysisLogger {
	return &AnalysisLogger{
		Entry: NewComponentLogger(baseLogger, "analysis"),
	}
}

// LogEffectiveness logs a computed effectiveness report.
func (al *AnalysisLogger) LogEffectiveness(scope string, total, correct, skipped int, accuracyPct, breakeven float64) {
	al.WithFields(logrus.Fields{
		"scope":        scope,
		"total":        total,
		"correct":      correct,
		"skipped":      skipped,
		"accuracy_pct": accuracyPct,
		"breakeven":    breakeven,
		"profitable":   accuracyPct > breakeven,
	}).Info("Effectiveness computed")
}

// LogSimulationStart logs the parameters of a bankroll simulation.
func (al *AnalysisLogger) LogSimulationStart(runID, balance, stake, payout string, threshold, maxBets, candidates int) {
	al.WithFields(logrus.Fields{
		"run_id":     runID,
		"balance":    balance,
		"stake":      stake,
		"payout":     payout,
		"threshold":  threshold,
		"max_bets":   maxBets,
		"candidates": candidates,
	}).Info("Bankroll simulation started")
}

// LogSimulationStop logs the terminal state of a bankroll simulation.
func (al *AnalysisLogger) LogSimulationStop(runID, state, finalBalance string, bets, wins, losses int) {
	entry := al.WithFields(logrus.Fields{
		"run_id":        runID,
		"state":         state,
		"final_balance": finalBalance,
		"bets":          bets,
		"wins":          wins,
		"losses":        losses,
	})
	if state == "STOPPED_INSUFFICIENT_FUNDS" {
		entry.Warn("Bankroll simulation stopped, balance below stake")
		return
	}
	entry.Info("Bankroll simulation finished")
}
