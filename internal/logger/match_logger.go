package logger

import (
	"github.com/sirupsen/logrus"
)

// MatchLogger provides dedicated logging for record matching diagnostics.
type MatchLogger struct {
	*logrus.Entry
}

// NewMatchLogger creates a new match logger.
func NewMatchLogger(baseLogger *logrus.Logger) *MatchLogger {
	return &MatchLogger{
		Entry: NewComponentLogger(baseLogger, "matcher"),
	}
}

// LogMatch logs a result paired with a consensus record.
func (ml *MatchLogger) LogMatch(resultKey, consensusID, marketKind, strategy, orientation string) {
	ml.WithFields(logrus.Fields{
		"result":       resultKey,
		"consensus_id": consensusID,
		"market_kind":  marketKind,
		"strategy":     strategy,
		"orientation":  orientation,
	}).Debug("Result matched")
}

// LogUnmatched logs a result without any consensus record.
func (ml *MatchLogger) LogUnmatched(resultKey, marketKind string) {
	ml.WithFields(logrus.Fields{
		"result":      resultKey,
		"market_kind": marketKind,
	}).Info("No consensus record matched result")
}

// LogAmbiguous logs candidates discarded by the latest-scrape rule.
func (ml *MatchLogger) LogAmbiguous(resultKey, keptID string, discardedIDs []string, strategy string) {
	ml.WithFields(logrus.Fields{
		"result":        resultKey,
		"kept_id":       keptID,
		"discarded_ids": discardedIDs,
		"strategy":      strategy,
	}).Warn("Multiple consensus candidates matched, kept most recent")
}

// LogOrientationFallback logs a match whose slots could not be aligned by
// code or name.
func (ml *MatchLogger) LogOrientationFallback(resultKey, consensusID string) {
	ml.WithFields(logrus.Fields{
		"result":       resultKey,
		"consensus_id": consensusID,
	}).Warn("Could not determine team orientation, assuming team_a is home")
}

// LogSwappedShares logs share fields whose text labels contradict their
// declared positions.
func (ml *MatchLogger) LogSwappedShares(consensusID string) {
	ml.WithField("consensus_id", consensusID).Debug("Over/under share fields stored in swapped order")
}

// LogSkipped logs a record left out because a field could not be parsed.
func (ml *MatchLogger) LogSkipped(recordID, reason string) {
	ml.WithFields(logrus.Fields{
		"record_id": recordID,
		"reason":    reason,
	}).Info("Record skipped")
}
