package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger records every write made to stored consensus records.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: NewComponentLogger(baseLogger, "audit"),
	}
}

// LogOutcomeApplied logs an outcome written onto a consensus record.
func (al *AuditLogger) LogOutcomeApplied(consensusID, outcomeSide string, scoreA, scoreB int, correct bool) {
	al.WithFields(logrus.Fields{
		"consensus_id":       consensusID,
		"outcome_side":       outcomeSide,
		"score_a":            scoreA,
		"score_b":            scoreB,
		"prediction_correct": correct,
	}).Info("Consensus outcome applied")
}

// LogDuplicateSkipped logs a scraped row dropped as a repeat of a stored one.
func (al *AuditLogger) LogDuplicateSkipped(dedupeKey string) {
	al.WithField("dedupe_key", dedupeKey).Info("Duplicate consensus scrape skipped")
}

// LogPurge logs an administrative bulk delete.
func (al *AuditLogger) LogPurge(table string, rows int64, reason string) {
	al.WithFields(logrus.Fields{
		"table":  table,
		"rows":   rows,
		"reason": reason,
	}).Warn("Records purged")
}
