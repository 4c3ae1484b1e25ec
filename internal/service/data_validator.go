package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/consensus"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
)

// shareSumTolerance is how far the two shares may drift from 100 before a
// warning is raised
const shareSumTolerance = 2

// Warning fields
const (
	FieldShares     = "shares"
	FieldShareSum   = "share_sum"
	FieldSharePct   = "share_pct"
	FieldTeamCode   = "team_code"
	FieldSameTeams  = "same_teams"
	FieldScore      = "score"
	FieldTotalLine  = "total_line"
	FieldUnresolved = "unresolved_team"
)

// DataValidator checks consensus and result records. Structural problems are
// errors; suspicious but usable data yields warnings.
type DataValidator struct {
	validate *validator.Validate
	registry *normalize.Registry
	logger   *logrus.Entry
}

// NewDataValidator creates a new data validator. A nil registry skips the
// known-team checks.
func NewDataValidator(registry *normalize.Registry, logger *logrus.Logger) *DataValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &DataValidator{
		validate: validator.New(),
		registry: registry,
		logger:   logger.WithField("component", "validator"),
	}
}

// ValidateConsensus rejects records that cannot be stored
func (v *DataValidator) ValidateConsensus(rec *models.ConsensusRecord) error {
	if rec == nil {
		return fmt.Errorf("consensus record is nil")
	}
	if err := v.validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid consensus record: %w", flattenValidation(err))
	}
	return rec.CheckVariant()
}

// ValidateResult rejects results that cannot be stored
func (v *DataValidator) ValidateResult(result *models.ResultRecord) error {
	if result == nil {
		return fmt.Errorf("result record is nil")
	}
	if err := v.validate.Struct(result); err != nil {
		return fmt.Errorf("invalid result record: %w", flattenValidation(err))
	}
	return nil
}

// ConsensusWarnings lists data-quality findings for a consensus record
func (v *DataValidator) ConsensusWarnings(rec *models.ConsensusRecord) []models.Warning {
	var warnings []models.Warning
	add := func(field, format string, args ...interface{}) {
		warnings = append(warnings, models.Warning{RecordID: rec.ID, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(rec.TeamAID) == "" || strings.TrimSpace(rec.TeamBID) == "" {
		add(FieldTeamCode, "missing team code")
	} else if strings.EqualFold(rec.TeamAID, rec.TeamBID) {
		add(FieldSameTeams, "both teams are %s", rec.TeamAID)
	}
	if vocab, ok := v.vocabulary(rec.Sport); ok {
		for _, code := range []string{rec.TeamAID, rec.TeamBID} {
			if code != "" && !vocab.Contains(code) {
				add(FieldUnresolved, "team code %s is not in the %s vocabulary", code, rec.Sport)
			}
		}
	}

	if rec.OverUnder != nil && rec.OverUnder.TotalLine <= 0 {
		add(FieldTotalLine, "total line %.1f is not positive", rec.OverUnder.TotalLine)
	}

	shares, err := consensus.Resolve(rec)
	switch {
	case errors.Is(err, consensus.ErrUnparseable):
		add(FieldShares, "no percentage in share fields")
	case err != nil:
		add(FieldShares, "%v", err)
	default:
		if shares.FirstPct > 100 || shares.SecondPct > 100 {
			add(FieldSharePct, "share above 100%% (%d/%d)", shares.FirstPct, shares.SecondPct)
		}
		if !shares.Partial && abs(shares.Sum()-100) > shareSumTolerance {
			add(FieldShareSum, "shares sum to %d", shares.Sum())
		}
		if shares.Partial {
			add(FieldShares, "only one share field holds a percentage")
		}
	}

	if rec.Outcome != nil && (rec.Outcome.ScoreA < 0 || rec.Outcome.ScoreB < 0) {
		add(FieldScore, "negative linked score %d-%d", rec.Outcome.ScoreA, rec.Outcome.ScoreB)
	}
	return warnings
}

// ResultWarnings lists data-quality findings for a result record
func (v *DataValidator) ResultWarnings(result *models.ResultRecord) []models.Warning {
	var warnings []models.Warning
	add := func(field, format string, args ...interface{}) {
		warnings = append(warnings, models.Warning{RecordID: result.ID, Field: field, Message: fmt.Sprintf(format, args...)})
	}
	if result.HomeScore < 0 || result.AwayScore < 0 {
		add(FieldScore, "negative score %d-%d", result.HomeScore, result.AwayScore)
	}
	if result.HomeTeamID == "" || result.AwayTeamID == "" {
		add(FieldTeamCode, "missing team code")
	} else if strings.EqualFold(result.HomeTeamID, result.AwayTeamID) {
		add(FieldSameTeams, "both teams are %s", result.HomeTeamID)
	}
	return warnings
}

// CollectWarnings runs ConsensusWarnings over recs and counts every finding
func (v *DataValidator) CollectWarnings(recs []*models.ConsensusRecord) []models.Warning {
	var all []models.Warning
	for _, rec := range recs {
		for _, w := range v.ConsensusWarnings(rec) {
			metrics.RecordWarning(w.Field)
			v.logger.WithFields(logrus.Fields{"record_id": w.RecordID, "field": w.Field}).Debug(w.Message)
			all = append(all, w)
		}
	}
	return all
}

func (v *DataValidator) vocabulary(sport string) (*normalize.Vocabulary, bool) {
	if v.registry == nil {
		return nil, false
	}
	return v.registry.Get(sport)
}

// flattenValidation turns validator field errors into one readable error
func flattenValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
