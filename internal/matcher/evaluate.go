package matcher

import (
	"errors"

	"github.com/josema3054/predicciones-deportivas/internal/consensus"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// OrientedScores returns the result scores in consensus slot order
func OrientedScores(result *models.ResultRecord, o models.Orientation) (scoreA, scoreB int) {
	if o == models.OrientationCrossed {
		return result.AwayScore, result.HomeScore
	}
	return result.HomeScore, result.AwayScore
}

// OutcomeSide decides which side of the market actually won. Winner markets
// return "" for a drawn game. Totals count a push as under: over needs the
// total strictly above the line.
func OutcomeSide(rec *models.ConsensusRecord, scoreA, scoreB int) models.Side {
	switch rec.Kind {
	case models.MarketOverUnder:
		if rec.OverUnder != nil && float64(scoreA+scoreB) > rec.OverUnder.TotalLine {
			return models.SideOver
		}
		return models.SideUnder
	default:
		switch {
		case scoreA > scoreB:
			return models.SideTeamA
		case scoreB > scoreA:
			return models.SideTeamB
		default:
			return ""
		}
	}
}

// Evaluate turns a match into the update instruction for the consensus
// record and, when the shares can be resolved, the matched pair used by the
// aggregator and simulator. A nil pair with a nil error means the record is
// excluded from analysis (unparseable shares or a drawn game).
func Evaluate(match *Match, result *models.ResultRecord) (*models.MatchedPair, models.UpdateInstruction, error) {
	rec := match.Consensus
	scoreA, scoreB := OrientedScores(result, match.Orientation)
	outcome := OutcomeSide(rec, scoreA, scoreB)

	update := models.UpdateInstruction{
		ConsensusID:    rec.ID,
		ResultID:       result.ID,
		ScoreA:         scoreA,
		ScoreB:         scoreB,
		OutcomeSide:    outcome,
		ActualWinnerID: result.WinnerID(),
	}
	if rec.Kind == models.MarketOverUnder {
		total := result.TotalPoints()
		update.ActualTotal = &total
	}

	shares, err := consensus.Resolve(rec)
	if err != nil {
		if errors.Is(err, consensus.ErrUnparseable) {
			return nil, update, nil
		}
		return nil, update, err
	}

	prediction, pct := shares.Dominant()
	update.PredictionCorrect = outcome != "" && prediction == outcome
	if outcome == "" {
		return nil, update, nil
	}

	pair := &models.MatchedPair{
		Consensus:   rec,
		Result:      result,
		Strategy:    match.Strategy,
		Orientation: match.Orientation,
		Prediction:  prediction,
		DominantPct: pct,
		Outcome:     outcome,
		Correct:     update.PredictionCorrect,
	}
	return pair, update, nil
}

// PairFromLinked rebuilds a matched pair from a consensus record whose outcome
// was stored by an earlier linking run. It returns consensus.ErrUnparseable
// for records whose shares cannot be read.
func PairFromLinked(rec *models.ConsensusRecord) (*models.MatchedPair, error) {
	if rec.Outcome == nil || rec.Outcome.OutcomeSide == "" {
		return nil, models.ErrResultNotFound
	}
	shares, err := consensus.Resolve(rec)
	if err != nil {
		return nil, err
	}
	prediction, pct := shares.Dominant()
	return &models.MatchedPair{
		Consensus:   rec,
		Strategy:    models.StrategyStored,
		Orientation: models.OrientationDirect,
		Prediction:  prediction,
		DominantPct: pct,
		Outcome:     rec.Outcome.OutcomeSide,
		Correct:     prediction == rec.Outcome.OutcomeSide,
	}, nil
}
