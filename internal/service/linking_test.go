package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/matcher"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

func seedLinking() (*fakeConsensusRepo, *fakeResultRepo) {
	consensusRepo := &fakeConsensusRepo{records: []*models.ConsensusRecord{
		winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%"),
		totalsRecord("NYY", "BOS", "2025-06-29", "Under 8.5 38%", "Over 8.5 62%", 8.5),
		winnerRecord("SEA", "HOU", "2025-06-20", "52%", "48%"),
	}}
	resultRepo := &fakeResultRepo{results: []*models.ResultRecord{
		gameResult("PHI", "ATL", "2025-06-29", 2, 1),
		gameResult("NYY", "BOS", "2025-06-29", 5, 4),
		gameResult("LAD", "SF", "2025-06-29", 3, 0),
	}}
	return consensusRepo, resultRepo
}

func newTestLinking(c *fakeConsensusRepo, r *fakeResultRepo) *LinkingService {
	svc := NewLinkingService(c, r, matcher.NewMatcher(3, quietLogger()), quietLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 30, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestLinkAppliesOutcomes(t *testing.T) {
	consensusRepo, resultRepo := seedLinking()
	svc := newTestLinking(consensusRepo, resultRepo)

	summary, batch, err := svc.Link(context.Background(), "mlb")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, 3, summary.Results)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 2, summary.Applied)
	assert.Equal(t, 2, summary.ByStrategy[models.StrategyExact])
	require.Len(t, batch.Pairs, 2)

	winner := consensusRepo.records[0]
	require.NotNil(t, winner.Outcome)
	assert.Equal(t, models.SideTeamA, winner.Outcome.OutcomeSide)
	assert.Equal(t, "PHI", winner.Outcome.ActualWinnerID)
	assert.True(t, winner.Outcome.PredictionCorrect)
	assert.Equal(t, 2, winner.Outcome.ScoreA)
	assert.Equal(t, 1, winner.Outcome.ScoreB)

	totals := consensusRepo.records[1]
	require.NotNil(t, totals.Outcome)
	assert.Equal(t, models.SideOver, totals.Outcome.OutcomeSide)
	assert.True(t, totals.Outcome.PredictionCorrect, "labels put 62% on over")

	assert.Nil(t, consensusRepo.records[2].Outcome, "no result for SEA-HOU")
}

func TestLinkIsIdempotent(t *testing.T) {
	consensusRepo, resultRepo := seedLinking()
	svc := newTestLinking(consensusRepo, resultRepo)

	_, _, err := svc.Link(context.Background(), "mlb")
	require.NoError(t, err)
	firstLinkedAt := consensusRepo.records[0].Outcome.LinkedAt

	svc.now = func() time.Time { return time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC) }
	summary, _, err := svc.Link(context.Background(), "mlb")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, firstLinkedAt, consensusRepo.records[0].Outcome.LinkedAt)
}

func TestLinkNeverReusesConsumedResult(t *testing.T) {
	first := winnerRecord("PHI", "ATL", "2025-06-28", "60%", "40%")
	consensusRepo := &fakeConsensusRepo{records: []*models.ConsensusRecord{first}}
	played := gameResult("PHI", "ATL", "2025-06-28", 5, 1)
	resultRepo := &fakeResultRepo{results: []*models.ResultRecord{played}}
	svc := newTestLinking(consensusRepo, resultRepo)

	_, _, err := svc.Link(context.Background(), "mlb")
	require.NoError(t, err)
	require.NotNil(t, first.Outcome)
	require.NotNil(t, first.Outcome.ResultID)
	assert.Equal(t, played.ID, *first.Outcome.ResultID)

	// next day's game is not played yet
	next := winnerRecord("PHI", "ATL", "2025-06-29", "30%", "70%")
	consensusRepo.records = append(consensusRepo.records, next)

	summary, batch, err := svc.Link(context.Background(), "mlb")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Consumed)
	assert.Equal(t, 0, summary.Matched)
	assert.Empty(t, batch.Unmatched)
	assert.Nil(t, next.Outcome)

	nextGame := gameResult("ATL", "PHI", "2025-06-29", 2, 3)
	resultRepo.results = append(resultRepo.results, nextGame)

	summary, _, err = svc.Link(context.Background(), "mlb")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 1, summary.ByStrategy[models.StrategyExact])
	require.NotNil(t, next.Outcome)
	assert.Equal(t, nextGame.ID, *next.Outcome.ResultID)
	assert.Equal(t, 3, next.Outcome.ScoreA)
	assert.Equal(t, 2, next.Outcome.ScoreB)
}

func TestLinkWithNothingToDo(t *testing.T) {
	svc := newTestLinking(&fakeConsensusRepo{}, &fakeResultRepo{})

	summary, batch, err := svc.Link(context.Background(), "mlb")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Candidates)
	assert.Empty(t, batch.Pairs)
}

func TestDateSpanUsesWindow(t *testing.T) {
	svc := newTestLinking(&fakeConsensusRepo{}, &fakeResultRepo{})
	pool := []*models.ConsensusRecord{
		winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%"),
		winnerRecord("SEA", "HOU", "2025-06-20", "52%", "48%"),
	}

	start, end, ok := svc.dateSpan(pool)
	require.True(t, ok)
	assert.Equal(t, "2025-06-17", start.Format(models.DateLayout))
	assert.Equal(t, "2025-07-02", end.Format(models.DateLayout))

	bad := winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%")
	bad.EventDate = "soon"
	_, _, ok = svc.dateSpan([]*models.ConsensusRecord{bad})
	assert.False(t, ok)
}
