package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

func TestPurge(t *testing.T) {
	consensusRepo := &fakeConsensusRepo{records: []*models.ConsensusRecord{
		winnerRecord("PHI", "ATL", "2024-04-01", "74%", "26%"),
		winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%"),
	}}
	resultRepo := &fakeResultRepo{results: []*models.ResultRecord{
		gameResult("PHI", "ATL", "2024-04-01", 2, 1),
		gameResult("PHI", "ATL", "2025-06-29", 2, 1),
	}}
	svc := NewRetentionService(consensusRepo, resultRepo, quietLogger())
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }

	summary, err := svc.Purge(context.Background(), 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Consensus)
	assert.Equal(t, int64(1), summary.Results)
	assert.Equal(t, "2024-07-01", summary.Cutoff.Format(models.DateLayout))
	assert.Len(t, consensusRepo.records, 1)
	assert.Len(t, resultRepo.results, 1)
}

func TestPurgeRequiresPositiveRetention(t *testing.T) {
	svc := NewRetentionService(&fakeConsensusRepo{}, &fakeResultRepo{}, quietLogger())
	_, err := svc.Purge(context.Background(), 0)
	assert.Error(t, err)
}
