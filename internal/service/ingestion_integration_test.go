package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/database"
	"github.com/josema3054/predicciones-deportivas/internal/matcher"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
)

// TestImportLinkAnalyzeAgainstPostgres runs the full flow on a real database
func TestImportLinkAnalyzeAgainstPostgres(t *testing.T) {
	db := database.SetupTestDB(t)

	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	registry := normalize.NewRegistry()
	log := quietLogger()
	ingestion := NewIngestionService(repos.Consensus, NewDataValidator(registry, log), NewDataNormalizer(registry, log), log, 10)

	rows, err := DecodeRows(strings.NewReader(rowsJSON))
	require.NoError(t, err)
	stats, err := ingestion.ImportConsensus(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Stored)

	_, err = repos.Result.UpsertBatch(ctx, []*models.ResultRecord{
		gameResult("PHI", "ATL", "2025-06-29", 2, 1),
		gameResult("NYY", "BOS", "2025-06-29", 5, 4),
	})
	require.NoError(t, err)

	linking := NewLinkingService(repos.Consensus, repos.Result, matcher.NewMatcher(3, log), log)
	summary, _, err := linking.Link(ctx, "mlb")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Applied)

	again, _, err := linking.Link(ctx, "mlb")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Applied)

	analysisSvc := NewAnalysisService(repos.Consensus, repos.SimulationRun, nil, NewDataValidator(registry, log), log)
	report, err := analysisSvc.Effectiveness(ctx, "mlb", "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)

	_, run, err := analysisSvc.Simulate(ctx, "mlb", "", testSimConfig())
	require.NoError(t, err)
	runs, err := analysisSvc.RecentRuns(ctx, "mlb", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
