package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
)

func newTestValidator() *DataValidator {
	return NewDataValidator(normalize.NewRegistry(), quietLogger())
}

func warningFields(ws []models.Warning) []string {
	fields := make([]string, 0, len(ws))
	for _, w := range ws {
		fields = append(fields, w.Field)
	}
	return fields
}

func TestValidateConsensus(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		rec     func() *models.ConsensusRecord
		wantErr bool
	}{
		{
			name: "valid winner record",
			rec:  func() *models.ConsensusRecord { return winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%") },
		},
		{
			name: "valid totals record",
			rec: func() *models.ConsensusRecord {
				return totalsRecord("NYY", "BOS", "2025-06-29", "Over 60%", "Under 40%", 8.5)
			},
		},
		{
			name: "same teams",
			rec: func() *models.ConsensusRecord {
				return winnerRecord("PHI", "PHI", "2025-06-29", "74%", "26%")
			},
			wantErr: true,
		},
		{
			name: "missing team code",
			rec: func() *models.ConsensusRecord {
				return winnerRecord("", "ATL", "2025-06-29", "74%", "26%")
			},
			wantErr: true,
		},
		{
			name: "payload disagrees with kind",
			rec: func() *models.ConsensusRecord {
				rec := winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%")
				rec.Kind = models.MarketOverUnder
				return rec
			},
			wantErr: true,
		},
		{
			name: "bad event date",
			rec: func() *models.ConsensusRecord {
				rec := winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%")
				rec.EventDate = "June 29"
				return rec
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateConsensus(tt.rec())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConsensusWarnings(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name string
		rec  *models.ConsensusRecord
		want []string
	}{
		{
			name: "clean record",
			rec:  winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%"),
			want: []string{},
		},
		{
			name: "small drift tolerated",
			rec:  winnerRecord("PHI", "ATL", "2025-06-29", "51%", "51%"),
			want: []string{},
		},
		{
			name: "shares off by more than two",
			rec:  winnerRecord("PHI", "ATL", "2025-06-29", "70%", "20%"),
			want: []string{FieldShareSum},
		},
		{
			name: "share above hundred",
			rec:  winnerRecord("PHI", "ATL", "2025-06-29", "140%", "26%"),
			want: []string{FieldSharePct, FieldShareSum},
		},
		{
			name: "unparseable shares",
			rec:  winnerRecord("PHI", "ATL", "2025-06-29", "n/a", "--"),
			want: []string{FieldShares},
		},
		{
			name: "one share missing",
			rec:  winnerRecord("PHI", "ATL", "2025-06-29", "61%", ""),
			want: []string{FieldShares},
		},
		{
			name: "unknown team code",
			rec:  winnerRecord("XYZ", "ATL", "2025-06-29", "61%", "39%"),
			want: []string{FieldUnresolved},
		},
		{
			name: "same teams",
			rec:  winnerRecord("ATL", "ATL", "2025-06-29", "61%", "39%"),
			want: []string{FieldSameTeams},
		},
		{
			name: "non positive line",
			rec:  totalsRecord("NYY", "BOS", "2025-06-29", "Over 60%", "Under 40%", 0),
			want: []string{FieldTotalLine},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, warningFields(v.ConsensusWarnings(tt.rec)))
		})
	}
}

func TestConsensusWarningsNegativeLinkedScore(t *testing.T) {
	rec := winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%")
	rec.Outcome = &models.ConsensusOutcome{ScoreA: -1, ScoreB: 3, OutcomeSide: models.SideTeamB}

	ws := newTestValidator().ConsensusWarnings(rec)
	require.Len(t, ws, 1)
	assert.Equal(t, FieldScore, ws[0].Field)
	assert.Equal(t, rec.ID, ws[0].RecordID)
}

func TestResultValidation(t *testing.T) {
	v := newTestValidator()

	assert.NoError(t, v.ValidateResult(gameResult("BOS", "NYY", "2025-06-15", 3, 5)))
	assert.Error(t, v.ValidateResult(gameResult("BOS", "BOS", "2025-06-15", 3, 5)))
	assert.Error(t, v.ValidateResult(gameResult("BOS", "NYY", "2025-06-15", -1, 5)))

	ws := v.ResultWarnings(gameResult("BOS", "NYY", "2025-06-15", -1, 5))
	assert.Equal(t, []string{FieldScore}, warningFields(ws))
}

func TestCollectWarnings(t *testing.T) {
	recs := []*models.ConsensusRecord{
		winnerRecord("PHI", "ATL", "2025-06-29", "74%", "26%"),
		winnerRecord("PHI", "ATL", "2025-06-29", "70%", "20%"),
		winnerRecord("PHI", "ATL", "2025-06-29", "n/a", "n/a"),
	}
	assert.Len(t, newTestValidator().CollectWarnings(recs), 2)
}
