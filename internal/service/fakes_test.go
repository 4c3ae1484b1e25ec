package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeConsensusRepo is an in-memory ConsensusRepository
type fakeConsensusRepo struct {
	mu       sync.Mutex
	records  []*models.ConsensusRecord
	batchErr error
	applied  int
}

func (f *fakeConsensusRepo) Create(_ context.Context, rec *models.ConsensusRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeConsensusRepo) CreateBatch(_ context.Context, recs []*models.ConsensusRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return 0, f.batchErr
	}
	f.records = append(f.records, recs...)
	return int64(len(recs)), nil
}

func (f *fakeConsensusRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ConsensusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, models.ErrConsensusNotFound
}

func (f *fakeConsensusRepo) ListByScrapeDate(_ context.Context, sport string, start, end time.Time) ([]*models.ConsensusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ConsensusRecord
	for _, rec := range f.records {
		if rec.Sport == sport && !rec.ScrapeDate.Before(start) && !rec.ScrapeDate.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeConsensusRepo) ListUnlinked(_ context.Context, sport string) ([]*models.ConsensusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ConsensusRecord
	for _, rec := range f.records {
		if rec.Sport == sport && rec.Outcome == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeConsensusRepo) ListLinked(_ context.Context, sport string, kind models.MarketKind) ([]*models.ConsensusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ConsensusRecord
	for _, rec := range f.records {
		if rec.Sport == sport && rec.Outcome != nil && (kind == "" || rec.Kind == kind) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeConsensusRepo) ExistsByDedupeKey(_ context.Context, rec *models.ConsensusRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.records {
		if stored.DedupeKey() == rec.DedupeKey() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConsensusRepo) ApplyOutcomes(_ context.Context, updates []models.UpdateInstruction, linkedAt time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := 0
	for _, u := range updates {
		for _, rec := range f.records {
			if rec.ID != u.ConsensusID {
				continue
			}
			next := u.Outcome(linkedAt)
			if rec.Outcome != nil {
				next.LinkedAt = rec.Outcome.LinkedAt
				if sameOutcome(rec.Outcome, next) {
					continue
				}
			}
			rec.Outcome = next
			changed++
		}
	}
	f.applied += changed
	return changed, nil
}

func (f *fakeConsensusRepo) ListConsumedResults(_ context.Context, resultIDs []uuid.UUID) (map[models.MarketKind][]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(resultIDs))
	for _, id := range resultIDs {
		wanted[id] = true
	}
	consumed := make(map[models.MarketKind][]uuid.UUID)
	for _, rec := range f.records {
		if rec.Outcome != nil && rec.Outcome.ResultID != nil && wanted[*rec.Outcome.ResultID] {
			consumed[rec.Kind] = append(consumed[rec.Kind], *rec.Outcome.ResultID)
		}
	}
	return consumed, nil
}

func (f *fakeConsensusRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.records[:0]
	var removed int64
	for _, rec := range f.records {
		if rec.ScrapeDate.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	f.records = kept
	return removed, nil
}

func sameOutcome(a, b *models.ConsensusOutcome) bool {
	return a.ScoreA == b.ScoreA && a.ScoreB == b.ScoreB && a.OutcomeSide == b.OutcomeSide &&
		a.ActualWinnerID == b.ActualWinnerID && a.PredictionCorrect == b.PredictionCorrect
}

// fakeResultRepo is an in-memory ResultRepository keyed by game
type fakeResultRepo struct {
	mu      sync.Mutex
	results []*models.ResultRecord
}

func gameKey(r *models.ResultRecord) string {
	return strings.Join([]string{r.Sport, r.DateKey(), r.HomeTeamID, r.AwayTeamID}, "|")
}

func (f *fakeResultRepo) Upsert(_ context.Context, result *models.ResultRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.results {
		if gameKey(stored) == gameKey(result) {
			return false, nil
		}
	}
	f.results = append(f.results, result)
	return true, nil
}

func (f *fakeResultRepo) UpsertBatch(ctx context.Context, results []*models.ResultRecord) (int, error) {
	inserted := 0
	for _, r := range results {
		ok, err := f.Upsert(ctx, r)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func (f *fakeResultRepo) ListByDateRange(_ context.Context, sport string, start, end time.Time) ([]*models.ResultRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ResultRecord
	for _, r := range f.results {
		if r.Sport == sport && !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResultRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.results[:0]
	var removed int64
	for _, r := range f.results {
		if r.Date.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	f.results = kept
	return removed, nil
}

// fakeRunRepo records saved simulation runs
type fakeRunRepo struct {
	runs []*models.SimulationRun
}

func (f *fakeRunRepo) Save(_ context.Context, run *models.SimulationRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRepo) GetLatest(_ context.Context, sport string, limit int) ([]*models.SimulationRun, error) {
	var out []*models.SimulationRun
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.runs[i].Sport == sport {
			out = append(out, f.runs[i])
		}
	}
	return out, nil
}

// fakeSource serves canned results
type fakeSource struct {
	results []*models.ResultRecord
	err     error
}

func (f *fakeSource) FetchResults(ctx context.Context, date time.Time) ([]*models.ResultRecord, error) {
	return f.FetchRange(ctx, date, date)
}

func (f *fakeSource) FetchRange(_ context.Context, start, end time.Time) ([]*models.ResultRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.ResultRecord
	for _, r := range f.results {
		if !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) Name() string {
	return "fake"
}

func winnerRecord(a, b, date, shareA, shareB string) *models.ConsensusRecord {
	return &models.ConsensusRecord{
		ID:          uuid.New(),
		Sport:       "mlb",
		TeamAID:     a,
		TeamBID:     b,
		EventDate:   date,
		ScrapeDate:  day(date),
		Kind:        models.MarketWinnerLoser,
		WinnerLoser: &models.WinnerLoserMarket{ShareA: shareA, ShareB: shareB},
		CreatedAt:   day(date).Add(12 * time.Hour),
	}
}

func totalsRecord(a, b, date, field1, field2 string, line float64) *models.ConsensusRecord {
	return &models.ConsensusRecord{
		ID:         uuid.New(),
		Sport:      "mlb",
		TeamAID:    a,
		TeamBID:    b,
		EventDate:  date,
		ScrapeDate: day(date),
		Kind:       models.MarketOverUnder,
		OverUnder:  &models.OverUnderMarket{Field1: field1, Field2: field2, TotalLine: line},
		CreatedAt:  day(date).Add(12 * time.Hour),
	}
}

func gameResult(home, away, date string, homeScore, awayScore int) *models.ResultRecord {
	return &models.ResultRecord{
		ID:         uuid.New(),
		Sport:      "mlb",
		Date:       day(date),
		HomeTeamID: home,
		AwayTeamID: away,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		Source:     "fake",
	}
}
