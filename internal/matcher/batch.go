package matcher

import (
	"time"

	"github.com/google/uuid"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// Skip reasons reported in batch diagnostics
const (
	SkipUnparseableShares = "unparseable_shares"
	SkipUnparseableDate   = "unparseable_date"
	SkipDrawnGame         = "drawn_game"
	SkipInvalidMarket     = "invalid_market"
)

var marketOrder = []models.MarketKind{models.MarketWinnerLoser, models.MarketOverUnder}

// Skip is a consensus record left out of analysis
type Skip struct {
	ConsensusID uuid.UUID `json:"consensus_id"`
	Reason      string    `json:"reason"`
}

// Unmatched is a result with no consensus record for one market kind
type Unmatched struct {
	Result *models.ResultRecord `json:"result"`
	Kind   models.MarketKind    `json:"market_kind"`
}

// BatchResult collects everything produced by one MatchAll run
type BatchResult struct {
	Pairs      []*models.MatchedPair        `json:"pairs"`
	Updates    []models.UpdateInstruction   `json:"updates"`
	Unmatched  []Unmatched                  `json:"unmatched"`
	Skipped    []Skip                       `json:"skipped"`
	Duplicates int                          `json:"duplicates"`
	ByStrategy map[models.MatchStrategy]int `json:"by_strategy"`
}

// Dedupe keeps one record per (sport, market, team codes, scrape date),
// preferring the most recent creation time. Survivors keep pool order.
func Dedupe(pool []*models.ConsensusRecord) (kept, dropped []*models.ConsensusRecord) {
	best := make(map[string]*models.ConsensusRecord, len(pool))
	for _, rec := range pool {
		key := rec.DedupeKey()
		current, ok := best[key]
		if !ok || rec.CreatedAt.After(current.CreatedAt) {
			best[key] = rec
		}
	}
	for _, rec := range pool {
		if best[rec.DedupeKey()] == rec {
			kept = append(kept, rec)
		} else {
			dropped = append(dropped, rec)
		}
	}
	return kept, dropped
}

// Consumed lists, per market kind, results already linked to a consensus
// record by an earlier run. A consumed result is not offered again for that
// kind.
type Consumed map[models.MarketKind]map[uuid.UUID]bool

// Add marks resultID as consumed for kind
func (c Consumed) Add(kind models.MarketKind, resultID uuid.UUID) {
	if c[kind] == nil {
		c[kind] = make(map[uuid.UUID]bool)
	}
	c[kind][resultID] = true
}

// Has reports whether resultID was consumed for kind
func (c Consumed) Has(kind models.MarketKind, resultID uuid.UUID) bool {
	return c[kind][resultID]
}

// MatchAll matches every result against the pool, once per market kind
// present in the pool. See MatchAvailable.
func (m *Matcher) MatchAll(results []*models.ResultRecord, pool []*models.ConsensusRecord) *BatchResult {
	return m.MatchAvailable(results, pool, nil)
}

// MatchAvailable matches the results not yet consumed against the pool. The
// pool is deduplicated first and read only afterwards. Each strategy runs
// over the whole batch before the next one is tried, so every same-day pairing
// is settled before a record can be claimed across dates. A consensus record
// is claimed by at most one result, earlier results first within a strategy.
// Updates are only collected, never applied.
func (m *Matcher) MatchAvailable(results []*models.ResultRecord, pool []*models.ConsensusRecord, consumed Consumed) *BatchResult {
	batch := &BatchResult{ByStrategy: make(map[models.MatchStrategy]int)}

	deduped, dropped := Dedupe(pool)
	batch.Duplicates = len(dropped)

	byKind := make(map[models.MarketKind][]*models.ConsensusRecord)
	for _, rec := range deduped {
		if err := rec.CheckVariant(); err != nil {
			batch.skip(rec.ID, SkipInvalidMarket)
			m.log.LogSkipped(rec.ID.String(), err.Error())
			continue
		}
		if _, err := time.Parse(models.DateLayout, rec.MatchDate()); err != nil {
			batch.skip(rec.ID, SkipUnparseableDate)
			m.log.LogSkipped(rec.ID.String(), SkipUnparseableDate)
			continue
		}
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	matches := make(map[models.MarketKind][]*Match, len(marketOrder))
	for _, kind := range marketOrder {
		if len(byKind[kind]) > 0 {
			matches[kind] = m.matchKind(results, byKind[kind], consumed[kind])
		}
	}

	for i, result := range results {
		for _, kind := range marketOrder {
			if len(byKind[kind]) == 0 || consumed.Has(kind, result.ID) {
				continue
			}
			match := matches[kind][i]
			if match == nil {
				batch.Unmatched = append(batch.Unmatched, Unmatched{Result: result, Kind: kind})
				m.log.LogUnmatched(resultKey(result), string(kind))
				continue
			}
			batch.ByStrategy[match.Strategy]++

			pair, update, err := Evaluate(match, result)
			batch.Updates = append(batch.Updates, update)
			switch {
			case err != nil:
				batch.skip(match.Consensus.ID, SkipInvalidMarket)
				m.log.LogSkipped(match.Consensus.ID.String(), err.Error())
			case pair == nil && update.OutcomeSide == "":
				batch.skip(match.Consensus.ID, SkipDrawnGame)
			case pair == nil:
				batch.skip(match.Consensus.ID, SkipUnparseableShares)
				m.log.LogSkipped(match.Consensus.ID.String(), SkipUnparseableShares)
			default:
				batch.Pairs = append(batch.Pairs, pair)
			}
		}
	}
	return batch
}

// matchKind pairs results with candidates of one market kind, indexed like
// results. Nil entries are unmatched or consumed.
func (m *Matcher) matchKind(results []*models.ResultRecord, candidates []*models.ConsensusRecord, consumed map[uuid.UUID]bool) []*Match {
	matches := make([]*Match, len(results))
	claimed := make(map[uuid.UUID]bool, len(candidates))
	for _, strategy := range ladder {
		for i, result := range results {
			if matches[i] != nil || consumed[result.ID] {
				continue
			}
			available := make([]*models.ConsensusRecord, 0, len(candidates))
			for _, c := range candidates {
				if !claimed[c.ID] {
					available = append(available, c)
				}
			}
			if len(available) == 0 {
				return matches
			}
			match, ok := m.pick(result, strategy, m.classify(result, available)[strategy])
			if !ok {
				continue
			}
			claimed[match.Consensus.ID] = true
			matches[i] = match
		}
	}
	return matches
}

// MatchedCount is the number of results paired across all market kinds
func (b *BatchResult) MatchedCount() int {
	return len(b.Updates)
}

func (b *BatchResult) skip(id uuid.UUID, reason string) {
	b.Skipped = append(b.Skipped, Skip{ConsensusID: id, Reason: reason})
}
