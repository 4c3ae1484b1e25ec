package health

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

const maxRunsLimit = 100

// ReportProvider computes reports on demand
type ReportProvider interface {
	Effectiveness(ctx context.Context, sport string, kind models.MarketKind) (*analysis.Report, error)
	RecentRuns(ctx context.Context, sport string, limit int) ([]*models.SimulationRun, error)
}

// handleEffectiveness serves GET /api/v1/reports/effectiveness?sport=mlb&market=OVER_UNDER
func (s *Server) handleEffectiveness(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	sport, ok := s.sportParam(w, r)
	if !ok {
		return
	}

	var kind models.MarketKind
	switch market := models.MarketKind(strings.ToUpper(r.URL.Query().Get("market"))); market {
	case "", models.MarketWinnerLoser, models.MarketOverUnder:
		kind = market
	default:
		respondError(w, http.StatusBadRequest, "market must be WINNER_LOSER or OVER_UNDER")
		return
	}

	report, err := s.reports.Effectiveness(r.Context(), sport, kind)
	if err != nil {
		s.logger.WithError(err).WithField("sport", sport).Error("Failed to build effectiveness report")
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// handleSimulations serves GET /api/v1/simulations?sport=mlb&limit=10
func (s *Server) handleSimulations(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	sport, ok := s.sportParam(w, r)
	if !ok {
		return
	}

	limit := parseIntParam(r, "limit", 10)
	if limit <= 0 || limit > maxRunsLimit {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	runs, err := s.reports.RecentRuns(r.Context(), sport, limit)
	if err != nil {
		s.logger.WithError(err).WithField("sport", sport).Error("Failed to list simulation runs")
		respondError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}
	if runs == nil {
		runs = []*models.SimulationRun{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport": sport,
		"runs":  runs,
	})
}

func (s *Server) sportParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sport := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sport")))
	if sport == "" {
		sport = s.sport
	}
	if sport == "" {
		respondError(w, http.StatusBadRequest, "sport is required")
		return "", false
	}
	return sport, true
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
