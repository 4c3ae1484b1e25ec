package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/models"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeReports struct {
	gotSport string
	gotKind  models.MarketKind
	gotLimit int
	err      error
}

func (f *fakeReports) Effectiveness(_ context.Context, sport string, kind models.MarketKind) (*analysis.Report, error) {
	f.gotSport, f.gotKind = sport, kind
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Report{Scope: sport, Total: 10, Correct: 6, AccuracyPct: 60, BreakevenPct: analysis.BreakevenPct, Markets: []analysis.MarketSummary{}}, nil
}

func (f *fakeReports) RecentRuns(_ context.Context, sport string, limit int) ([]*models.SimulationRun, error) {
	f.gotSport, f.gotLimit = sport, limit
	return nil, f.err
}

func newTestServer(db DatabasePinger, reports ReportProvider) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(Config{
		ServiceName:  "predicciones",
		Version:      "1.2.3",
		Port:         "0",
		DefaultSport: "mlb",
		Logger:       log,
		DB:           db,
		Reports:      reports,
	})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := newTestServer(nil, nil)

	for _, path := range []string{"/health", "/live"} {
		rec := get(t, s, path)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "predicciones", body.Service)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		db     DatabasePinger
		status int
	}{
		{"not marked ready", false, fakePinger{}, http.StatusServiceUnavailable},
		{"ready with healthy db", true, fakePinger{}, http.StatusOK},
		{"ready with failing db", true, fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"ready without db", true, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.db, nil)
			s.SetReady(tt.ready)
			assert.Equal(t, tt.ready, s.IsReady())

			rec := get(t, s, "/ready")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEffectivenessEndpoint(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(nil, reports)

	rec := get(t, s, "/api/v1/reports/effectiveness?market=over_under")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mlb", reports.gotSport)
	assert.Equal(t, models.MarketOverUnder, reports.gotKind)

	var report analysis.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 60.0, report.AccuracyPct)
}

func TestEffectivenessEndpointErrors(t *testing.T) {
	tests := []struct {
		name    string
		reports ReportProvider
		target  string
		status  int
	}{
		{"bad market", &fakeReports{}, "/api/v1/reports/effectiveness?market=SPREAD", http.StatusBadRequest},
		{"provider failure", &fakeReports{err: errors.New("db down")}, "/api/v1/reports/effectiveness", http.StatusInternalServerError},
		{"no provider", nil, "/api/v1/reports/effectiveness", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(nil, tt.reports), tt.target)
			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.status, body.Code)
		})
	}
}

func TestSimulationsEndpoint(t *testing.T) {
	reports := &fakeReports{}
	s := newTestServer(nil, reports)

	rec := get(t, s, "/api/v1/simulations?sport=MLB&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mlb", reports.gotSport)
	assert.Equal(t, 5, reports.gotLimit)
	assert.JSONEq(t, `{"sport":"mlb","runs":[]}`, rec.Body.String())

	rec = get(t, s, "/api/v1/simulations?limit=500")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, newTestServer(nil, nil).Shutdown())
}
