package datasource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josema3054/predicciones-deportivas/internal/config"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
)

const scoreboardJSON = `{
  "events": [
    {
      "id": "401",
      "date": "2025-06-15T23:05Z",
      "status": {"type": {"completed": true, "state": "post"}},
      "competitions": [{"competitors": [
        {"homeAway": "home", "score": "3", "team": {"abbreviation": "BOS", "displayName": "Boston Red Sox"}},
        {"homeAway": "away", "score": "5", "team": {"abbreviation": "NYY", "displayName": "New York Yankees"}}
      ]}]
    },
    {
      "id": "402",
      "date": "2025-06-15T20:10Z",
      "status": {"type": {"completed": true, "state": "post"}},
      "competitions": [{"competitors": [
        {"homeAway": "away", "score": "2", "team": {"abbreviation": "ARI", "displayName": "Arizona Diamondbacks"}},
        {"homeAway": "home", "score": "7", "team": {"abbreviation": "WSH", "displayName": "Washington Nationals"}}
      ]}]
    },
    {
      "id": "403",
      "date": "2025-06-16T01:40Z",
      "status": {"type": {"completed": false, "state": "in"}},
      "competitions": [{"competitors": [
        {"homeAway": "home", "score": "1", "team": {"abbreviation": "LAD", "displayName": "Los Angeles Dodgers"}},
        {"homeAway": "away", "score": "0", "team": {"abbreviation": "SF", "displayName": "San Francisco Giants"}}
      ]}]
    },
    {
      "id": "404",
      "date": "2025-06-15T18:00Z",
      "status": {"type": {"completed": true, "state": "post"}},
      "competitions": [{"competitors": [
        {"homeAway": "home", "score": "4", "team": {"abbreviation": "XXXX", "displayName": "Nowhere Expos"}},
        {"homeAway": "away", "score": "1", "team": {"abbreviation": "SEA", "displayName": "Seattle Mariners"}}
      ]}]
    }
  ]
}`

var gameDay = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testClient(t *testing.T, handler http.HandlerFunc) *ESPNClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 1000
	cfg.Retry = RetryPolicy{MaxAttempts: 1, MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	httpClient := NewRateLimitedHTTPClient(cfg, quietLogger())

	return NewESPNClient(httpClient, normalize.MLBVocabulary(), ESPNOptions{BaseURL: server.URL, CacheTTL: time.Minute}, quietLogger())
}

func TestFetchResultsParsesCompletedGames(t *testing.T) {
	var gotQuery string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scoreboardJSON))
	})

	results, err := client.FetchResults(context.Background(), gameDay)
	require.NoError(t, err)
	assert.Equal(t, "dates=20250615", gotQuery)
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "BOS", first.HomeTeamID)
	assert.Equal(t, "NYY", first.AwayTeamID)
	assert.Equal(t, 3, first.HomeScore)
	assert.Equal(t, 5, first.AwayScore)
	assert.Equal(t, "2025-06-15", first.DateKey())
	assert.Equal(t, "mlb", first.Sport)
	assert.Equal(t, "espn", first.Source)

	second := results[1]
	assert.Equal(t, "WAS", second.HomeTeamID)
	assert.Equal(t, "AZ", second.AwayTeamID)
}

func TestFetchResultsUsesCache(t *testing.T) {
	var calls int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(scoreboardJSON))
	})

	_, err := client.FetchResults(context.Background(), gameDay)
	require.NoError(t, err)
	_, err = client.FetchResults(context.Background(), gameDay)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchResultsErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"rate limited", http.StatusTooManyRequests, "", ErrCodeRateLimitExceeded},
		{"not found", http.StatusNotFound, "", ErrCodeNotFound},
		{"bad payload", http.StatusOK, "{not json", ErrCodeInvalidData},
		{"forbidden", http.StatusForbidden, "nope", ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.FetchResults(context.Background(), gameDay)
			require.Error(t, err)

			var dsErr DataSourceError
			require.True(t, errors.As(err, &dsErr))
			assert.Equal(t, tt.code, dsErr.Code)
			assert.Equal(t, tt.code == ErrCodeRateLimitExceeded, IsRateLimited(err))
		})
	}
}

func TestFetchRangeKeepsDateOrder(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("dates") {
		case "20250614":
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write([]byte(`{"events":[{"id":"1","status":{"type":{"completed":true}},"competitions":[{"competitors":[
				{"homeAway":"home","score":"1","team":{"abbreviation":"HOU","displayName":"Houston Astros"}},
				{"homeAway":"away","score":"2","team":{"abbreviation":"TEX","displayName":"Texas Rangers"}}]}]}]}`))
		default:
			_, _ = w.Write([]byte(scoreboardJSON))
		}
	})

	results, err := client.FetchRange(context.Background(), gameDay.AddDate(0, 0, -1), gameDay)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "HOU", results[0].HomeTeamID)
	assert.Equal(t, "2025-06-14", results[0].DateKey())
	assert.Equal(t, "BOS", results[1].HomeTeamID)
}

func TestFetchRangeFailsOnAnyDay(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dates") == "20250615" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"events":[]}`))
	})

	_, err := client.FetchRange(context.Background(), gameDay.AddDate(0, 0, -2), gameDay)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2
	cfg.Retry = RetryPolicy{MaxAttempts: 0}
	client := NewRateLimitedHTTPClient(cfg, quietLogger())

	// nothing listens on this port
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), "http://127.0.0.1:1/scoreboard")
		require.Error(t, err)
	}
	_, err := client.Get(context.Background(), "http://127.0.0.1:1/scoreboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	client.Reset()
	_, err = client.Get(context.Background(), "http://127.0.0.1:1/scoreboard")
	assert.NotContains(t, err.Error(), "circuit breaker open")
}

func TestCustomRetryPolicy(t *testing.T) {
	policy := customRetryPolicy()
	tests := []struct {
		status int
		retry  bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		retry, _ := policy(context.Background(), &http.Response{StatusCode: tt.status}, nil)
		assert.Equal(t, tt.retry, retry, "status %d", tt.status)
	}
}

func TestHTTPClientConfigFrom(t *testing.T) {
	cfg := HTTPClientConfigFrom(config.ResultsSourceConfig{
		TimeoutSeconds:    7,
		RequestsPerSecond: 3,
		Burst:             4,
		RetryAttempts:     2,
	})
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, 3.0, cfg.RateLimit)
	assert.Equal(t, 4, cfg.Burst)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestFactoryRejectsUnknownSport(t *testing.T) {
	cfg := &config.Config{ResultsSource: config.ResultsSourceConfig{BaseURL: "https://example.com"}}
	factory := NewFactory(cfg, normalize.NewRegistry(), quietLogger())

	_, err := factory.NewResultsSource("curling")
	assert.Error(t, err)

	src, err := factory.NewResultsSource("mlb")
	require.NoError(t, err)
	assert.Equal(t, "espn", src.Name())
}
