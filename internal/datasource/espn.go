package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
)

const (
	espnSourceName     = "espn"
	espnDateLayout     = "20060102"
	defaultConcurrency = 4
)

// ESPNScoreboard is the subset of the public scoreboard payload we read
type ESPNScoreboard struct {
	Events []ESPNEvent `json:"events"`
}

// ESPNEvent is one game on the scoreboard
type ESPNEvent struct {
	ID           string            `json:"id"`
	Date         string            `json:"date"`
	Status       ESPNStatus        `json:"status"`
	Competitions []ESPNCompetition `json:"competitions"`
}

// ESPNStatus carries the game state
type ESPNStatus struct {
	Type struct {
		Completed bool   `json:"completed"`
		State     string `json:"state"`
	} `json:"type"`
}

// ESPNCompetition lists both competitors of a game
type ESPNCompetition struct {
	Competitors []ESPNCompetitor `json:"competitors"`
}

// ESPNCompetitor is one team with its final score
type ESPNCompetitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		Abbreviation string `json:"abbreviation"`
		DisplayName  string `json:"displayName"`
	} `json:"team"`
}

// ESPNClient implements ResultsSource against the ESPN scoreboard API
type ESPNClient struct {
	httpClient  *RateLimitedHTTPClient
	baseURL     string
	vocabulary  *normalize.Vocabulary
	cache       *cache.Cache
	concurrency int
	logger      *logrus.Entry
}

// ESPNOptions configures an ESPNClient
type ESPNOptions struct {
	BaseURL     string
	CacheTTL    time.Duration
	Concurrency int
}

// NewESPNClient creates a scoreboard client for the vocabulary's sport
func NewESPNClient(httpClient *RateLimitedHTTPClient, vocab *normalize.Vocabulary, opts ESPNOptions, logger *logrus.Logger) *ESPNClient {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 15 * time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &ESPNClient{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		vocabulary:  vocab,
		cache:       cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		concurrency: opts.Concurrency,
		logger: logger.WithFields(logrus.Fields{
			"component": "results_source",
			"source":    espnSourceName,
			"sport":     vocab.Sport(),
		}),
	}
}

// Name returns the source name stored on every result
func (c *ESPNClient) Name() string {
	return espnSourceName
}

// FetchResults retrieves the completed games of one calendar day. Responses
// are cached per day.
func (c *ESPNClient) FetchResults(ctx context.Context, date time.Time) ([]*models.ResultRecord, error) {
	day := date.Format(espnDateLayout)
	if cached, ok := c.cache.Get(day); ok {
		return cached.([]*models.ResultRecord), nil
	}

	url := fmt.Sprintf("%s/scoreboard?dates=%s", c.baseURL, day)
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, NewDataSourceError(espnSourceName, ErrCodeNetworkError, "failed to fetch scoreboard", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(espnSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(espnSourceName, ErrCodeNotFound, "scoreboard not found for "+day, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(espnSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), ErrServerError)
	}

	var board ESPNScoreboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, NewDataSourceError(espnSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	gameDate, _ := time.Parse(models.DateLayout, date.Format(models.DateLayout))
	results := c.convert(board, gameDate)
	c.cache.SetDefault(day, results)

	c.logger.WithFields(logrus.Fields{"date": day, "events": len(board.Events), "completed": len(results)}).Info("Fetched scoreboard")
	return results, nil
}

// FetchRange fetches every day in [start, end] concurrently. Results come
// back in date order; the first failing day cancels the rest.
func (c *ESPNClient) FetchRange(ctx context.Context, start, end time.Time) ([]*models.ResultRecord, error) {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	perDay := make([][]*models.ResultRecord, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			results, err := c.FetchResults(gctx, day)
			if err != nil {
				return fmt.Errorf("failed to fetch results for %s: %w", day.Format(models.DateLayout), err)
			}
			perDay[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*models.ResultRecord
	for _, results := range perDay {
		all = append(all, results...)
	}
	return all, nil
}

func (c *ESPNClient) convert(board ESPNScoreboard, gameDate time.Time) []*models.ResultRecord {
	results := make([]*models.ResultRecord, 0, len(board.Events))
	for _, event := range board.Events {
		if !event.Status.Type.Completed || len(event.Competitions) == 0 {
			continue
		}
		result, err := c.toResult(event.Competitions[0], gameDate)
		if err != nil {
			c.logger.WithError(err).WithField("event_id", event.ID).Warn("Skipping scoreboard event")
			continue
		}
		results = append(results, result)
	}
	return results
}

func (c *ESPNClient) toResult(comp ESPNCompetition, gameDate time.Time) (*models.ResultRecord, error) {
	var home, away *ESPNCompetitor
	for i := range comp.Competitors {
		switch comp.Competitors[i].HomeAway {
		case "home":
			home = &comp.Competitors[i]
		case "away":
			away = &comp.Competitors[i]
		}
	}
	if home == nil || away == nil {
		return nil, fmt.Errorf("%w: missing home or away competitor", ErrInvalidData)
	}

	homeID, err := c.teamCode(home)
	if err != nil {
		return nil, err
	}
	awayID, err := c.teamCode(away)
	if err != nil {
		return nil, err
	}
	homeScore, err := strconv.Atoi(strings.TrimSpace(home.Score))
	if err != nil {
		return nil, fmt.Errorf("%w: home score %q", ErrInvalidData, home.Score)
	}
	awayScore, err := strconv.Atoi(strings.TrimSpace(away.Score))
	if err != nil {
		return nil, fmt.Errorf("%w: away score %q", ErrInvalidData, away.Score)
	}

	return &models.ResultRecord{
		ID:           uuid.New(),
		Sport:        c.vocabulary.Sport(),
		Date:         gameDate,
		HomeTeamID:   homeID,
		AwayTeamID:   awayID,
		HomeTeamName: home.Team.DisplayName,
		AwayTeamName: away.Team.DisplayName,
		HomeScore:    homeScore,
		AwayScore:    awayScore,
		Source:       espnSourceName,
	}, nil
}

// teamCode resolves the abbreviation first and the display name second.
// Only codes known to the vocabulary are accepted.
func (c *ESPNClient) teamCode(comp *ESPNCompetitor) (string, error) {
	if code := c.vocabulary.Normalize(comp.Team.Abbreviation, ""); c.vocabulary.Contains(code) {
		return code, nil
	}
	code, err := c.vocabulary.Resolve(comp.Team.DisplayName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve team %q: %w", comp.Team.DisplayName, err)
	}
	if !c.vocabulary.Contains(code) {
		return "", fmt.Errorf("%w: %q", normalize.ErrUnknownTeam, comp.Team.DisplayName)
	}
	return code, nil
}
