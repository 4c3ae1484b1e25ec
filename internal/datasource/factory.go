package datasource

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/config"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
)

// Factory creates ResultsSource implementations based on configuration
type Factory struct {
	logger   *logrus.Logger
	config   *config.Config
	registry *normalize.Registry
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, registry *normalize.Registry, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger:   logger,
		config:   cfg,
		registry: registry,
	}
}

// NewResultsSource builds the scoreboard client for sport
func (f *Factory) NewResultsSource(sport string) (ResultsSource, error) {
	vocab, ok := f.registry.Get(sport)
	if !ok {
		return nil, fmt.Errorf("no team vocabulary for sport %q", sport)
	}

	src := f.config.ResultsSource
	if !strings.HasPrefix(src.BaseURL, "http") {
		return nil, fmt.Errorf("invalid results source base_url %q", src.BaseURL)
	}

	httpClient := NewRateLimitedHTTPClient(HTTPClientConfigFrom(src), f.logger)
	return NewESPNClient(httpClient, vocab, ESPNOptions{
		BaseURL:     src.BaseURL,
		CacheTTL:    f.config.ResultsCacheTTL(),
		Concurrency: src.MaxConcurrency,
	}, f.logger), nil
}
