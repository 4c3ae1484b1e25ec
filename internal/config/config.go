// Package config provides configuration management for the consensus analysis tooling.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database" validate:"required"`
	ResultsSource ResultsSourceConfig `mapstructure:"results_source" validate:"required"`
	Matching      MatchingConfig      `mapstructure:"matching"`
	Analysis      AnalysisConfig      `mapstructure:"analysis" validate:"required"`
	Simulation    SimulationConfig    `mapstructure:"simulation" validate:"required"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Metrics       MetricsConfig       `mapstructure:"metrics" validate:"required"`
	Server        ServerConfig        `mapstructure:"server"`
	Vocabulary    VocabularyConfig    `mapstructure:"vocabulary"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ResultsSourceConfig configures the scoreboard API used to fetch final scores
type ResultsSourceConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	MaxConcurrency    int     `mapstructure:"max_concurrency" validate:"omitempty,gt=0"`
}

// MatchingConfig tunes the record matcher
type MatchingConfig struct {
	WindowDays int `mapstructure:"window_days" validate:"gte=0,lte=14"`
}

// BucketConfig is one inclusive confidence range
type BucketConfig struct {
	Min int `mapstructure:"min" validate:"gte=0,lte=100"`
	Max int `mapstructure:"max" validate:"gte=0,lte=100,gtefield=Min"`
}

// AnalysisConfig scopes the effectiveness report
type AnalysisConfig struct {
	Sport      string         `mapstructure:"sport" validate:"required,sport"`
	MarketKind string         `mapstructure:"market_kind" validate:"omitempty,oneof=WINNER_LOSER OVER_UNDER"`
	Buckets    []BucketConfig `mapstructure:"buckets" validate:"dive"`
	OutputPath string         `mapstructure:"output_path"`
}

// SimulationConfig represents bankroll simulation configuration
type SimulationConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance" validate:"required,gt=0"`
	Stake          float64 `mapstructure:"stake" validate:"required,gt=0"`
	Payout         float64 `mapstructure:"payout" validate:"required,gt=0"`
	Threshold      int     `mapstructure:"threshold" validate:"gte=0,lte=100"`
	MaxBets        int     `mapstructure:"max_bets" validate:"gte=0"`
	MarketKind     string  `mapstructure:"market_kind" validate:"omitempty,oneof=WINNER_LOSER OVER_UNDER"`
	OutputPath     string  `mapstructure:"output_path"`
}

// SchedulerConfig holds cron expressions for recurring jobs. Empty disables a job.
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	FetchResults  string `mapstructure:"fetch_results" validate:"omitempty,cron"`
	LinkResults   string `mapstructure:"link_results" validate:"omitempty,cron"`
	Report        string `mapstructure:"report" validate:"omitempty,cron"`
	RetentionDays int    `mapstructure:"retention_days" validate:"gte=0"`
	Purge         string `mapstructure:"purge" validate:"omitempty,cron"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ServerConfig configures the HTTP report and health server
type ServerConfig struct {
	Port                  int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"gte=0"`
}

// VocabularyConfig points at an optional team vocabulary file
type VocabularyConfig struct {
	Path string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ResultsTimeout returns the scoreboard request timeout
func (c *Config) ResultsTimeout() time.Duration {
	return time.Duration(c.ResultsSource.TimeoutSeconds) * time.Second
}

// ResultsCacheTTL returns how long fetched scoreboards stay cached
func (c *Config) ResultsCacheTTL() time.Duration {
	return time.Duration(c.ResultsSource.CacheTTLSeconds) * time.Second
}

// ServerAddress returns the listen address of the HTTP server, falling back
// to the metrics port when no server port is configured.
func (c *Config) ServerAddress() string {
	port := c.Server.Port
	if port == 0 {
		port = c.Metrics.Port
	}
	return fmt.Sprintf(":%d", port)
}
