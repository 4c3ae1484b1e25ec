// Package main provides the command line entry point for consensus import,
// result linking, effectiveness analysis and bankroll simulation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/config"
	"github.com/josema3054/predicciones-deportivas/internal/database"
	applogger "github.com/josema3054/predicciones-deportivas/internal/logger"
	"github.com/josema3054/predicciones-deportivas/internal/matcher"
	"github.com/josema3054/predicciones-deportivas/internal/metrics"
	"github.com/josema3054/predicciones-deportivas/internal/normalize"
	"github.com/josema3054/predicciones-deportivas/internal/repository"
	"github.com/josema3054/predicciones-deportivas/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	registry   *normalize.Registry
)

var rootCmd = &cobra.Command{
	Use:   "predicciones",
	Short: "Measure how often the betting public is right",
	Long: `Imports public betting consensus, links it to final scores and reports
the accuracy of following the majority, with a fixed-stake bankroll replay.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := loadConfigWithSecrets(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return setupDependencies()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfigWithSecrets(ctx context.Context) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setupDependencies() error {
	logger = applogger.NewLogger(cfg.App.LogLevel)
	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Debug("Configuration loaded")

	registry = normalize.NewRegistry()
	if cfg.Vocabulary.Path != "" {
		if err := registry.LoadFile(cfg.Vocabulary.Path); err != nil {
			return fmt.Errorf("failed to load vocabulary: %w", err)
		}
	}

	metrics.InitRegistry()
	return nil
}

// app holds the storage-backed services a command needs
type app struct {
	db        *database.DB
	repos     *repository.Repositories
	validator *service.DataValidator
}

func openApp(ctx context.Context) (*app, error) {
	db, err := database.Initialize(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &app{
		db:        db,
		repos:     repos,
		validator: service.NewDataValidator(registry, logger),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func (a *app) linkingService() *service.LinkingService {
	return service.NewLinkingService(a.repos.Consensus, a.repos.Result, matcher.NewMatcher(cfg.Matching.WindowDays, logger), logger)
}

func (a *app) analysisService() (*service.AnalysisService, error) {
	buckets := analysis.DefaultBuckets
	if len(cfg.Analysis.Buckets) > 0 {
		buckets = make([]analysis.BucketRange, len(cfg.Analysis.Buckets))
		for i, b := range cfg.Analysis.Buckets {
			buckets[i] = analysis.BucketRange{Min: b.Min, Max: b.Max}
		}
		if err := analysis.ValidateBuckets(buckets); err != nil {
			return nil, fmt.Errorf("invalid analysis buckets: %w", err)
		}
	}
	return service.NewAnalysisService(a.repos.Consensus, a.repos.SimulationRun, analysis.NewAggregator(buckets, logger), a.validator, logger), nil
}
