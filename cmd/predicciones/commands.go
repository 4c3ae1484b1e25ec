package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/datasource"
	"github.com/josema3054/predicciones-deportivas/internal/health"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/scheduler"
	"github.com/josema3054/predicciones-deportivas/internal/service"
	"github.com/josema3054/predicciones-deportivas/internal/simulator"
)

var (
	importFile    string
	batchSize     int
	sportFlag     string
	marketFlag    string
	formatFlag    string
	outputFlag    string
	startFlag     string
	endFlag       string
	retentionDays int
	thresholdFlag int
	maxBetsFlag   int
	shufflesFlag  int
	seedFlag      int64
	windowDays    int
	stepDays      int
	minPairs      int
)

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file of scraped consensus rows (- for stdin)")
	importCmd.Flags().IntVarP(&batchSize, "batch-size", "b", 100, "Rows inserted per batch")
	_ = importCmd.MarkFlagRequired("file")

	for _, cmd := range []*cobra.Command{linkCmd, analyzeCmd, simulateCmd, trendCmd, fetchResultsCmd} {
		cmd.Flags().StringVarP(&sportFlag, "sport", "s", "", "Sport to process (defaults to analysis.sport)")
	}
	for _, cmd := range []*cobra.Command{analyzeCmd, simulateCmd, trendCmd} {
		cmd.Flags().StringVarP(&marketFlag, "market", "m", "", "Market kind: WINNER_LOSER or OVER_UNDER (default all)")
		cmd.Flags().StringVar(&formatFlag, "format", "console", "Output format: console, csv, html or json")
		cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the report to this file instead of stdout")
	}
	simulateCmd.Flags().IntVar(&thresholdFlag, "threshold", -1, "Minimum consensus percentage to bet (overrides config)")
	simulateCmd.Flags().IntVar(&maxBetsFlag, "max-bets", -1, "Stop after this many bets, 0 for no cap (overrides config)")
	simulateCmd.Flags().IntVar(&shufflesFlag, "shuffles", 0, "Also replay the bets in this many random orders")
	simulateCmd.Flags().Int64Var(&seedFlag, "seed", simulator.DefaultSeed, "Seed for --shuffles (0 seeds from the clock)")

	trendCmd.Flags().IntVar(&windowDays, "window-days", 14, "Days per window")
	trendCmd.Flags().IntVar(&stepDays, "step-days", 0, "Days between window starts (default window-days)")
	trendCmd.Flags().IntVar(&minPairs, "min-pairs", 5, "Drop windows with fewer linked games")

	fetchResultsCmd.Flags().StringVar(&startFlag, "start", "", "First game date, YYYY-MM-DD (default yesterday)")
	fetchResultsCmd.Flags().StringVar(&endFlag, "end", "", "Last game date, YYYY-MM-DD (default start)")

	purgeCmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Delete records older than this many days (default scheduler.retention_days)")

	rootCmd.AddCommand(importCmd, fetchResultsCmd, linkCmd, analyzeCmd, trendCmd, simulateCmd, serveCmd, migrateCmd, purgeCmd, versionCmd)
}

var importCmd = &cobra.Command{
	Use:   "import-consensus",
	Short: "Import scraped consensus rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		in, closeIn, err := openInput(importFile)
		if err != nil {
			return err
		}
		defer closeIn()

		rows, err := service.DecodeRows(in)
		if err != nil {
			return err
		}

		svc := service.NewIngestionService(a.repos.Consensus, a.validator, service.NewDataNormalizer(registry, logger), logger, batchSize)
		result, err := svc.ImportConsensus(ctx, rows)
		if result != nil {
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
		}
		return err
	},
}

var fetchResultsCmd = &cobra.Command{
	Use:   "fetch-results",
	Short: "Fetch final scores into storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start, end, err := dateRange(startFlag, endFlag, time.Now().UTC())
		if err != nil {
			return err
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.resultsService(sport())
		if err != nil {
			return err
		}
		summary, err := svc.FetchAndStore(ctx, start, end)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d results for %s..%s, stored %d, rejected %d\n",
			summary.Fetched, summary.Start, summary.End, summary.Stored, summary.Rejected)
		return nil
	},
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link stored results to unlinked consensus records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, _, err := a.linkingService().Link(ctx, sport())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Candidates %d, results %d, matched %d, applied %d, unmatched %d, skipped %d, duplicates %d\n",
			summary.Candidates, summary.Results, summary.Matched, summary.Applied, summary.Unmatched, summary.Skipped, summary.Duplicates)
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report the accuracy of following the consensus",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := marketKind(marketFlag, cfg.Analysis.MarketKind)
		if err != nil {
			return err
		}
		reporter, err := newReporter()
		if err != nil {
			return err
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.analysisService()
		if err != nil {
			return err
		}
		report, err := svc.Effectiveness(ctx, sport(), kind)
		if err != nil {
			return err
		}

		if path := outputPath(cfg.Analysis.OutputPath); path != "" {
			if err := reporter.WriteReportFile(path, *report); err != nil {
				return err
			}
			logger.WithField("path", path).Info("Report written")
			return nil
		}
		return reporter.WriteReport(cmd.OutOrStdout(), *report)
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Report consensus accuracy over rolling date windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := marketKind(marketFlag, cfg.Analysis.MarketKind)
		if err != nil {
			return err
		}
		reporter, err := newReporter()
		if err != nil {
			return err
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.analysisService()
		if err != nil {
			return err
		}
		trend, err := svc.Trend(ctx, sport(), analysis.TrendConfig{
			WindowDays: windowDays,
			StepDays:   stepDays,
			MinPairs:   minPairs,
			Kind:       kind,
		})
		if err != nil {
			return err
		}
		if outputFlag != "" {
			return reporter.WriteTrendFile(outputFlag, trend)
		}
		return reporter.WriteTrend(cmd.OutOrStdout(), trend)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay consensus picks against a fixed-stake bankroll",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kind, err := marketKind(marketFlag, cfg.Simulation.MarketKind)
		if err != nil {
			return err
		}
		reporter, err := newReporter()
		if err != nil {
			return err
		}

		simCfg, err := simulator.FromConfig(&cfg.Simulation)
		if err != nil {
			return err
		}
		if thresholdFlag >= 0 {
			simCfg.Threshold = thresholdFlag
		}
		if maxBetsFlag >= 0 {
			simCfg.MaxBets = maxBetsFlag
		}
		if err := simCfg.Validate(); err != nil {
			return err
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.analysisService()
		if err != nil {
			return err
		}
		summary, run, err := svc.Simulate(ctx, sport(), kind, simCfg)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"run_id": run.ID, "final_state": run.FinalState}).Info("Simulation finished")

		if path := outputPath(cfg.Simulation.OutputPath); path != "" {
			if err := reporter.WriteSimulationFile(path, summary); err != nil {
				return err
			}
		} else if err := reporter.WriteSimulation(cmd.OutOrStdout(), summary); err != nil {
			return err
		}

		if shufflesFlag <= 0 {
			return nil
		}
		risk, err := svc.SequenceRisk(ctx, sport(), kind, simCfg, simulator.MonteCarloConfig{Iterations: shufflesFlag, Seed: seedFlag})
		if err != nil {
			return err
		}
		return reporter.WriteSequenceRisk(cmd.OutOrStdout(), risk)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health, metrics and reports, and run scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		analysisSvc, err := a.analysisService()
		if err != nil {
			return err
		}

		server := health.NewServer(health.Config{
			ServiceName:    cfg.App.Name,
			Version:        Version,
			Commit:         GitCommit,
			Port:           strings.TrimPrefix(cfg.ServerAddress(), ":"),
			MetricsPath:    cfg.Metrics.Path,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
			DefaultSport:   cfg.Analysis.Sport,
			Logger:         logger,
			DB:             a.db,
			Reports:        analysisSvc,
		})

		var sched *scheduler.Scheduler
		if cfg.Scheduler.Enabled {
			results, err := a.resultsService(cfg.Analysis.Sport)
			if err != nil {
				return err
			}
			sched = scheduler.NewScheduler(cfg.Analysis.Sport, scheduler.Jobs{
				Results: results,
				Linker:  a.linkingService(),
				Reports: analysisSvc,
				Purger:  service.NewRetentionService(a.repos.Consensus, a.repos.Result, logger),
			}, logger)
			if err := sched.ScheduleFromConfig(cfg.Scheduler); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
		}

		// shutdown is driven below so the scheduler stops first
		if err := server.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		server.SetReady(true)

		<-ctx.Done()
		logger.Info("Shutting down")
		server.SetReady(false)
		if sched != nil {
			if err := sched.Stop(); err != nil {
				logger.WithError(err).Warn("Scheduler did not stop cleanly")
			}
		}
		return server.Shutdown()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		applied, err := a.db.Migrate(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied migrations %v\n", applied)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete consensus records and results past retention",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		days := retentionDays
		if days == 0 {
			days = cfg.Scheduler.RetentionDays
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := service.NewRetentionService(a.repos.Consensus, a.repos.Result, logger).Purge(ctx, days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d consensus records and %d results before %s\n",
			summary.Consensus, summary.Results, summary.Cutoff.Format(models.DateLayout))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "predicciones %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func (a *app) resultsService(sport string) (*service.ResultsService, error) {
	source, err := datasource.NewFactory(cfg, registry, logger).NewResultsSource(sport)
	if err != nil {
		return nil, err
	}
	return service.NewResultsService(sport, source, a.repos.Result, a.validator, logger), nil
}

func sport() string {
	if sportFlag != "" {
		return strings.ToLower(sportFlag)
	}
	return cfg.Analysis.Sport
}

func marketKind(flag, fallback string) (models.MarketKind, error) {
	v := flag
	if v == "" {
		v = fallback
	}
	switch kind := models.MarketKind(strings.ToUpper(v)); kind {
	case "", models.MarketWinnerLoser, models.MarketOverUnder:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown market kind %q", v)
	}
}

func newReporter() (*analysis.Reporter, error) {
	format, err := analysis.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}
	return analysis.NewReporter(format), nil
}

func outputPath(fallback string) string {
	if outputFlag != "" {
		return outputFlag
	}
	return fallback
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// dateRange parses the --start/--end flags. Without a start it covers the
// day before now.
func dateRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	var from, to time.Time
	if start == "" {
		from = now.Truncate(24*time.Hour).AddDate(0, 0, -1)
	} else {
		parsed, err := time.Parse(models.DateLayout, start)
		if err != nil {
			return from, to, fmt.Errorf("invalid --start %q: %w", start, err)
		}
		from = parsed
	}
	to = from
	if end != "" {
		parsed, err := time.Parse(models.DateLayout, end)
		if err != nil {
			return from, to, fmt.Errorf("invalid --end %q: %w", end, err)
		}
		to = parsed
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("--end %s is before --start %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}
	return from, to, nil
}
