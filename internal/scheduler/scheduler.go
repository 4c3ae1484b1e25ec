// Package scheduler runs the fetch, link, report and purge jobs on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/josema3054/predicciones-deportivas/internal/analysis"
	"github.com/josema3054/predicciones-deportivas/internal/config"
	"github.com/josema3054/predicciones-deportivas/internal/matcher"
	"github.com/josema3054/predicciones-deportivas/internal/models"
	"github.com/josema3054/predicciones-deportivas/internal/service"
)

// ResultsFetcher stores final scores for a date range
type ResultsFetcher interface {
	FetchAndStore(ctx context.Context, start, end time.Time) (*service.FetchSummary, error)
}

// Linker attaches stored results to consensus records
type Linker interface {
	Link(ctx context.Context, sport string) (*service.LinkSummary, *matcher.BatchResult, error)
}

// EffectivenessReporter builds the accuracy report
type EffectivenessReporter interface {
	Effectiveness(ctx context.Context, sport string, kind models.MarketKind) (*analysis.Report, error)
}

// Purger removes records past retention
type Purger interface {
	Purge(ctx context.Context, retentionDays int) (*service.PurgeSummary, error)
}

// Jobs holds the services the scheduled jobs call. Nil members are never
// scheduled.
type Jobs struct {
	Results ResultsFetcher
	Linker  Linker
	Reports EffectivenessReporter
	Purger  Purger
}

// Scheduler manages the scheduled pipeline jobs. A job still running when
// its next tick fires is skipped.
type Scheduler struct {
	cron            *cron.Cron
	jobs            Jobs
	sport           string
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler for one sport
func NewScheduler(sport string, jobs Jobs, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		jobs:            jobs,
		sport:           sport,
		logger:          logger.WithFields(logrus.Fields{"component": "scheduler", "sport": sport}),
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      time.Hour,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleFromConfig adds every job whose expression is set
func (s *Scheduler) ScheduleFromConfig(cfg config.SchedulerConfig) error {
	if cfg.FetchResults != "" && s.jobs.Results != nil {
		if err := s.ScheduleFetchResults(cfg.FetchResults, 1); err != nil {
			return err
		}
	}
	if cfg.LinkResults != "" && s.jobs.Linker != nil {
		if err := s.ScheduleLink(cfg.LinkResults); err != nil {
			return err
		}
	}
	if cfg.Report != "" && s.jobs.Reports != nil {
		if err := s.ScheduleReport(cfg.Report); err != nil {
			return err
		}
	}
	if cfg.Purge != "" && s.jobs.Purger != nil {
		if err := s.SchedulePurge(cfg.Purge, cfg.RetentionDays); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleFetchResults fetches the lookbackDays days before today
func (s *Scheduler) ScheduleFetchResults(cronExpression string, lookbackDays int) error {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return s.add("fetch-results", cronExpression, s.fetchResultsJob(lookbackDays))
}

// ScheduleLink links unlinked consensus records
func (s *Scheduler) ScheduleLink(cronExpression string) error {
	return s.add("link", cronExpression, s.linkJob())
}

// ScheduleReport recomputes the effectiveness report, refreshing its gauges
func (s *Scheduler) ScheduleReport(cronExpression string) error {
	return s.add("report", cronExpression, s.reportJob())
}

// SchedulePurge removes records older than retentionDays
func (s *Scheduler) SchedulePurge(cronExpression string, retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("purge job needs positive retention days, got %d", retentionDays)
	}
	return s.add("purge", cronExpression, s.purgeJob(retentionDays))
}

func (s *Scheduler) add(name, cronExpression string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"job": name, "cron": cronExpression}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) fetchResultsJob(lookbackDays int) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		today := s.now().UTC().Truncate(24 * time.Hour)
		start := today.AddDate(0, 0, -lookbackDays)
		end := today.AddDate(0, 0, -1)

		summary, err := s.jobs.Results.FetchAndStore(ctx, start, end)
		if err != nil {
			s.logger.WithError(err).WithField("job", "fetch-results").Error("Scheduled job failed")
			return
		}
		s.logger.WithFields(logrus.Fields{"job": "fetch-results", "fetched": summary.Fetched, "stored": summary.Stored}).Info("Scheduled job completed")
	}
}

func (s *Scheduler) linkJob() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		summary, _, err := s.jobs.Linker.Link(ctx, s.sport)
		if err != nil {
			s.logger.WithError(err).WithField("job", "link").Error("Scheduled job failed")
			return
		}
		s.logger.WithFields(logrus.Fields{"job": "link", "matched": summary.Matched, "applied": summary.Applied}).Info("Scheduled job completed")
	}
}

func (s *Scheduler) reportJob() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		for _, kind := range []models.MarketKind{"", models.MarketWinnerLoser, models.MarketOverUnder} {
			report, err := s.jobs.Reports.Effectiveness(ctx, s.sport, kind)
			if err != nil {
				s.logger.WithError(err).WithField("job", "report").Error("Scheduled job failed")
				return
			}
			s.logger.WithFields(logrus.Fields{"job": "report", "scope": report.Scope, "accuracy_pct": report.AccuracyPct}).Info("Scheduled job completed")
		}
	}
}

func (s *Scheduler) purgeJob(retentionDays int) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		summary, err := s.jobs.Purger.Purge(ctx, retentionDays)
		if err != nil {
			s.logger.WithError(err).WithField("job", "purge").Error("Scheduled job failed")
			return
		}
		s.logger.WithFields(logrus.Fields{"job": "purge", "consensus": summary.Consensus, "results": summary.Results}).Info("Scheduled job completed")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobIDs))

	return nil
}

// Stop stops the scheduler and waits for running jobs, up to the graceful
// timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %v", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.WithField("job_id", jobID).Info("Removed job")

	return nil
}
