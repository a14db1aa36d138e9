package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/config"
)

const jobTimeout = 2 * time.Minute

// DigestBuilder renders the weekly summary text.
type DigestBuilder interface {
	WeeklyDigest(ctx context.Context, end time.Time) (string, error)
}

// SheetSyncer mirrors records to the configured spreadsheet.
type SheetSyncer interface {
	SheetsEnabled() bool
	SyncSheets(ctx context.Context) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	digests DigestBuilder
	syncer  SheetSyncer
	cfg     config.Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, digests DigestBuilder, syncer SheetSyncer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New()

	return &Scheduler{
		cron:    c,
		digests: digests,
		syncer:  syncer,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the configured jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.logWeeklyDigest); err != nil {
		return fmt.Errorf("schedule weekly digest %q: %w", s.cfg.Reporting.CronSchedule, err)
	}

	if schedule := s.cfg.Sheets.SyncSchedule; schedule != "" {
		if s.syncer == nil || !s.syncer.SheetsEnabled() {
			s.logger.Warn("sheets sync schedule ignored: google sheets is not configured")
		} else if _, err := s.cron.AddFunc(schedule, s.syncSheets); err != nil {
			return fmt.Errorf("schedule sheets sync %q: %w", schedule, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) logWeeklyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	digest, err := s.digests.WeeklyDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to build weekly digest", zap.Error(err))
		return
	}

	s.logger.Info("weekly digest", zap.String("digest", digest))
}

func (s *Scheduler) syncSheets() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.syncer.SyncSheets(ctx)
	if err != nil {
		s.logger.Error("scheduled sheets sync failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled sheets sync completed", zap.Int("rows", n))
}
