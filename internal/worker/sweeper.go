package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sentinelops/triage/internal/executor"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/repository/sqlstore"
)

// Sweeper runs the periodic maintenance jobs: reversing auto-expiring
// actions whose in-process timers were lost across a restart, and
// purging retained credential material past the restore window.
type Sweeper struct {
	cron     *cron.Cron
	executor *executor.Executor
	restore  *sqlstore.RestoreRepository
	cfg      executor.ConfigProvider
	logger   *logger.Logger
}

// NewSweeper creates the sweeper with its jobs registered but not started
func NewSweeper(exec *executor.Executor, restore *sqlstore.RestoreRepository, cfg executor.ConfigProvider, log *logger.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(),
		executor: exec,
		restore:  restore,
		cfg:      cfg,
		logger:   log,
	}

	if _, err := s.cron.AddFunc("@every 1m", s.expireOverdue); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("@hourly", s.purgeRetired); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running jobs on their schedules
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Maintenance sweeper started")
}

// Stop halts scheduling and waits for running jobs to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) expireOverdue() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.executor.ExpireOverdue(ctx, time.Now()); err != nil {
		s.logger.ErrorWithErr(err, "Expiry sweep failed")
	}
}

func (s *Sweeper) purgeRetired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg().RestoreRetention)
	n, err := s.restore.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.ErrorWithErr(err, "Restore retention purge failed")
		return
	}
	if n > 0 {
		s.logger.WithFields(map[string]interface{}{
			"purged": n,
		}).Info("Purged retained credential material past restore window")
	}
}
