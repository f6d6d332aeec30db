package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"intellimatch/domain"
)

// Sweeper resolves submissions whose analysis task never reached a terminal
// state, for example after a process death mid-task. Pending matches older
// than maxPending are pushed through the ordinary failure path, restoring
// the guarantee that no submission stays pending forever.
type Sweeper struct {
	cron       *cron.Cron
	matches    domain.MatchStore
	svc        *MatchService
	maxPending time.Duration
	spec       string
	logger     *zap.Logger
}

// NewSweeper creates a Sweeper firing every interval, resolving matches
// pending for longer than maxPending.
func NewSweeper(matches domain.MatchStore, svc *MatchService, interval, maxPending time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:       cron.New(),
		matches:    matches,
		svc:        svc,
		maxPending: maxPending,
		spec:       fmt.Sprintf("@every %s", interval),
		logger:     logger,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Run(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reconciliation sweep started",
		zap.String("spec", s.spec),
		zap.Duration("max_pending", s.maxPending))
	return nil
}

// Stop shuts down the scheduler.
func (s *Sweeper) Stop() { s.cron.Stop() }

// Run executes one sweep cycle. maxPending must be generous enough that a
// task still in flight is never mistaken for a lost one.
func (s *Sweeper) Run(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxPending)
	stale, err := s.matches.ListPendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep: list pending matches", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	s.logger.Warn("sweep: resolving stale pending matches", zap.Int("count", len(stale)))
	for i := range stale {
		match := stale[i]
		s.logger.Warn("sweep: analysis task lost",
			zap.String("match_id", match.ID),
			zap.Time("created_at", match.CreatedAt))
		s.svc.recordFailure(ctx, &match, errors.New("analysis did not complete in time"))
	}
}
