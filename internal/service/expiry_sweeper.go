package service

import (
	"context"
	"time"

	"github.com/shinyyama/bargain-backend/internal/metrics"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	DefaultSweepInterval  = 5 * time.Minute
	DefaultSweepBatchSize = 100
)

// ExpirySweeper expires stale negotiations in batches. Each row is expired in
// its own transaction, so a failure on one never blocks the rest.
type ExpirySweeper struct {
	bargains  repository.BargainRepository
	svc       BargainService
	log       *zap.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewExpirySweeper(bargains repository.BargainRepository, svc BargainService, log *zap.Logger, interval time.Duration, batchSize int) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &ExpirySweeper{
		bargains:  bargains,
		svc:       svc,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// SweepOnce processes one batch and returns how many bargains it expired.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.bargains.ListExpiredIDs(ctx, s.now(), s.batchSize)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.svc.Expire(ctx, id)
		if err != nil {
			s.log.Warn("expire bargain failed", zap.Uint64("bargain_id", id), zap.Error(err))
			continue
		}
		if ok {
			expired++
		}
	}
	metrics.SweepRuns.WithLabelValues("ok").Inc()
	if expired > 0 {
		s.log.Info("expiry sweep", zap.Int("candidates", len(ids)), zap.Int("expired", expired))
	}
	return expired, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil {
			s.log.Error("expiry sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
