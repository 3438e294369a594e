// Package sweeper periodically clears expired entry leases.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LeaseSweeper clears expired leases and reports how many it cleared.
type LeaseSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper runs a LeaseSweeper on a fixed interval.
type Sweeper struct {
	log      *zap.SugaredLogger
	target   LeaseSweeper
	interval time.Duration
}

// New creates a sweeper; Run starts it.
func New(log *zap.SugaredLogger, target LeaseSweeper, interval time.Duration) *Sweeper {
	return &Sweeper{
		log:      log.Named("sweeper"),
		target:   target,
		interval: interval,
	}
}

// Run sweeps every interval until ctx ends. A failed sweep is logged and the loop continues.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infow("sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("sweeper stopped")
			return nil
		case <-ticker.C:
			s.Once(ctx)
		}
	}
}

// Once performs a single sweep and returns the number of leases cleared.
func (s *Sweeper) Once(ctx context.Context) int64 {
	n, err := s.target.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Errorw("lease sweep failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.log.Infow("leases reclaimed", "count", n)
	}
	return n
}
