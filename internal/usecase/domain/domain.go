// Package domain contains the coordination core: entry leases, sheet distribution and team responses.
package domain

import (
	"context"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/metrics"
	"advisory-tracker/internal/notify"
	"advisory-tracker/internal/repository"

	"go.uber.org/zap"
)

// Usecase struct implements all usecase interfaces.
type Usecase struct {
	ctx      context.Context
	log      *zap.SugaredLogger
	repo     repository.Repository
	timeout  time.Duration
	leaseTTL time.Duration
	now      func() time.Time
	sink     notify.Sink
	metrics  *metrics.CoreMetrics
}

// Option configures optional collaborators of the Usecase.
type Option func(*Usecase)

// WithLeaseTTL overrides entities.LeaseTTL.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(u *Usecase) {
		if ttl > 0 {
			u.leaseTTL = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		if now != nil {
			u.now = now
		}
	}
}

// WithNotifier sets the sink receiving transition events.
func WithNotifier(sink notify.Sink) Option {
	return func(u *Usecase) {
		if sink != nil {
			u.sink = sink
		}
	}
}

// WithMetrics enables operation metrics.
func WithMetrics(m *metrics.CoreMetrics) Option {
	return func(u *Usecase) {
		u.metrics = m
	}
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	timeout time.Duration,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		ctx:      ctx,
		log:      log,
		repo:     repo,
		timeout:  timeout,
		leaseTTL: entities.LeaseTTL,
		now:      time.Now,
		sink:     notify.Nop{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}
