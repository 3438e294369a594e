package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/metrics"
	"advisory-tracker/internal/notify"
)

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// observe records the outcome of op started at start. It reads *err when deferred.
func (u *Usecase) observe(op string, start time.Time, err *error) {
	status := metrics.StatusSuccess
	switch {
	case *err == nil:
	case errors.Is(*err, entities.ErrLockConflict):
		status = metrics.StatusConflict
	default:
		status = metrics.StatusError
	}
	u.metrics.RecordOperation(op, status, time.Since(start))
}

// emit hands e to the sink. Events are emitted after commit, so a failure is only logged.
func (u *Usecase) emit(e notify.Event) {
	ctx := u.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := u.sink.Emit(ctx, e); err != nil {
		u.log.Warnw("failed to emit notification", "kind", e.Kind, "error", err)
	}
}

func (u *Usecase) event(kind notify.Kind) notify.Event {
	return notify.NewEvent(kind, u.now())
}

func requireUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", entities.ErrInvalidArgument)
	}
	return nil
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be positive", entities.ErrInvalidArgument, name)
	}
	return nil
}

// requireMember rejects writes from users outside teamID.
func (u *Usecase) requireMember(ctx context.Context, teamID, userID string) error {
	ok, err := u.repo.IsTeamMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return entities.ErrNotTeamMember
	}
	return nil
}
