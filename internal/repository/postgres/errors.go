package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// constraintError rewrites a constraint violation into a domain error kind.
// Other errors are returned unchanged.
func constraintError(err error, missing, duplicate error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == foreignKeyViolation && missing != nil:
		return fmt.Errorf("%w: %s", missing, pgErr.ConstraintName)
	case pgErr.Code == uniqueViolation && duplicate != nil:
		return fmt.Errorf("%w: %s", duplicate, pgErr.ConstraintName)
	}
	return err
}
