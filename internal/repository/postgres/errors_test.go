package postgres

import (
	"errors"
	"testing"

	"advisory-tracker/internal/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestConstraintError(t *testing.T) {
	fk := &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "team_sheets_team_id_fkey"}
	err := constraintError(fk, entities.ErrTeamNotFound, nil)
	require.True(t, errors.Is(err, entities.ErrNotFound))
	require.Contains(t, err.Error(), "team_sheets_team_id_fkey")

	dup := &pgconn.PgError{Code: uniqueViolation}
	require.True(t, errors.Is(constraintError(dup, nil, entities.ErrInvalidArgument), entities.ErrInvalidArgument))
	require.Same(t, dup, constraintError(dup, entities.ErrTeamNotFound, nil))

	plain := errors.New("connection reset")
	require.Equal(t, plain, constraintError(plain, entities.ErrTeamNotFound, entities.ErrInvalidArgument))
}
