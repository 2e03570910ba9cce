package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"farmops/internal/core/apperror"
)

// SQLSTATE codes handled by TranslateError.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
)

// TranslateError maps Postgres errors to AppErrors. AppErrors and errors
// without a Postgres cause are returned unchanged.
func TranslateError(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return apperror.NewConcurrencyConflict(pgErr.TableName, "").
			WithDetail("sqlstate", pgErr.Code).
			WithCause(err)
	case sqlStateForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlStateUniqueViolation:
		return apperror.NewValidation("record already exists").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlStateCheckViolation:
		return apperror.NewValidation("value violates a constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
