package repositories

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/pkg/errors"
)

// Postgres SQLSTATE codes the store reacts to.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
)

// translate maps driver errors onto the store contract. Serialization
// failures and deadlocks become retryable conflicts.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return &store.ConflictError{Code: pgErr.Code, Err: err}
	case sqlStateUniqueViolation:
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
