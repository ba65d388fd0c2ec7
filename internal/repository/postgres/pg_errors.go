package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/parkwise/parkgo/internal/repository"
)

// IsRetryable reports whether the error is a serialization failure or
// deadlock the caller may safely retry.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		// unique_violation
		if pge.Code == "23505" {
			return repository.ErrConflict
		}
		// serialization_failure, deadlock_detected
		if pge.Code == "40001" || pge.Code == "40P01" {
			return repository.ErrTransient
		}
		// connection_exception class
		if len(pge.Code) >= 2 && pge.Code[:2] == "08" {
			return repository.ErrTransient
		}
	}

	return err
}
