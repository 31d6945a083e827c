package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// UniqueViolation reports whether err is a unique constraint violation from
// either driver, returning the constraint name when it is.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return pqErr.Constraint, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsUniqueViolation is UniqueViolation without the constraint name.
func IsUniqueViolation(err error) bool {
	_, ok := UniqueViolation(err)
	return ok
}
