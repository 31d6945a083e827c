package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-habit-api/pkg/database"
)

// DuplicateError reports a unique constraint violation caught at write time.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// IsDuplicate reports whether err is a DuplicateError, optionally on one of
// the given constraints.
func IsDuplicate(err error, constraints ...string) bool {
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if dup.Constraint == c {
			return true
		}
	}
	return false
}

// Constraint names referenced by callers.
const (
	ConstraintUsername    = "users_username_key"
	ConstraintEmail       = "users_email_key"
	ConstraintNIS         = "students_nis_key"
	ConstraintNISN        = "students_nisn_key"
	ConstraintNIP         = "teachers_nip_key"
	ConstraintPrimary     = "student_guardians_primary_key"
	ConstraintDailyRecord = "activity_submissions_daily_key"
)

func mapWriteError(op string, err error) error {
	if name, ok := database.UniqueViolation(err); ok {
		return &DuplicateError{Constraint: name, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// withTx runs fn in one transaction, rolling back on any error.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
