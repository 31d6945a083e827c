package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// TeacherRepository reads teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ExistsByNIP checks staff id uniqueness, ignoring excludeID when set.
func (r *TeacherRepository) ExistsByNIP(ctx context.Context, nip, excludeID string) (bool, error) {
	if excludeID != "" {
		return exists(ctx, r.db, "SELECT 1 FROM teachers WHERE nip = $1 AND id <> $2 LIMIT 1", nip, excludeID)
	}
	return exists(ctx, r.db, "SELECT 1 FROM teachers WHERE nip = $1 LIMIT 1", nip)
}
