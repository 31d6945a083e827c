package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// StudentRepository reads student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ExistsByNIS checks NIS uniqueness, ignoring excludeID when set.
func (r *StudentRepository) ExistsByNIS(ctx context.Context, nis, excludeID string) (bool, error) {
	if excludeID != "" {
		return exists(ctx, r.db, "SELECT 1 FROM students WHERE nis = $1 AND id <> $2 LIMIT 1", nis, excludeID)
	}
	return exists(ctx, r.db, "SELECT 1 FROM students WHERE nis = $1 LIMIT 1", nis)
}

// ExistsByNISN checks NISN uniqueness, ignoring excludeID when set.
func (r *StudentRepository) ExistsByNISN(ctx context.Context, nisn, excludeID string) (bool, error) {
	if excludeID != "" {
		return exists(ctx, r.db, "SELECT 1 FROM students WHERE nisn = $1 AND id <> $2 LIMIT 1", nisn, excludeID)
	}
	return exists(ctx, r.db, "SELECT 1 FROM students WHERE nisn = $1 LIMIT 1", nisn)
}

// FindByNIS resolves a student by NIS, restricted to classID when set.
func (r *StudentRepository) FindByNIS(ctx context.Context, nis, classID string) (*models.Student, error) {
	query := `SELECT id, user_id, nis, nisn, gender, birth_date, address, class_id, active, created_at, updated_at
        FROM students WHERE nis = $1`
	args := []interface{}{nis}
	if classID != "" {
		query += " AND class_id = $2"
		args = append(args, classID)
	}
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, args...); err != nil {
		return nil, err
	}
	return &student, nil
}

// HasPrimaryGuardian reports whether the student already has a primary guardian.
func (r *StudentRepository) HasPrimaryGuardian(ctx context.Context, studentID string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM student_guardians WHERE student_id = $1 AND is_primary LIMIT 1", studentID)
}

// ListActiveByClass returns the active students of a class ordered by name.
func (r *StudentRepository) ListActiveByClass(ctx context.Context, classID string) ([]models.StudentSummary, error) {
	query := `SELECT st.id, u.full_name, st.nis
        FROM students st JOIN users u ON u.id = st.user_id
        WHERE st.class_id = $1 AND st.active
        ORDER BY u.full_name, st.nis`
	students := []models.StudentSummary{}
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, err
	}
	return students, nil
}
