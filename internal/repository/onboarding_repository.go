package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// OnboardingRepository creates an account together with its role profile
// as one atomic unit.
type OnboardingRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewOnboardingRepository constructs an OnboardingRepository.
func NewOnboardingRepository(db *sqlx.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db, now: time.Now}
}

const insertUserQuery = `INSERT INTO users (id, full_name, role, username, email, password_hash, plain_password, religion, created_at, updated_at)
        VALUES (:id, :full_name, :role, :username, :email, :password_hash, :plain_password, :religion, :created_at, :updated_at)`

func (r *OnboardingRepository) insertUser(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := tx.NamedExecContext(ctx, insertUserQuery, user); err != nil {
		return mapWriteError("create user", err)
	}
	return nil
}

// CreateStudent inserts the user and student rows.
func (r *OnboardingRepository) CreateStudent(ctx context.Context, user *models.User, student *models.Student) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.insertUser(ctx, tx, user); err != nil {
			return err
		}
		student.ID = uuid.NewString()
		student.UserID = user.ID
		student.CreatedAt = user.CreatedAt
		student.UpdatedAt = user.CreatedAt
		query := `INSERT INTO students (id, user_id, nis, nisn, gender, birth_date, address, class_id, active, created_at, updated_at)
            VALUES (:id, :user_id, :nis, :nisn, :gender, :birth_date, :address, :class_id, :active, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
			return mapWriteError("create student", err)
		}
		return nil
	})
}

// CreateTeacher inserts the user and teacher rows.
func (r *OnboardingRepository) CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.insertUser(ctx, tx, user); err != nil {
			return err
		}
		teacher.ID = uuid.NewString()
		teacher.UserID = user.ID
		teacher.CreatedAt = user.CreatedAt
		teacher.UpdatedAt = user.CreatedAt
		query := `INSERT INTO teachers (id, user_id, nip, phone, address, active, created_at, updated_at)
            VALUES (:id, :user_id, :nip, :phone, :address, :active, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
			return mapWriteError("create teacher", err)
		}
		return nil
	})
}

// CreateGuardian inserts the user, guardian and student link rows.
func (r *OnboardingRepository) CreateGuardian(ctx context.Context, user *models.User, guardian *models.Guardian, link *models.StudentGuardian) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.insertUser(ctx, tx, user); err != nil {
			return err
		}
		guardian.ID = uuid.NewString()
		guardian.UserID = user.ID
		guardian.CreatedAt = user.CreatedAt
		guardian.UpdatedAt = user.CreatedAt
		query := `INSERT INTO guardians (id, user_id, phone, address, occupation, created_at, updated_at)
            VALUES (:id, :user_id, :phone, :address, :occupation, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, guardian); err != nil {
			return mapWriteError("create guardian", err)
		}

		link.GuardianID = guardian.ID
		linkQuery := `INSERT INTO student_guardians (student_id, guardian_id, relationship, is_primary)
            VALUES (:student_id, :guardian_id, :relationship, :is_primary)`
		if _, err := tx.NamedExecContext(ctx, linkQuery, link); err != nil {
			return mapWriteError("link guardian", err)
		}
		return nil
	})
}
