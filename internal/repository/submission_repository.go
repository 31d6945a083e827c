package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// SubmissionRepository stores activity submissions and their details.
type SubmissionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db, now: time.Now}
}

const submissionColumns = `s.id, s.student_id, s.activity_type_id, s.submitted_on, s.submitted_time::text AS submitted_time,
        s.photo_path, s.notes, s.status, s.approved_by, s.approved_at, s.rejection_reason, s.created_at, s.updated_at`

// Create inserts a pending submission with its detail rows.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.ActivitySubmission) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := r.now().UTC()
		sub.ID = uuid.NewString()
		sub.Status = models.SubmissionPending
		sub.CreatedAt = now
		sub.UpdatedAt = now
		query := `INSERT INTO activity_submissions (id, student_id, activity_type_id, submitted_on, submitted_time, photo_path, notes, status, created_at, updated_at)
            VALUES (:id, :student_id, :activity_type_id, :submitted_on, :submitted_time, :photo_path, :notes, :status, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, sub); err != nil {
			return mapWriteError("create submission", err)
		}

		detailQuery := `INSERT INTO activity_submission_details (id, submission_id, field_name, field_label, field_type, bool_value, text_value, position)
            VALUES (:id, :submission_id, :field_name, :field_label, :field_type, :bool_value, :text_value, :position)`
		for i := range sub.Details {
			d := &sub.Details[i]
			d.ID = uuid.NewString()
			d.SubmissionID = sub.ID
			if _, err := tx.NamedExecContext(ctx, detailQuery, d); err != nil {
				return mapWriteError("create submission detail", err)
			}
		}
		return nil
	})
}

// GetByID loads a submission and its details.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.ActivitySubmission, error) {
	var sub models.ActivitySubmission
	query := "SELECT " + submissionColumns + " FROM activity_submissions s WHERE s.id = $1"
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	details, err := r.DetailsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	sub.Details = details[id]
	return &sub, nil
}

// TransitionParams moves a submission out of pending.
type TransitionParams struct {
	ID              string
	To              models.SubmissionStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
}

// Transition applies the change only while the row is still pending. It
// returns sql.ErrNoRows when no pending row matched.
func (r *SubmissionRepository) Transition(ctx context.Context, params TransitionParams) error {
	query := fmt.Sprintf(`UPDATE activity_submissions
        SET status = :status, approved_by = :approved_by, approved_at = :approved_at,
            rejection_reason = :rejection_reason, updated_at = :updated_at
        WHERE id = :id AND status = '%s'`, models.SubmissionPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.To,
		"approved_by":      params.ApprovedBy,
		"approved_at":      params.ApprovedAt,
		"rejection_reason": params.RejectionReason,
		"updated_at":       r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("transition submission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submission transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForReport returns submissions of active class members in range ordered
// by date then name.
func (r *SubmissionRepository) ListForReport(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionRow, error) {
	conditions := []string{"st.class_id = $1", "st.active", "s.submitted_on BETWEEN $2 AND $3"}
	args := []interface{}{filter.ClassID, filter.Start, filter.End}
	if filter.ActivityTypeID != "" {
		args = append(args, filter.ActivityTypeID)
		conditions = append(conditions, fmt.Sprintf("s.activity_type_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("s.status = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s, u.full_name AS student_name, st.nis AS student_nis
        FROM activity_submissions s
        JOIN students st ON st.id = s.student_id
        JOIN users u ON u.id = st.user_id
        WHERE %s
        ORDER BY s.submitted_on, u.full_name, s.id`, submissionColumns, strings.Join(conditions, " AND "))

	rows := []models.SubmissionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list report submissions: %w", err)
	}
	return rows, nil
}

// DetailsFor loads detail rows keyed by submission id, in field order.
func (r *SubmissionRepository) DetailsFor(ctx context.Context, submissionIDs []string) (map[string][]models.ActivityDetail, error) {
	out := make(map[string][]models.ActivityDetail, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, submission_id, field_name, field_label, field_type, bool_value, text_value, position
        FROM activity_submission_details WHERE submission_id IN (?) ORDER BY submission_id, position`, submissionIDs)
	if err != nil {
		return nil, fmt.Errorf("build detail query: %w", err)
	}
	var details []models.ActivityDetail
	if err := r.db.SelectContext(ctx, &details, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list submission details: %w", err)
	}
	for _, d := range details {
		out[d.SubmissionID] = append(out[d.SubmissionID], d)
	}
	return out, nil
}
