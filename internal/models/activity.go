package models

import "time"

// SubmissionStatus is the approval state of a submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Label returns the Indonesian status label used in reports.
func (s SubmissionStatus) Label() string {
	switch s {
	case SubmissionApproved:
		return "Disetujui"
	case SubmissionRejected:
		return "Ditolak"
	default:
		return "Menunggu"
	}
}

// DetailFieldType is the value kind of a detail field.
type DetailFieldType string

const (
	FieldBoolean DetailFieldType = "boolean"
	FieldChoice  DetailFieldType = "choice"
)

// ActivityType is one entry of the habit catalog.
type ActivityType struct {
	ID        string `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Icon      string `db:"icon" json:"icon"`
	Color     string `db:"color" json:"color"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// ActivitySubmission is one student's record of one activity on one date.
type ActivitySubmission struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	ActivityTypeID  string           `db:"activity_type_id" json:"activity_type_id"`
	SubmittedOn     time.Time        `db:"submitted_on" json:"submitted_on"`
	SubmittedTime   *string          `db:"submitted_time" json:"submitted_time,omitempty"`
	PhotoPath       *string          `db:"photo_path" json:"photo_path,omitempty"`
	Notes           string           `db:"notes" json:"notes"`
	Status          SubmissionStatus `db:"status" json:"status"`
	ApprovedBy      *string          `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`

	Details []ActivityDetail `db:"-" json:"details,omitempty"`
}

// HasPhoto reports whether photo evidence was attached.
func (s ActivitySubmission) HasPhoto() bool {
	return s.PhotoPath != nil && *s.PhotoPath != ""
}

// ActivityDetail is one schema-defined attribute of a submission.
type ActivityDetail struct {
	ID           string          `db:"id" json:"id"`
	SubmissionID string          `db:"submission_id" json:"submission_id"`
	FieldName    string          `db:"field_name" json:"field_name"`
	FieldLabel   string          `db:"field_label" json:"field_label"`
	FieldType    DetailFieldType `db:"field_type" json:"field_type"`
	BoolValue    *bool           `db:"bool_value" json:"bool_value,omitempty"`
	TextValue    *string         `db:"text_value" json:"text_value,omitempty"`
	Position     int             `db:"position" json:"position"`
}

// SubmissionRow is a report-oriented submission joined with its student.
type SubmissionRow struct {
	ActivitySubmission
	StudentName string `db:"student_name" json:"student_name"`
	StudentNIS  string `db:"student_nis" json:"student_nis"`
}

// SubmissionFilter scopes report queries.
type SubmissionFilter struct {
	ClassID        string
	ActivityTypeID string
	Start          time.Time
	End            time.Time
	Statuses       []SubmissionStatus
}
