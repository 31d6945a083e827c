package models

import "time"

// Gender codes used on student records.
const (
	GenderMale   = "L"
	GenderFemale = "P"
)

// Student is a learner profile owned by one user.
type Student struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	NIS       string     `db:"nis" json:"nis"`
	NISN      *string    `db:"nisn" json:"nisn,omitempty"`
	Gender    string     `db:"gender" json:"gender"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Address   *string    `db:"address" json:"address,omitempty"`
	ClassID   *string    `db:"class_id" json:"class_id,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentSummary is the reporting projection of an active student.
type StudentSummary struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	NIS      string `db:"nis" json:"nis"`
}
