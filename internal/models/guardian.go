package models

import "time"

// Relationship describes how a guardian relates to a student.
type Relationship string

const (
	RelationshipFather   Relationship = "father"
	RelationshipMother   Relationship = "mother"
	RelationshipGuardian Relationship = "guardian"
)

// Guardian is a parent/guardian profile owned by one user.
type Guardian struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Address    *string   `db:"address" json:"address,omitempty"`
	Occupation *string   `db:"occupation" json:"occupation,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentGuardian links a guardian to a student.
type StudentGuardian struct {
	StudentID    string       `db:"student_id" json:"student_id"`
	GuardianID   string       `db:"guardian_id" json:"guardian_id"`
	Relationship Relationship `db:"relationship" json:"relationship"`
	IsPrimary    bool         `db:"is_primary" json:"is_primary"`
}
