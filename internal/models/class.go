package models

import (
	"fmt"
	"time"
)

// Class is a (grade, section) group for one academic year.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Grade        int       `db:"grade" json:"grade"`
	Section      string    `db:"section" json:"section"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	TeacherID    *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Label renders the class as "<grade><section>", e.g. "7A".
func (c Class) Label() string {
	return fmt.Sprintf("%d%s", c.Grade, c.Section)
}
