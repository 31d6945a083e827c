package models

import "time"

// UserRole is the account role of a person.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleParent  UserRole = "parent"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Religions lists the six accepted religion values.
var Religions = []string{"Islam", "Kristen", "Katolik", "Hindu", "Buddha", "Konghucu"}

// User is a person's account stored in the users table.
type User struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Role          UserRole  `db:"role" json:"role"`
	Username      string    `db:"username" json:"username"`
	Email         *string   `db:"email" json:"email,omitempty"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	PlainPassword *string   `db:"plain_password" json:"plain_password,omitempty"`
	Religion      *string   `db:"religion" json:"religion,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
