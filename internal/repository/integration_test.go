//go:build integration

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/testutil/testdb"
)

func TestOnboardingAndSubmissionsAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer h.Close()

	onboarding := NewOnboardingRepository(h.DB)
	users := NewUserRepository(h.DB)
	students := NewStudentRepository(h.DB)
	types := NewActivityTypeRepository(h.DB)
	submissions := NewSubmissionRepository(h.DB)

	student := &models.Student{NIS: "2024001", Gender: models.GenderMale, Active: true}
	require.NoError(t, onboarding.CreateStudent(ctx,
		&models.User{FullName: "Budi Santoso", Role: models.RoleStudent, Username: "budi.santoso", PasswordHash: "x"}, student))

	taken, err := users.UsernameExists(ctx, "budi.santoso")
	require.NoError(t, err)
	assert.True(t, taken)

	err = onboarding.CreateStudent(ctx,
		&models.User{FullName: "Budi Santoso", Role: models.RoleStudent, Username: "budi.santoso", PasswordHash: "x"},
		&models.Student{NIS: "2024002", Gender: models.GenderMale, Active: true})
	assert.True(t, IsDuplicate(err, ConstraintUsername))

	first := &models.StudentGuardian{StudentID: student.ID, Relationship: models.RelationshipFather, IsPrimary: true}
	require.NoError(t, onboarding.CreateGuardian(ctx,
		&models.User{FullName: "Slamet Riyadi", Role: models.RoleParent, Username: "slamet.riyadi", PasswordHash: "x"},
		&models.Guardian{}, first))
	second := &models.StudentGuardian{StudentID: student.ID, Relationship: models.RelationshipMother, IsPrimary: true}
	err = onboarding.CreateGuardian(ctx,
		&models.User{FullName: "Sri Wahyuni", Role: models.RoleParent, Username: "sri.wahyuni", PasswordHash: "x"},
		&models.Guardian{}, second)
	assert.True(t, IsDuplicate(err, ConstraintPrimary))
	taken, err = users.UsernameExists(ctx, "sri.wahyuni")
	require.NoError(t, err)
	assert.False(t, taken, "failed guardian creation must not leave an account behind")

	hasPrimary, err := students.HasPrimaryGuardian(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, hasPrimary)

	catalog, err := types.List(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 7)

	sub := &models.ActivitySubmission{StudentID: student.ID, ActivityTypeID: catalog[0].ID, SubmittedOn: time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, submissions.Create(ctx, sub))

	at := time.Now().UTC()
	reason := "foto tidak jelas"
	require.NoError(t, submissions.Transition(ctx, TransitionParams{ID: sub.ID, To: models.SubmissionRejected, RejectionReason: &reason}))
	err = submissions.Transition(ctx, TransitionParams{ID: sub.ID, To: models.SubmissionApproved, ApprovedAt: &at})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	stored, err := submissions.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, stored.Status)
	assert.Nil(t, stored.ApprovedAt)
}
