package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/repository"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
)

type mockSubmissionRepo struct {
	items     map[string]*models.ActivitySubmission
	daily     map[string]bool
	createErr error
	seq       int
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{items: map[string]*models.ActivitySubmission{}, daily: map[string]bool{}}
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *models.ActivitySubmission) error {
	if m.createErr != nil {
		return m.createErr
	}
	key := fmt.Sprintf("%s|%s|%s", sub.StudentID, sub.ActivityTypeID, sub.SubmittedOn.Format(isoDate))
	if m.daily[key] {
		return &repository.DuplicateError{Constraint: repository.ConstraintDailyRecord, Err: errors.New("duplicate key")}
	}
	m.daily[key] = true
	m.seq++
	sub.ID = fmt.Sprintf("sub-%d", m.seq)
	sub.Status = models.SubmissionPending
	clone := *sub
	m.items[sub.ID] = &clone
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id string) (*models.ActivitySubmission, error) {
	sub, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *sub
	return &clone, nil
}

func (m *mockSubmissionRepo) Transition(ctx context.Context, params repository.TransitionParams) error {
	sub, ok := m.items[params.ID]
	if !ok || sub.Status != models.SubmissionPending {
		return sql.ErrNoRows
	}
	sub.Status = params.To
	sub.ApprovedBy = params.ApprovedBy
	sub.ApprovedAt = params.ApprovedAt
	sub.RejectionReason = params.RejectionReason
	return nil
}

type mockActivityTypes struct {
	items map[string]models.ActivityType
}

func (m *mockActivityTypes) List(ctx context.Context) ([]models.ActivityType, error) {
	out := make([]models.ActivityType, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, nil
}

func (m *mockActivityTypes) FindByID(ctx context.Context, id string) (*models.ActivityType, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

const (
	teacherOne = "5f0c2a4e-8d7b-4c1a-9e3f-2b6d8a1c4e70"
	teacherTwo = "a3b9e6d1-2c4f-4e8a-b7d5-9f1e3c6a8b02"
)

func newSubmissionFixture() (*SubmissionService, *mockSubmissionRepo) {
	repo := newMockSubmissionRepo()
	types := &mockActivityTypes{items: map[string]models.ActivityType{
		"act-wake":  {ID: "act-wake", Title: "Bangun Pagi", SortOrder: 1},
		"act-sport": {ID: "act-sport", Title: "Berolahraga", SortOrder: 3},
	}}
	svc := NewSubmissionService(repo, types, nil, NewMetricsService(), nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 7, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestSubmitBuildsSchemaDetails(t *testing.T) {
	svc, repo := newSubmissionFixture()

	sub, err := svc.Submit(context.Background(), SubmitActivityRequest{
		StudentID:      "stu-1",
		ActivityTypeID: "act-wake",
		Date:           "2024-08-05",
		Time:           "05:15",
		Details:        map[string]any{"berdoa_bangun": true, "mandi_pagi": "tidak"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, sub.Status)
	require.NotNil(t, sub.SubmittedTime)
	assert.Equal(t, "05:15", *sub.SubmittedTime)
	require.Len(t, sub.Details, 3)
	assert.Equal(t, "merapikan_tempat_tidur", sub.Details[1].FieldName)
	assert.Nil(t, sub.Details[1].BoolValue)
	assert.False(t, *sub.Details[2].BoolValue)
	assert.Contains(t, repo.items, sub.ID)
}

func TestSubmitDropsTimeForUntimedActivity(t *testing.T) {
	svc, _ := newSubmissionFixture()

	sub, err := svc.Submit(context.Background(), SubmitActivityRequest{
		StudentID:      "stu-1",
		ActivityTypeID: "act-sport",
		Date:           "2024-08-05",
		Time:           "16:00",
		Details:        map[string]any{"jenis_olahraga": "Lari"},
	})
	require.NoError(t, err)
	assert.Nil(t, sub.SubmittedTime)
	assert.Equal(t, "Lari", *sub.Details[0].TextValue)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	svc, _ := newSubmissionFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-wake", Date: "05/08/2024"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))

	_, err = svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05",
		Details: map[string]any{"jenis_olahraga": "Catur"}})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))

	_, err = svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05",
		Details: map[string]any{"berdoa_bangun": true}})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))

	_, err = svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-unknown", Date: "2024-08-05"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubmitSameDayConflicts(t *testing.T) {
	svc, _ := newSubmissionFixture()
	req := SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05"}

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestApproveOnlyOnce(t *testing.T) {
	svc, _ := newSubmissionFixture()
	ctx := context.Background()
	sub, err := svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05"})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, sub.ID, ApproveRequest{ApproverID: teacherOne})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, teacherOne, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, time.Date(2024, 8, 7, 10, 0, 0, 0, time.UTC), *approved.ApprovedAt)

	_, err = svc.Approve(ctx, sub.ID, ApproveRequest{ApproverID: teacherTwo})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "approved")

	_, err = svc.Reject(ctx, sub.ID, RejectRequest{ApproverID: teacherTwo, Reason: "foto buram"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, repo := newSubmissionFixture()
	ctx := context.Background()
	sub, err := svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05"})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, sub.ID, RejectRequest{ApproverID: teacherOne, Reason: "   "})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))
	assert.Equal(t, models.SubmissionPending, repo.items[sub.ID].Status)

	rejected, err := svc.Reject(ctx, sub.ID, RejectRequest{ApproverID: teacherOne, Reason: " foto buram "})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, rejected.Status)
	assert.Equal(t, "foto buram", *rejected.RejectionReason)
	assert.Nil(t, rejected.ApprovedAt)

	_, err = svc.Approve(ctx, sub.ID, ApproveRequest{ApproverID: teacherOne})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestTransitionUnknownSubmission(t *testing.T) {
	svc, _ := newSubmissionFixture()
	_, err := svc.Approve(context.Background(), "missing", ApproveRequest{ApproverID: teacherOne})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReviewRequiresUserID(t *testing.T) {
	svc, repo := newSubmissionFixture()
	ctx := context.Background()
	sub, err := svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05"})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, sub.ID, ApproveRequest{ApproverID: "wali-kelas"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))
	_, err = svc.Reject(ctx, sub.ID, RejectRequest{ApproverID: "wali-kelas", Reason: "foto buram"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))
	assert.Equal(t, models.SubmissionPending, repo.items[sub.ID].Status)
}

func TestRejectLogsActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := newMockSubmissionRepo()
	types := &mockActivityTypes{items: map[string]models.ActivityType{"act-sport": {ID: "act-sport", Title: "Berolahraga"}}}
	svc := NewSubmissionService(repo, types, nil, nil, zap.New(core))
	ctx := context.Background()
	sub, err := svc.Submit(ctx, SubmitActivityRequest{StudentID: "stu-1", ActivityTypeID: "act-sport", Date: "2024-08-05"})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, sub.ID, RejectRequest{ApproverID: teacherTwo, Reason: "foto buram"})
	require.NoError(t, err)

	reviewed := logs.FilterMessage("submission reviewed").All()
	require.Len(t, reviewed, 1)
	fields := reviewed[0].ContextMap()
	assert.Equal(t, teacherTwo, fields["actor"])
	assert.Equal(t, string(models.SubmissionRejected), fields["status"])
	assert.Nil(t, repo.items[sub.ID].ApprovedBy)
}
