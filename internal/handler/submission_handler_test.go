package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/service"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
)

type submissionServiceMock struct {
	submitted service.SubmitActivityRequest
	approve   service.ApproveRequest
	reject    service.RejectRequest
	status    models.SubmissionStatus
}

func (m *submissionServiceMock) Submit(ctx context.Context, req service.SubmitActivityRequest) (*models.ActivitySubmission, error) {
	m.submitted = req
	return &models.ActivitySubmission{ID: "sub-1", StudentID: req.StudentID, Status: models.SubmissionPending}, nil
}

func (m *submissionServiceMock) Get(ctx context.Context, id string) (*models.ActivitySubmission, error) {
	if id != "sub-1" {
		return nil, appErrors.ErrNotFound
	}
	return &models.ActivitySubmission{ID: id, Status: m.status}, nil
}

func (m *submissionServiceMock) Approve(ctx context.Context, id string, req service.ApproveRequest) (*models.ActivitySubmission, error) {
	m.approve = req
	if m.status != models.SubmissionPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission is already "+string(m.status))
	}
	m.status = models.SubmissionApproved
	return &models.ActivitySubmission{ID: id, Status: m.status}, nil
}

func (m *submissionServiceMock) Reject(ctx context.Context, id string, req service.RejectRequest) (*models.ActivitySubmission, error) {
	m.reject = req
	if req.Reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "approver_id and reason are required")
	}
	m.status = models.SubmissionRejected
	return &models.ActivitySubmission{ID: id, Status: m.status}, nil
}

func TestSubmissionHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &submissionServiceMock{}
	handler := NewSubmissionHandler(mockSvc)

	payload, _ := json.Marshal(map[string]any{
		"student_id": "stu-1", "activity_type_id": "act-wake", "date": "2024-08-05", "time": "05:10",
		"details": map[string]any{"mandi_pagi": true},
	})
	c, w := newGinContext(http.MethodPost, "/submissions", payload)
	handler.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "05:10", mockSvc.submitted.Time)
	assert.Equal(t, true, mockSvc.submitted.Details["mandi_pagi"])
}

func TestSubmissionHandlerSubmitMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{})

	c, w := newGinContext(http.MethodPost, "/submissions", []byte("{"))
	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerApproveTwice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &submissionServiceMock{status: models.SubmissionPending}
	handler := NewSubmissionHandler(mockSvc)
	payload, _ := json.Marshal(service.ApproveRequest{ApproverID: "teacher-1"})

	c, w := newGinContext(http.MethodPost, "/submissions/sub-1/approve", payload)
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", mockSvc.approve.ApproverID)

	c, w = newGinContext(http.MethodPost, "/submissions/sub-1/approve", payload)
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	handler.Approve(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrInvalidTransition.Code)
}

func TestSubmissionHandlerRejectEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{status: models.SubmissionPending})

	c, w := newGinContext(http.MethodPost, "/submissions/sub-1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	handler.Reject(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmissionHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(&submissionServiceMock{})

	c, w := newGinContext(http.MethodGet, "/submissions/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
