package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/service"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, req service.SubmitActivityRequest) (*models.ActivitySubmission, error)
	Get(ctx context.Context, id string) (*models.ActivitySubmission, error)
	Approve(ctx context.Context, id string, req service.ApproveRequest) (*models.ActivitySubmission, error)
	Reject(ctx context.Context, id string, req service.RejectRequest) (*models.ActivitySubmission, error)
}

// SubmissionHandler exposes activity submission endpoints.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

// bindOptionalJSON binds a JSON body; an empty body leaves req untouched.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return false
	}
	return true
}

// Submit godoc
// @Summary Record an activity submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.SubmitActivityRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req service.SubmitActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Get godoc
// @Summary Get a submission with its details
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Approve godoc
// @Summary Approve a pending submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.ApproveRequest true "Approver"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/approve [post]
func (h *SubmissionHandler) Approve(c *gin.Context) {
	var req service.ApproveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	sub, err := h.service.Approve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}

// Reject godoc
// @Summary Reject a pending submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.RejectRequest true "Approver and reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{id}/reject [post]
func (h *SubmissionHandler) Reject(c *gin.Context) {
	var req service.RejectRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	sub, err := h.service.Reject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub)
}
