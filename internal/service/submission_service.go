package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/repository"
	"github.com/noah-isme/sma-habit-api/internal/schema"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/validation"
)

type submissionRepository interface {
	Create(ctx context.Context, sub *models.ActivitySubmission) error
	GetByID(ctx context.Context, id string) (*models.ActivitySubmission, error)
	Transition(ctx context.Context, params repository.TransitionParams) error
}

type activityTypeReader interface {
	List(ctx context.Context) ([]models.ActivityType, error)
	FindByID(ctx context.Context, id string) (*models.ActivityType, error)
}

// SubmitActivityRequest records one activity for one student and day.
type SubmitActivityRequest struct {
	StudentID      string         `json:"student_id" validate:"required"`
	ActivityTypeID string         `json:"activity_type_id" validate:"required"`
	Date           string         `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string         `json:"time" validate:"omitempty,datetime=15:04"`
	PhotoPath      string         `json:"photo_path"`
	Notes          string         `json:"notes"`
	Details        map[string]any `json:"details"`
}

// ApproveRequest carries the approving actor.
type ApproveRequest struct {
	ApproverID string `json:"approver_id" validate:"required,uuid"`
}

// RejectRequest carries the rejecting actor and the mandatory reason. The
// actor is logged; only approvals store approved_by.
type RejectRequest struct {
	ApproverID string `json:"approver_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"required"`
}

// SubmissionService records submissions and drives their approval.
type SubmissionService struct {
	repo      submissionRepository
	types     activityTypeReader
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(repo submissionRepository, types activityTypeReader, v *validation.Validator, metrics *MetricsService, logger *zap.Logger) *SubmissionService {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, types: types, validator: v, metrics: metrics, logger: logger, now: time.Now}
}

// Submit stores a pending submission whose details are built from the
// activity's registered schema.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitActivityRequest) (*models.ActivitySubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WithDetails(
			appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload"),
			s.validator.FieldErrors(err),
		)
	}

	activity, err := s.types.FindByID(ctx, req.ActivityTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity type")
	}

	sch := schema.For(activity.Title)
	details, err := sch.Build(req.Details)
	if err != nil {
		return nil, appErrors.WithDetails(
			appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "details do not match activity"),
			err.Error(),
		)
	}

	day, _ := time.Parse(isoDate, req.Date)
	sub := &models.ActivitySubmission{
		StudentID:      req.StudentID,
		ActivityTypeID: activity.ID,
		SubmittedOn:    day,
		PhotoPath:      optional(req.PhotoPath),
		Notes:          strings.TrimSpace(req.Notes),
		Details:        details,
	}
	if sch.TracksTime {
		sub.SubmittedTime = optional(req.Time)
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintDailyRecord) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "activity already recorded for this day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}
	return sub, nil
}

// Get returns a submission with its details.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.ActivitySubmission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// Approve moves a pending submission to approved.
func (s *SubmissionService) Approve(ctx context.Context, id string, req ApproveRequest) (*models.ActivitySubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "approver_id must be a user id")
	}
	at := s.now().UTC()
	return s.transition(ctx, req.ApproverID, repository.TransitionParams{
		ID:         id,
		To:         models.SubmissionApproved,
		ApprovedBy: &req.ApproverID,
		ApprovedAt: &at,
	})
}

// Reject moves a pending submission to rejected with a reason.
func (s *SubmissionService) Reject(ctx context.Context, id string, req RejectRequest) (*models.ActivitySubmission, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "approver_id must be a user id and reason is required")
	}
	return s.transition(ctx, req.ApproverID, repository.TransitionParams{
		ID:              id,
		To:              models.SubmissionRejected,
		RejectionReason: &req.Reason,
	})
}

func (s *SubmissionService) transition(ctx context.Context, actor string, params repository.TransitionParams) (*models.ActivitySubmission, error) {
	err := s.repo.Transition(ctx, params)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.metrics.ObserveTransition(string(params.To), err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}

	sub, getErr := s.Get(ctx, params.ID)
	if getErr != nil {
		s.metrics.ObserveTransition(string(params.To), getErr)
		return nil, getErr
	}
	if err != nil {
		s.metrics.ObserveTransition(string(params.To), err)
		s.logger.Info("submission transition refused",
			zap.String("id", params.ID),
			zap.String("actor", actor),
			zap.String("status", string(sub.Status)),
			zap.String("to", string(params.To)),
		)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "submission is already "+string(sub.Status))
	}
	s.metrics.ObserveTransition(string(params.To), nil)
	s.logger.Info("submission reviewed",
		zap.String("id", params.ID),
		zap.String("actor", actor),
		zap.String("status", string(sub.Status)),
	)
	return sub, nil
}
