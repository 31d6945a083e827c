package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/service"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, req service.ReportRequest) (*service.ReportFile, error)
	Archive(ctx context.Context, req service.ReportRequest) (*models.ArchivedReport, error)
	Download(token string) (*service.ReportFile, error)
}

// ReportHandler exposes activity report endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Activities godoc
// @Summary Download the activity report of a class
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Produce text/csv
// @Param class_id query string true "Class ID"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param format query string false "xlsx (default), pdf or csv"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/activities [get]
func (h *ReportHandler) Activities(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report query"))
		return
	}
	file, err := h.reports.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Archive godoc
// @Summary Store an activity report behind a signed link
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body service.ReportRequest true "Report scope"
// @Success 201 {object} response.Envelope
// @Router /reports/activities/archive [post]
func (h *ReportHandler) Archive(c *gin.Context) {
	var req service.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	archived, err := h.reports.Archive(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, archived)
}

// Download godoc
// @Summary Download an archived report
// @Tags Reports
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, err := h.reports.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
