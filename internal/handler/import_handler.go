package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-habit-api/internal/models"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/response"
)

const defaultMaxUploadBytes = 10 << 20

type importService interface {
	ImportFile(ctx context.Context, filename string, r io.Reader, kind models.ImportKind, ic models.ImportContext) (*models.ImportResult, error)
}

type templateRenderer interface {
	Render(kind models.ImportKind) (string, []byte, error)
}

// ImportHandler exposes onboarding import endpoints.
type ImportHandler struct {
	imports   importService
	templates templateRenderer
	maxUpload int64
}

// NewImportHandler builds the import handler; maxUploadBytes <= 0 uses 10 MiB.
func NewImportHandler(imports importService, templates templateRenderer, maxUploadBytes int64) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ImportHandler{imports: imports, templates: templates, maxUpload: maxUploadBytes}
}

func importKind(c *gin.Context) (models.ImportKind, bool) {
	kind := models.ImportKind(c.Param("kind"))
	if !kind.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be students, teachers or guardians"))
		return "", false
	}
	return kind, true
}

// Import godoc
// @Summary Import onboarding rows
// @Description Creates accounts row by row; rejected rows are listed in failures and do not stop the batch.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "students, teachers or guardians"
// @Param file formData file true "xlsx or csv file"
// @Param class_id formData string false "Class ID (required for students)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /imports/{kind} [post]
func (h *ImportHandler) Import(c *gin.Context) {
	kind, ok := importKind(c)
	if !ok {
		return
	}

	if c.Request.ContentLength > h.maxUpload {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, "file exceeds upload limit"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge, "file exceeds upload limit"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	defer file.Close()

	ic := models.ImportContext{ClassID: c.PostForm("class_id")}
	result, err := h.imports.ImportFile(c.Request.Context(), header.Filename, file, kind, ic)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Template godoc
// @Summary Download onboarding template
// @Tags Imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "students, teachers or guardians"
// @Success 200 {file} file
// @Router /imports/{kind}/template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	kind, ok := importKind(c)
	if !ok {
		return
	}
	filename, body, err := h.templates.Render(kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", body)
}
