package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/models"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/export"
	"github.com/noah-isme/sma-habit-api/pkg/storage"
)

type reportBuilder interface {
	Resolve(ctx context.Context, req ReportRequest) (models.ReportScope, error)
	Build(ctx context.Context, scope models.ReportScope) (*export.Workbook, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(file string) (string, time.Time, error)
	Parse(token string) (string, time.Time, error)
}

// ReportFile is a rendered report ready for download.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var contentTypes = map[models.ReportFormat]string{
	models.ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	models.ReportFormatPDF:  "application/pdf",
	models.ReportFormatCSV:  "text/csv; charset=utf-8",
}

// ReportExportConfig tunes report downloads.
type ReportExportConfig struct {
	APIPrefix  string
	ArchiveTTL time.Duration
}

// ReportExportService renders activity reports and manages archived copies.
type ReportExportService struct {
	builder reportBuilder
	xlsx    *export.XLSXExporter
	pdf     *export.PDFExporter
	csv     *export.CSVExporter
	storage fileStorage
	signer  downloadSigner
	metrics *MetricsService
	cfg     ReportExportConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportExportService constructs a ReportExportService.
func NewReportExportService(builder reportBuilder, storage fileStorage, signer downloadSigner, metrics *MetricsService, cfg ReportExportConfig, logger *zap.Logger) *ReportExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ArchiveTTL <= 0 {
		cfg.ArchiveTTL = 24 * time.Hour
	}
	return &ReportExportService{
		builder: builder,
		xlsx:    export.NewXLSXExporter(),
		pdf:     export.NewPDFExporter(),
		csv:     export.NewCSVExporter(),
		storage: storage,
		signer:  signer,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// ReportFilename follows Laporan_Kebiasaan_<class>_<date>.<ext>.
func ReportFilename(classLabel string, generated time.Time, format models.ReportFormat) string {
	label := sanitizeFilename(classLabel)
	return fmt.Sprintf("Laporan_Kebiasaan_%s_%s.%s", label, generated.Format(isoDate), format)
}

// Generate builds and renders the report for req.
func (s *ReportExportService) Generate(ctx context.Context, req ReportRequest) (*ReportFile, error) {
	format := models.ReportFormat(strings.ToLower(req.Format))
	if format == "" {
		format = models.ReportFormatXLSX
	}
	if _, ok := contentTypes[format]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", req.Format))
	}

	started := s.now()
	file, err := s.generate(ctx, req, format)
	s.metrics.ObserveReport(string(format), err, s.now().Sub(started))
	return file, err
}

func (s *ReportExportService) generate(ctx context.Context, req ReportRequest, format models.ReportFormat) (*ReportFile, error) {
	scope, err := s.builder.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	wb, err := s.builder.Build(ctx, scope)
	if err != nil {
		return nil, err
	}

	body, err := s.render(wb, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.logger.Info("activity report generated",
		zap.String("class", scope.ClassName),
		zap.String("format", string(format)),
		zap.Int("bytes", len(body)),
	)
	return &ReportFile{
		Filename:    ReportFilename(scope.ClassName, s.now(), format),
		ContentType: contentTypes[format],
		Body:        body,
	}, nil
}

// render writes the full workbook as xlsx; pdf carries the summary and
// cross-tab sheets and csv the cross-tab alone.
func (s *ReportExportService) render(wb *export.Workbook, format models.ReportFormat) ([]byte, error) {
	switch format {
	case models.ReportFormatPDF:
		var sheets []export.Sheet
		for _, title := range []string{SheetSummary, SheetCrossTab} {
			if sh, ok := wb.Sheet(title); ok {
				sheets = append(sheets, sh)
			}
		}
		return s.pdf.Render(sheets...)
	case models.ReportFormatCSV:
		sh, ok := wb.Sheet(SheetCrossTab)
		if !ok {
			return nil, fmt.Errorf("report has no %s sheet", SheetCrossTab)
		}
		return s.csv.Render(sh)
	default:
		return s.xlsx.Render(*wb)
	}
}

// Archive stores a generated report and returns a signed download link.
func (s *ReportExportService) Archive(ctx context.Context, req ReportRequest) (*models.ArchivedReport, error) {
	file, err := s.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	name := path.Join(s.now().UTC().Format("20060102"), uuid.NewString()[:8]+"_"+file.Filename)
	stored, err := s.storage.Save(name, file.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &models.ArchivedReport{
		Filename:  file.Filename,
		URL:       fmt.Sprintf("%s/reports/download/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the archived file.
func (s *ReportExportService) Download(token string) (*ReportFile, error) {
	stored, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSignature.Code, appErrors.ErrInvalidSignature.Status, appErrors.ErrInvalidSignature.Message)
	}
	body, err := s.storage.Read(stored)
	if err != nil {
		if errors.Is(err, storage.ErrOutsideBase) {
			return nil, appErrors.ErrInvalidSignature
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report archive no longer available")
	}

	filename := path.Base(stored)
	if i := strings.Index(filename, "_"); i >= 0 {
		filename = filename[i+1:]
	}
	format := models.ReportFormat(strings.TrimPrefix(path.Ext(filename), "."))
	contentType, ok := contentTypes[format]
	if !ok {
		contentType = "application/octet-stream"
	}
	return &ReportFile{Filename: filename, ContentType: contentType, Body: body}, nil
}

// Cleanup removes archives older than the link lifetime.
func (s *ReportExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ArchiveTTL)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
