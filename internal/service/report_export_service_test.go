package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/sma-habit-api/internal/models"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/storage"
)

func newExportFixture(t *testing.T) *ReportExportService {
	t.Helper()
	builder, _ := newReportFixture(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewReportExportService(builder, store, signer, NewMetricsService(), ReportExportConfig{APIPrefix: "/api/v1/"}, nil)
	svc.now = func() time.Time { return time.Date(2024, 8, 7, 9, 0, 0, 0, time.UTC) }
	return svc
}

var exportRequest = ReportRequest{ClassID: "class-1", StartDate: "2024-08-05", EndDate: "2024-08-06"}

func TestReportFilename(t *testing.T) {
	at := time.Date(2024, 8, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Laporan_Kebiasaan_7A_2024-08-07.xlsx", ReportFilename("7A", at, models.ReportFormatXLSX))
	assert.Equal(t, "Laporan_Kebiasaan_X_IPA-1_2024-08-07.pdf", ReportFilename("X IPA/1", at, models.ReportFormatPDF))
	assert.Equal(t, "Laporan_Kebiasaan_na_2024-08-07.csv", ReportFilename("", at, models.ReportFormatCSV))
}

func TestGenerateXLSXCarriesEverySheet(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Generate(context.Background(), exportRequest)
	require.NoError(t, err)
	assert.Equal(t, "Laporan_Kebiasaan_7A_2024-08-07.xlsx", file.Filename)
	assert.Equal(t, contentTypes[models.ReportFormatXLSX], file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Body))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{SheetSummary, "Bangun Pagi", "Berolahraga", SheetCrossTab, SheetStatistics}, wb.GetSheetList())
}

func TestGenerateCSVUsesCrossTab(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Generate(context.Background(), ReportRequest{ClassID: "class-1", StartDate: "2024-08-05", EndDate: "2024-08-06", Format: "CSV"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := strings.TrimPrefix(string(file.Body), "\ufeff")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "No,Nama,NIS,Bangun Pagi,Berolahraga,Total,Persentase", lines[0])
	assert.Equal(t, ",TOTAL,,3,1,4,50.00%", lines[3])
}

func TestGeneratePDF(t *testing.T) {
	svc := newExportFixture(t)

	file, err := svc.Generate(context.Background(), ReportRequest{ClassID: "class-1", StartDate: "2024-08-05", EndDate: "2024-08-06", Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(t)
	_, err := svc.Generate(context.Background(), ReportRequest{ClassID: "class-1", StartDate: "2024-08-05", EndDate: "2024-08-06", Format: "docx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestArchiveAndDownload(t *testing.T) {
	svc := newExportFixture(t)

	archived, err := svc.Archive(context.Background(), exportRequest)
	require.NoError(t, err)
	assert.Equal(t, "Laporan_Kebiasaan_7A_2024-08-07.xlsx", archived.Filename)
	require.True(t, strings.HasPrefix(archived.URL, "/api/v1/reports/download/"))
	assert.True(t, archived.ExpiresAt.After(time.Now()))

	token := strings.TrimPrefix(archived.URL, "/api/v1/reports/download/")
	file, err := svc.Download(token)
	require.NoError(t, err)
	assert.Equal(t, archived.Filename, file.Filename)
	assert.Equal(t, contentTypes[models.ReportFormatXLSX], file.ContentType)
	assert.NotEmpty(t, file.Body)

	_, err = svc.Download(token + "tampered")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSignature)
}
