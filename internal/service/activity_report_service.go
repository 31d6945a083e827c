package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/schema"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/export"
	"github.com/noah-isme/sma-habit-api/pkg/observability"
)

// Sheet titles of the activity report.
const (
	SheetSummary    = "Ringkasan"
	SheetCrossTab   = "Rekap"
	SheetStatistics = "Statistik"

	reportDateLayout = "02/01/2006"
)

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type rosterReader interface {
	ListActiveByClass(ctx context.Context, classID string) ([]models.StudentSummary, error)
}

type reportSubmissionReader interface {
	ListForReport(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionRow, error)
	DetailsFor(ctx context.Context, submissionIDs []string) (map[string][]models.ActivityDetail, error)
}

type activityLister interface {
	List(ctx context.Context) ([]models.ActivityType, error)
}

// ReportRequest is the caller-facing report scope.
type ReportRequest struct {
	ClassID   string `form:"class_id" json:"class_id"`
	StartDate string `form:"start_date" json:"start_date"`
	EndDate   string `form:"end_date" json:"end_date"`
	Format    string `form:"format" json:"format"`
}

// ActivityReportService composes the multi-sheet activity report.
type ActivityReportService struct {
	classes     classReader
	students    rosterReader
	submissions reportSubmissionReader
	activities  activityLister
	schoolName  string
	logger      *zap.Logger
}

// NewActivityReportService constructs the report builder.
func NewActivityReportService(classes classReader, students rosterReader, submissions reportSubmissionReader, activities activityLister, schoolName string, logger *zap.Logger) *ActivityReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityReportService{
		classes:     classes,
		students:    students,
		submissions: submissions,
		activities:  activities,
		schoolName:  schoolName,
		logger:      logger,
	}
}

// Resolve validates a request and loads its class label.
func (s *ActivityReportService) Resolve(ctx context.Context, req ReportRequest) (models.ReportScope, error) {
	start, errStart := time.Parse(isoDate, req.StartDate)
	end, errEnd := time.Parse(isoDate, req.EndDate)
	if req.ClassID == "" || errStart != nil || errEnd != nil {
		return models.ReportScope{}, appErrors.Clone(appErrors.ErrValidation, "class_id, start_date and end_date (YYYY-MM-DD) are required")
	}
	if end.Before(start) {
		return models.ReportScope{}, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ReportScope{}, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return models.ReportScope{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return models.ReportScope{ClassID: class.ID, ClassName: class.Label(), Start: start, End: end}, nil
}

// Build loads the scope's data and lays out every report sheet.
func (s *ActivityReportService) Build(ctx context.Context, scope models.ReportScope) (*export.Workbook, error) {
	activities, err := s.activities.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity types")
	}
	students, err := s.students.ListActiveByClass(ctx, scope.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	rows, err := s.submissions.ListForReport(ctx, models.SubmissionFilter{ClassID: scope.ClassID, Start: scope.Start, End: scope.End})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}

	rows = onRoster(rows, students)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	details, err := s.submissions.DetailsFor(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission details")
	}

	summary := Summarize(students, activities, rows, scope.Start, scope.End)

	wb := &export.Workbook{}
	wb.Sheets = append(wb.Sheets, s.summarySheet(scope, summary))
	for _, activity := range activities {
		sheet, err := s.activitySheet(scope, activity, rows, details)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	wb.Sheets = append(wb.Sheets, s.crossTabSheet(scope, activities, summary), s.statisticsSheet(scope, summary))
	return wb, nil
}

func (s *ActivityReportService) header(title string, scope models.ReportScope) []string {
	lines := []string{strings.ToUpper(title)}
	if s.schoolName != "" {
		lines = append(lines, s.schoolName)
	}
	return append(lines,
		"Kelas: "+scope.ClassName,
		fmt.Sprintf("Periode: %s - %s", scope.Start.Format(reportDateLayout), scope.End.Format(reportDateLayout)),
	)
}

func (s *ActivityReportService) summarySheet(scope models.ReportScope, summary models.ActivitySummary) export.Sheet {
	perActivity := export.Table{Headers: []string{"Kegiatan", "Total", "Rata-rata per Siswa"}}
	for _, a := range summary.Activities {
		perActivity.Rows = append(perActivity.Rows, []string{a.Title, strconv.Itoa(a.Total), formatDecimal(a.MeanPerStudent)})
	}

	rows := make([][]string, len(summary.Students))
	for i, st := range summary.Students {
		rows[i] = []string{strconv.Itoa(i + 1), st.Name, st.NIS, strconv.Itoa(st.Total), formatPercent(st.Percentage)}
	}
	return export.Sheet{
		Title:    SheetSummary,
		Preamble: s.header("Laporan Kebiasaan Siswa", scope),
		Blocks:   []export.Table{perActivity},
		Table: export.Table{
			Headers: []string{"No", "Nama", "NIS", "Total Kegiatan", "Persentase"},
			Rows:    rows,
		},
	}
}

// activitySheet lists one activity's submissions; its detail columns come
// from the same schema lookup used when the details were stored.
func (s *ActivityReportService) activitySheet(scope models.ReportScope, activity models.ActivityType, rows []models.SubmissionRow, details map[string][]models.ActivityDetail) (export.Sheet, error) {
	sch := schema.For(activity.Title)

	headers := []string{"No", "Nama", "NIS", "Tanggal", "Status"}
	if sch.TracksTime {
		headers = append(headers, "Jam Bangun")
	}
	headers = append(headers, sch.Labels()...)
	headers = append(headers, "Foto")

	var body [][]string
	for _, r := range rows {
		if r.ActivityTypeID != activity.ID {
			continue
		}
		d := details[r.ID]
		if err := sch.Validate(d); err != nil {
			observability.CaptureWithTags(err, map[string]string{"activity": string(sch.Key), "submission_id": r.ID})
			s.logger.Error("submission details disagree with schema", zap.String("submission_id", r.ID), zap.Error(err))
			return export.Sheet{}, appErrors.Wrap(err, appErrors.ErrSchemaMismatch.Code, appErrors.ErrSchemaMismatch.Status, err.Error())
		}

		line := []string{strconv.Itoa(len(body) + 1), r.StudentName, r.StudentNIS, r.SubmittedOn.Format(reportDateLayout), r.Status.Label()}
		if sch.TracksTime {
			line = append(line, clockText(r.SubmittedTime))
		}
		line = append(line, sch.Row(d)...)
		photo := "Tidak"
		if r.HasPhoto() {
			photo = "Ada"
		}
		body = append(body, append(line, photo))
	}

	return export.Sheet{
		Title:    activity.Title,
		Preamble: s.header(activity.Title, scope),
		Table:    export.Table{Headers: headers, Rows: body},
	}, nil
}

func (s *ActivityReportService) crossTabSheet(scope models.ReportScope, activities []models.ActivityType, summary models.ActivitySummary) export.Sheet {
	headers := []string{"No", "Nama", "NIS"}
	for _, a := range activities {
		headers = append(headers, a.Title)
	}
	headers = append(headers, "Total", "Persentase")

	rows := make([][]string, len(summary.Students))
	for i, st := range summary.Students {
		row := []string{strconv.Itoa(i + 1), st.Name, st.NIS}
		for _, a := range activities {
			row = append(row, strconv.Itoa(st.ByActivity[a.ID]))
		}
		rows[i] = append(row, strconv.Itoa(st.Total), formatPercent(st.Percentage))
	}

	total := []string{"", "TOTAL", ""}
	for _, a := range summary.Activities {
		total = append(total, strconv.Itoa(a.Total))
	}
	total = append(total, strconv.Itoa(summary.GrandTotal), formatPercent(summary.ClassAverage))

	return export.Sheet{
		Title:    SheetCrossTab,
		Preamble: s.header("Rekap Kebiasaan Siswa", scope),
		Table:    export.Table{Headers: headers, Rows: rows},
		Footer:   [][]string{total},
	}
}

func (s *ActivityReportService) statisticsSheet(scope models.ReportScope, summary models.ActivitySummary) export.Sheet {
	rows := [][]string{
		{"Jumlah hari", strconv.Itoa(summary.ExpectedDays)},
		{"Jumlah siswa", strconv.Itoa(summary.StudentCount)},
		{"Jenis kegiatan", strconv.Itoa(len(summary.Activities))},
		{"Total kegiatan tercatat", strconv.Itoa(summary.GrandTotal)},
		{"Rata-rata kelas", formatPercent(summary.ClassAverage)},
	}

	if most, least, ok := activityExtremes(summary.Activities); ok {
		rows = append(rows,
			[]string{"Kegiatan paling aktif", fmt.Sprintf("%s (%d)", most.Title, most.Total)},
			[]string{"Kegiatan paling jarang", fmt.Sprintf("%s (%d)", least.Title, least.Total)},
		)
	}
	if top, ok := topStudent(summary.Students); ok {
		rows = append(rows, []string{"Siswa paling aktif", fmt.Sprintf("%s (%s)", top.Name, formatPercent(top.Percentage))})
	}
	for _, status := range []models.SubmissionStatus{models.SubmissionApproved, models.SubmissionPending, models.SubmissionRejected} {
		rows = append(rows, []string{"Status " + status.Label(), strconv.Itoa(summary.StatusCounts[status])})
	}

	return export.Sheet{
		Title:    SheetStatistics,
		Preamble: s.header("Statistik Kebiasaan Siswa", scope),
		Table:    export.Table{Headers: []string{"Indikator", "Nilai"}, Rows: rows},
	}
}

// activityExtremes picks the most and least recorded activities; ties keep
// catalog order.
func activityExtremes(totals []models.ActivityTotal) (models.ActivityTotal, models.ActivityTotal, bool) {
	if len(totals) == 0 {
		return models.ActivityTotal{}, models.ActivityTotal{}, false
	}
	most, least := totals[0], totals[0]
	for _, t := range totals[1:] {
		if t.Total > most.Total {
			most = t
		}
		if t.Total < least.Total {
			least = t
		}
	}
	return most, least, true
}

func topStudent(students []models.StudentTotal) (models.StudentTotal, bool) {
	if len(students) == 0 {
		return models.StudentTotal{}, false
	}
	top := students[0]
	for _, st := range students[1:] {
		if st.Total > top.Total {
			top = st
		}
	}
	return top, top.Total > 0
}

func clockText(t *string) string {
	if t == nil || *t == "" {
		return "-"
	}
	if len(*t) > 5 {
		return (*t)[:5]
	}
	return *t
}

// onRoster keeps the submissions of listed students so every sheet counts the
// same rows.
func onRoster(rows []models.SubmissionRow, students []models.StudentSummary) []models.SubmissionRow {
	members := make(map[string]struct{}, len(students))
	for _, st := range students {
		members[st.ID] = struct{}{}
	}
	kept := rows[:0:0]
	for _, r := range rows {
		if _, ok := members[r.StudentID]; ok {
			kept = append(kept, r)
		}
	}
	return kept
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatPercent(v float64) string {
	return formatDecimal(v) + "%"
}
