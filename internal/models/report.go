package models

import "time"

// ReportScope selects one class over an inclusive date range.
type ReportScope struct {
	ClassID   string
	ClassName string
	Start     time.Time
	End       time.Time
}

// ReportFormat is the rendering of an activity report.
type ReportFormat string

const (
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatCSV  ReportFormat = "csv"
)

// ActivityTotal is a per-activity figure of the summary sheet.
type ActivityTotal struct {
	ActivityTypeID string  `json:"activity_type_id"`
	Title          string  `json:"title"`
	Total          int     `json:"total"`
	MeanPerStudent float64 `json:"mean_per_student"`
}

// StudentTotal is a per-student row of the summary and cross-tab sheets.
type StudentTotal struct {
	StudentID  string         `json:"student_id"`
	Name       string         `json:"name"`
	NIS        string         `json:"nis"`
	ByActivity map[string]int `json:"by_activity"`
	Total      int            `json:"total"`
	Percentage float64        `json:"percentage"`
}

// ActivitySummary collects every aggregate the report sheets need.
type ActivitySummary struct {
	ExpectedDays int                      `json:"expected_days"`
	StudentCount int                      `json:"student_count"`
	Activities   []ActivityTotal          `json:"activities"`
	Students     []StudentTotal           `json:"students"`
	GrandTotal   int                      `json:"grand_total"`
	ClassAverage float64                  `json:"class_average"`
	StatusCounts map[SubmissionStatus]int `json:"status_counts"`
}

// ArchivedReport is a stored report reachable through a signed link.
type ArchivedReport struct {
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
