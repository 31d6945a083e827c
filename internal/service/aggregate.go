package service

import (
	"math"
	"time"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// ExpectedDays counts the days of an inclusive range; an inverted range has none.
func ExpectedDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// StudentPercentage is submissions over every expected submission of one student.
func StudentPercentage(submissions, expectedDays, activityCount int) float64 {
	return percentage(float64(submissions), float64(expectedDays*activityCount))
}

// ActivityMean is an activity's total divided evenly over the students.
func ActivityMean(total, studentCount int) float64 {
	if studentCount == 0 {
		return 0
	}
	return round2(float64(total) / float64(studentCount))
}

// ClassAveragePercentage is the grand total over every expected submission of the class.
func ClassAveragePercentage(grandTotal, expectedDays, activityCount, studentCount int) float64 {
	return percentage(float64(grandTotal), float64(expectedDays*activityCount*studentCount))
}

// Summarize aggregates a class's submissions. Submissions of students outside
// the roster or of unknown activities are ignored.
func Summarize(students []models.StudentSummary, activities []models.ActivityType, submissions []models.SubmissionRow, start, end time.Time) models.ActivitySummary {
	summary := models.ActivitySummary{
		ExpectedDays: ExpectedDays(start, end),
		StudentCount: len(students),
		Activities:   make([]models.ActivityTotal, len(activities)),
		Students:     make([]models.StudentTotal, len(students)),
		StatusCounts: map[models.SubmissionStatus]int{},
	}

	activityIdx := make(map[string]int, len(activities))
	for i, a := range activities {
		activityIdx[a.ID] = i
		summary.Activities[i] = models.ActivityTotal{ActivityTypeID: a.ID, Title: a.Title}
	}
	studentIdx := make(map[string]int, len(students))
	for i, st := range students {
		studentIdx[st.ID] = i
		summary.Students[i] = models.StudentTotal{StudentID: st.ID, Name: st.FullName, NIS: st.NIS, ByActivity: map[string]int{}}
	}

	for _, sub := range submissions {
		si, okStudent := studentIdx[sub.StudentID]
		ai, okActivity := activityIdx[sub.ActivityTypeID]
		if !okStudent || !okActivity {
			continue
		}
		summary.Students[si].ByActivity[sub.ActivityTypeID]++
		summary.Students[si].Total++
		summary.Activities[ai].Total++
		summary.StatusCounts[sub.Status]++
		summary.GrandTotal++
	}

	for i := range summary.Activities {
		summary.Activities[i].MeanPerStudent = ActivityMean(summary.Activities[i].Total, summary.StudentCount)
	}
	for i := range summary.Students {
		summary.Students[i].Percentage = StudentPercentage(summary.Students[i].Total, summary.ExpectedDays, len(activities))
	}
	summary.ClassAverage = ClassAveragePercentage(summary.GrandTotal, summary.ExpectedDays, len(activities), summary.StudentCount)
	return summary
}

func percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(part / whole * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
