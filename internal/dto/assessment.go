package dto

import "github.com/noah-isme/sma-results-api/internal/models"

// AssessmentInput is one subject's scores in a bulk save. An absent flag clears the matching score.
type AssessmentInput struct {
	SubjectID       string   `json:"subject_id" validate:"required"`
	QA1             *float64 `json:"qa1" validate:"omitempty,gte=0,lte=100"`
	QA2             *float64 `json:"qa2" validate:"omitempty,gte=0,lte=100"`
	EndOfTerm       *float64 `json:"end_of_term" validate:"omitempty,gte=0,lte=100"`
	QA1Absent       bool     `json:"qa1_absent"`
	QA2Absent       bool     `json:"qa2_absent"`
	EndOfTermAbsent bool     `json:"end_of_term_absent"`
}

// SaveAssessmentsRequest captures PUT /students/:id/assessments.
type SaveAssessmentsRequest struct {
	Assessments []AssessmentInput `json:"assessments" validate:"required,min=1,dive"`
}

// ReportCardRequest captures PUT /students/:id/report-card.
type ReportCardRequest struct {
	DaysPresent    int     `json:"days_present" validate:"gte=0,lte=366"`
	DaysAbsent     int     `json:"days_absent" validate:"gte=0,lte=366"`
	DaysLate       int     `json:"days_late" validate:"gte=0,lte=366"`
	TeacherRemarks *string `json:"teacher_remarks" validate:"omitempty,max=1000"`
}

// StudentAssessments lists a student's scores for every subject of their class.
// Subjects without a saved row carry nil scores.
type StudentAssessments struct {
	Student     models.StudentDetail `json:"student"`
	Assessments []models.Assessment  `json:"assessments"`
	ReportCard  *models.ReportCard   `json:"report_card,omitempty"`
}
