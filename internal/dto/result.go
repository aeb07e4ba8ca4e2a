package dto

import (
	"time"

	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/models"
)

// ReportStudent is the public identity block of a report.
type ReportStudent struct {
	ExamNumber   string  `json:"exam_number"`
	Name         string  `json:"name"`
	PhotoURL     *string `json:"photo_url,omitempty"`
	ClassName    string  `json:"class_name"`
	ClassCode    string  `json:"class_code,omitempty"`
	Term         string  `json:"term"`
	AcademicYear string  `json:"academic_year"`
}

// ReportConfiguration describes the policy the report was computed under.
type ReportConfiguration struct {
	Name            string                    `json:"name"`
	Method          grading.CalculationMethod `json:"calculation_method"`
	MethodLabel     string                    `json:"calculation_method_label"`
	WeightQA1       float64                   `json:"weight_qa1"`
	WeightQA2       float64                   `json:"weight_qa2"`
	WeightEndOfTerm float64                   `json:"weight_end_of_term"`
	PassMark        float64                   `json:"pass_mark"`
}

// ReportAggregates holds one aggregate per assessment type.
type ReportAggregates struct {
	QA1       grading.StudentAggregate `json:"qa1"`
	QA2       grading.StudentAggregate `json:"qa2"`
	EndOfTerm grading.StudentAggregate `json:"end_of_term"`
	Overall   grading.StudentAggregate `json:"overall"`
}

// ReportRanks holds the student's class position per assessment type.
type ReportRanks struct {
	Overall   int `json:"overall"`
	QA1       int `json:"qa1"`
	QA2       int `json:"qa2"`
	EndOfTerm int `json:"end_of_term"`
	ClassSize int `json:"class_size"`
}

// ReportAttendance is the attendance block of the report card.
type ReportAttendance struct {
	DaysPresent int `json:"days_present"`
	DaysAbsent  int `json:"days_absent"`
	DaysLate    int `json:"days_late"`
	Rate        int `json:"rate"`
}

// StudentReport is the full public result of one student.
type StudentReport struct {
	Student          ReportStudent                   `json:"student"`
	Configuration    ReportConfiguration             `json:"configuration"`
	Availability     grading.Availability            `json:"availability"`
	Subjects         []grading.ComputedSubjectResult `json:"subjects"`
	Aggregates       ReportAggregates                `json:"aggregates"`
	TotalScore       float64                         `json:"total_score"`
	MaxTotal         float64                         `json:"max_total"`
	Average          grading.Average                 `json:"average"`
	OverallGrade     grading.Grade                   `json:"overall_grade"`
	Remark           string                          `json:"remark"`
	PerformanceLabel string                          `json:"performance_label"`
	Ranks            ReportRanks                     `json:"ranks"`
	Summary          grading.PerformanceSummary      `json:"summary"`
	Attendance       *ReportAttendance               `json:"attendance,omitempty"`
	TeacherRemarks   *string                         `json:"teacher_remarks,omitempty"`
	GeneratedAt      time.Time                       `json:"generated_at"`
}

// ClassResultsResponse is the staff view of a ranked class.
type ClassResultsResponse struct {
	Class         models.Class         `json:"class"`
	Configuration ReportConfiguration  `json:"configuration"`
	Results       grading.ClassResults `json:"results"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// NewReportConfiguration projects an engine policy for display.
func NewReportConfiguration(cfg grading.Config) ReportConfiguration {
	return ReportConfiguration{
		Name:            cfg.Name,
		Method:          cfg.Method,
		MethodLabel:     cfg.Method.Label(),
		WeightQA1:       cfg.WeightQA1,
		WeightQA2:       cfg.WeightQA2,
		WeightEndOfTerm: cfg.WeightEndOfTerm,
		PassMark:        cfg.EffectivePassMark(),
	}
}
