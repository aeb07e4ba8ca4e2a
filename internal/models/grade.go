package models

import (
	"time"

	"github.com/noah-isme/sma-results-api/internal/grading"
)

// GradeConfiguration is a stored grade calculation policy. Only one row is active at a time.
type GradeConfiguration struct {
	ID                string                    `db:"id" json:"id"`
	Name              string                    `db:"name" json:"name"`
	CalculationMethod grading.CalculationMethod `db:"calculation_method" json:"calculation_method"`
	WeightQA1         float64                   `db:"weight_qa1" json:"weight_qa1"`
	WeightQA2         float64                   `db:"weight_qa2" json:"weight_qa2"`
	WeightEndOfTerm   float64                   `db:"weight_end_of_term" json:"weight_end_of_term"`
	PassMark          float64                   `db:"pass_mark" json:"pass_mark"`
	IsActive          bool                      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time                 `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time                 `db:"updated_at" json:"updated_at"`
}

// Policy converts the stored row into the engine configuration.
func (g GradeConfiguration) Policy() grading.Config {
	return grading.Config{
		ID:              g.ID,
		Name:            g.Name,
		Method:          g.CalculationMethod,
		WeightQA1:       g.WeightQA1,
		WeightQA2:       g.WeightQA2,
		WeightEndOfTerm: g.WeightEndOfTerm,
		PassMark:        g.PassMark,
		IsActive:        g.IsActive,
	}
}

// Assessment holds one student's scores for one subject. Nil scores were not taken.
type Assessment struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	SubjectName     string    `db:"subject_name" json:"subject_name"`
	QA1             *float64  `db:"qa1" json:"qa1"`
	QA2             *float64  `db:"qa2" json:"qa2"`
	EndOfTerm       *float64  `db:"end_of_term" json:"end_of_term"`
	QA1Absent       bool      `db:"qa1_absent" json:"qa1_absent"`
	QA2Absent       bool      `db:"qa2_absent" json:"qa2_absent"`
	EndOfTermAbsent bool      `db:"end_of_term_absent" json:"end_of_term_absent"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectScore projects the assessment into the engine's score view.
func (a Assessment) SubjectScore() grading.SubjectScore {
	return grading.SubjectScore{
		SubjectID:   a.SubjectID,
		SubjectName: a.SubjectName,
		QA1:         a.QA1,
		QA2:         a.QA2,
		EndOfTerm:   a.EndOfTerm,
	}
}

// ReportCard carries the per-student data entered alongside scores.
type ReportCard struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	DaysPresent    int       `db:"days_present" json:"days_present"`
	DaysAbsent     int       `db:"days_absent" json:"days_absent"`
	DaysLate       int       `db:"days_late" json:"days_late"`
	TeacherRemarks *string   `db:"teacher_remarks" json:"teacher_remarks,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceRate is the share of present days among present and absent days, rounded
// to a whole percent. Lateness does not count against attendance.
func (r ReportCard) AttendanceRate() int {
	total := r.DaysPresent + r.DaysAbsent
	if total <= 0 {
		return 0
	}
	return int(float64(r.DaysPresent)/float64(total)*100 + 0.5)
}
