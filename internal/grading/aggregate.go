package grading

import (
	"encoding/json"
	"strings"
)

// AssessmentType identifies which score an aggregate or ranking is computed over.
type AssessmentType string

const (
	AssessmentQA1       AssessmentType = "qa1"
	AssessmentQA2       AssessmentType = "qa2"
	AssessmentEndOfTerm AssessmentType = "endOfTerm"
	AssessmentOverall   AssessmentType = "overall"
)

// AssessmentTypes lists every supported type in display order.
var AssessmentTypes = []AssessmentType{AssessmentQA1, AssessmentQA2, AssessmentEndOfTerm, AssessmentOverall}

// Valid reports whether t is a supported assessment type.
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentQA1, AssessmentQA2, AssessmentEndOfTerm, AssessmentOverall:
		return true
	default:
		return false
	}
}

// ParseAssessmentType accepts the canonical names plus common spellings such as
// "end_of_term" and "eot". An empty value means overall.
func ParseAssessmentType(raw string) (AssessmentType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "overall", "final":
		return AssessmentOverall, true
	case "qa1":
		return AssessmentQA1, true
	case "qa2":
		return AssessmentQA2, true
	case "endofterm", "end_of_term", "eot":
		return AssessmentEndOfTerm, true
	default:
		return "", false
	}
}

// SubjectScore carries one subject's raw assessment scores for a student.
type SubjectScore struct {
	SubjectID   string   `json:"subject_id"`
	SubjectName string   `json:"subject_name"`
	QA1         *float64 `json:"qa1"`
	QA2         *float64 `json:"qa2"`
	EndOfTerm   *float64 `json:"end_of_term"`
}

// FinalScore applies cfg to the subject's components.
func (s SubjectScore) FinalScore(cfg *Config) float64 {
	return CalculateFinalScore(ValueOf(s.QA1), ValueOf(s.QA2), ValueOf(s.EndOfTerm), cfg)
}

// HasScores reports whether any component was taken.
func (s SubjectScore) HasScores() bool {
	return IsPresent(s.QA1) || IsPresent(s.QA2) || IsPresent(s.EndOfTerm)
}

// ScoreFor returns the subject's score for t. Overall yields the final score under cfg.
func (s SubjectScore) ScoreFor(t AssessmentType, cfg *Config) *float64 {
	switch t {
	case AssessmentQA1:
		return s.QA1
	case AssessmentQA2:
		return s.QA2
	case AssessmentEndOfTerm:
		return s.EndOfTerm
	default:
		return Ptr(s.FinalScore(cfg))
	}
}

// StudentRecord is the engine's view of a student and their subject scores.
type StudentRecord struct {
	ID         string         `json:"id"`
	ExamNumber string         `json:"exam_number"`
	Name       string         `json:"name"`
	ClassID    string         `json:"class_id"`
	Subjects   []SubjectScore `json:"subjects"`
}

// NotAvailable is rendered in place of an average with no contributing scores.
const NotAvailable = "N/A"

// Average is a mean that may have had nothing to average.
type Average struct {
	Value     float64
	Available bool
}

// MarshalJSON renders unavailable averages as "N/A".
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Available {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts either a number or the "N/A" sentinel.
func (a *Average) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = Average{}
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*a = Average{Value: value, Available: true}
	return nil
}

// StudentAggregate summarises one assessment type across a student's subjects.
type StudentAggregate struct {
	Type            AssessmentType `json:"type"`
	Average         Average        `json:"average"`
	Grade           Grade          `json:"grade"`
	Remark          string         `json:"remark"`
	SubjectsCounted int            `json:"subjects_counted"`
}

// ComputeStudentAggregate averages the student's present scores for t. Subjects without a
// present score are skipped; with none left the average is unavailable and grades as 0.
func ComputeStudentAggregate(student StudentRecord, t AssessmentType, cfg *Config) StudentAggregate {
	scores := make([]*float64, 0, len(student.Subjects))
	for _, subject := range student.Subjects {
		scores = append(scores, subject.ScoreFor(t, cfg))
	}
	present := FilterPresent(scores)
	avg, ok := mean(present)
	grade := Classify(avg, cfg.EffectivePassMark())
	return StudentAggregate{
		Type:            t,
		Average:         Average{Value: avg, Available: ok},
		Grade:           grade,
		Remark:          Remark(grade),
		SubjectsCounted: len(present),
	}
}

// GrandTotal sums every subject's final score, present or not.
func GrandTotal(subjects []SubjectScore, cfg *Config) float64 {
	total := 0.0
	for _, subject := range subjects {
		total += subject.FinalScore(cfg)
	}
	return finite(total)
}

// ComputedSubjectResult is a graded subject line.
type ComputedSubjectResult struct {
	SubjectID   string   `json:"subject_id"`
	SubjectName string   `json:"subject_name"`
	QA1         *float64 `json:"qa1"`
	QA2         *float64 `json:"qa2"`
	EndOfTerm   *float64 `json:"end_of_term"`
	FinalScore  float64  `json:"final_score"`
	Grade       Grade    `json:"grade"`
	Remark      string   `json:"remark"`
}

// ComputedStudentResult is a student's full computed record. Rank is zero until the student
// has been ranked within a class.
type ComputedStudentResult struct {
	StudentID    string                  `json:"student_id"`
	Name         string                  `json:"name"`
	ExamNumber   string                  `json:"exam_number"`
	TotalScore   float64                 `json:"total_score"`
	Average      Average                 `json:"average"`
	OverallGrade Grade                   `json:"overall_grade"`
	Remark       string                  `json:"remark"`
	Rank         int                     `json:"rank"`
	Subjects     []ComputedSubjectResult `json:"subjects"`
}

// GradeSubject computes the final score, grade and remark of one subject.
func GradeSubject(subject SubjectScore, cfg *Config) ComputedSubjectResult {
	final := subject.FinalScore(cfg)
	grade := Classify(final, cfg.EffectivePassMark())
	return ComputedSubjectResult{
		SubjectID:   subject.SubjectID,
		SubjectName: subject.SubjectName,
		QA1:         subject.QA1,
		QA2:         subject.QA2,
		EndOfTerm:   subject.EndOfTerm,
		FinalScore:  final,
		Grade:       grade,
		Remark:      Remark(grade),
	}
}

// BuildStudentResult grades every subject and derives the overall figures.
func BuildStudentResult(student StudentRecord, cfg *Config) ComputedStudentResult {
	subjects := make([]ComputedSubjectResult, 0, len(student.Subjects))
	for _, subject := range student.Subjects {
		subjects = append(subjects, GradeSubject(subject, cfg))
	}
	overall := ComputeStudentAggregate(student, AssessmentOverall, cfg)
	return ComputedStudentResult{
		StudentID:    student.ID,
		Name:         student.Name,
		ExamNumber:   student.ExamNumber,
		TotalScore:   GrandTotal(student.Subjects, cfg),
		Average:      overall.Average,
		OverallGrade: overall.Grade,
		Remark:       overall.Remark,
		Subjects:     subjects,
	}
}
