package grading

// Availability explains whether a report card can be produced for a student.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// ReportAvailability refuses report cards for students without scores, and for
// end_of_term_only policies when no end-of-term score has been entered.
func ReportAvailability(student StudentRecord, cfg *Config) Availability {
	if cfg != nil && cfg.Method == MethodEndOfTermOnly {
		for _, subject := range student.Subjects {
			if IsPresent(subject.EndOfTerm) {
				return Availability{Available: true}
			}
		}
		return Availability{Reason: "end of term scores have not been entered"}
	}
	for _, subject := range student.Subjects {
		if subject.HasScores() {
			return Availability{Available: true}
		}
	}
	return Availability{Reason: "no scores have been entered"}
}

// SubjectHighlight names a subject and its final score.
type SubjectHighlight struct {
	SubjectName string  `json:"subject_name"`
	FinalScore  float64 `json:"final_score"`
}

// PerformanceSummary counts grade bands across a student's graded subjects.
type PerformanceSummary struct {
	BestSubject    *SubjectHighlight `json:"best_subject,omitempty"`
	WeakestSubject *SubjectHighlight `json:"weakest_subject,omitempty"`
	SubjectsPassed int               `json:"subjects_passed"`
	TotalSubjects  int               `json:"total_subjects"`
	Distinctions   int               `json:"distinctions"`
	Credits        int               `json:"credits"`
	BelowPassMark  int               `json:"below_pass_mark"`
}

// Summarize reports best and weakest subjects (first wins on ties) and the grade band counts.
func Summarize(subjects []ComputedSubjectResult, passMark float64) PerformanceSummary {
	if passMark <= 0 {
		passMark = DefaultPassMark
	}
	summary := PerformanceSummary{TotalSubjects: len(subjects)}
	for i, subject := range subjects {
		if i == 0 || subject.FinalScore > summary.BestSubject.FinalScore {
			summary.BestSubject = &SubjectHighlight{SubjectName: subject.SubjectName, FinalScore: subject.FinalScore}
		}
		if i == 0 || subject.FinalScore < summary.WeakestSubject.FinalScore {
			summary.WeakestSubject = &SubjectHighlight{SubjectName: subject.SubjectName, FinalScore: subject.FinalScore}
		}
		if subject.Grade.Passed() {
			summary.SubjectsPassed++
		}
		switch subject.Grade {
		case GradeA, GradeB:
			summary.Distinctions++
		case GradeC, GradeD:
			summary.Credits++
		}
		if subject.FinalScore < passMark {
			summary.BelowPassMark++
		}
	}
	return summary
}
