package grading

// Grade is a letter grade.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Remarks attached to graded results.
const (
	RemarkPassed = "Passed"
	RemarkFailed = "Failed"
)

// Classify maps a score to a letter grade. The A/B/C cut points are fixed while the
// D band starts at the pass mark; a pass mark of 0 or below falls back to DefaultPassMark.
// A pass mark above 60 therefore leaves no reachable D band.
func Classify(score, passMark float64) Grade {
	if passMark <= 0 {
		passMark = DefaultPassMark
	}
	switch {
	case score >= 80:
		return GradeA
	case score >= 70:
		return GradeB
	case score >= 60:
		return GradeC
	case score >= passMark:
		return GradeD
	default:
		return GradeF
	}
}

// Remark returns "Failed" for F and "Passed" for every other grade.
func Remark(g Grade) string {
	if g == GradeF {
		return RemarkFailed
	}
	return RemarkPassed
}

// Passed reports whether g is a passing grade.
func (g Grade) Passed() bool {
	return g != GradeF
}

// PerformanceLabel describes an overall grade on the report card.
func PerformanceLabel(g Grade) string {
	switch g {
	case GradeA:
		return "Excellent"
	case GradeB:
		return "Good"
	case GradeC:
		return "Satisfactory"
	case GradeD:
		return "Passing"
	default:
		return "Needs Improvement"
	}
}
