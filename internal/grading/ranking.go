package grading

import (
	"fmt"
	"sort"
)

// RankedStudent is a student's computed result together with the score and grade
// for the assessment type the class was ranked on.
type RankedStudent struct {
	ComputedStudentResult
	Type        AssessmentType `json:"type"`
	Score       Average        `json:"score"`
	ScoreGrade  Grade          `json:"score_grade"`
	ScoreRemark string         `json:"score_remark"`
}

// ClassStats aggregates a ranked class.
type ClassStats struct {
	TotalStudents           int     `json:"total_students"`
	StudentsWithScores      int     `json:"students_with_scores"`
	ClassAverage            float64 `json:"class_average"`
	TopPerformerName        string  `json:"top_performer_name"`
	TopPerformerScore       float64 `json:"top_performer_score"`
	PassCount               int     `json:"pass_count"`
	FailCount               int     `json:"fail_count"`
	PassRate                float64 `json:"pass_rate"`
	StudentsWithScoresRatio string  `json:"students_with_scores_ratio"`
}

// ClassResults is the ranked roster plus its statistics.
type ClassResults struct {
	Type   AssessmentType  `json:"type"`
	Ranked []RankedStudent `json:"ranked"`
	Stats  ClassStats      `json:"stats"`
}

// ComputeClassResults ranks students by their t aggregate. Students with no score for t rank
// with 0 and grade as 0; the sort is stable so ties keep roster order, and ranks are always
// 1..N with no shared positions.
func ComputeClassResults(students []StudentRecord, t AssessmentType, cfg *Config) ClassResults {
	if !t.Valid() {
		t = AssessmentOverall
	}
	passMark := cfg.EffectivePassMark()

	ranked := make([]RankedStudent, 0, len(students))
	for _, student := range students {
		aggregate := ComputeStudentAggregate(student, t, cfg)
		ranked = append(ranked, RankedStudent{
			ComputedStudentResult: BuildStudentResult(student, cfg),
			Type:                  t,
			Score:                 aggregate.Average,
			ScoreGrade:            aggregate.Grade,
			ScoreRemark:           aggregate.Remark,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Value > ranked[j].Score.Value
	})

	stats := ClassStats{
		TotalStudents:    len(ranked),
		TopPerformerName: NotAvailable,
	}
	sum := 0.0
	for i := range ranked {
		ranked[i].Rank = i + 1
		entry := ranked[i]

		if entry.Score.Available {
			stats.StudentsWithScores++
			sum += entry.Score.Value
			if stats.StudentsWithScores == 1 || entry.Score.Value > stats.TopPerformerScore {
				stats.TopPerformerName = entry.Name
				stats.TopPerformerScore = entry.Score.Value
			}
		}

		if Classify(entry.Score.Value, passMark).Passed() {
			stats.PassCount++
		} else {
			stats.FailCount++
		}
	}

	if stats.StudentsWithScores > 0 {
		stats.ClassAverage = finite(sum / float64(stats.StudentsWithScores))
	}
	if stats.TotalStudents > 0 {
		stats.PassRate = float64(stats.PassCount) / float64(stats.TotalStudents) * 100
	}
	stats.StudentsWithScoresRatio = fmt.Sprintf("%d/%d", stats.StudentsWithScores, stats.TotalStudents)

	return ClassResults{Type: t, Ranked: ranked, Stats: stats}
}

// RankOf returns the 1-based rank of studentID within results, or 0 when absent.
func (r ClassResults) RankOf(studentID string) int {
	for _, entry := range r.Ranked {
		if entry.StudentID == studentID {
			return entry.Rank
		}
	}
	return 0
}
