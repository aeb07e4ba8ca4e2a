package grading

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleSubject(id, name string, qa1 *float64) StudentRecord {
	return StudentRecord{
		ID:   id,
		Name: name,
		Subjects: []SubjectScore{
			{SubjectID: "math", SubjectName: "Mathematics", QA1: qa1},
		},
	}
}

func TestComputeClassResultsQA1(t *testing.T) {
	students := []StudentRecord{
		singleSubject("s1", "Ada", Ptr(90)),
		singleSubject("s2", "Ben", nil),
		singleSubject("s3", "Cleo", Ptr(70)),
	}
	cfg := DefaultConfig()

	results := ComputeClassResults(students, AssessmentQA1, &cfg)

	require.Len(t, results.Ranked, 3)
	assert.Equal(t, "s1", results.Ranked[0].StudentID)
	assert.Equal(t, "s3", results.Ranked[1].StudentID)
	assert.Equal(t, "s2", results.Ranked[2].StudentID)
	for i, entry := range results.Ranked {
		assert.Equal(t, i+1, entry.Rank)
	}
	assert.False(t, results.Ranked[2].Score.Available)
	assert.Equal(t, GradeF, results.Ranked[2].ScoreGrade)

	stats := results.Stats
	assert.InDelta(t, 80, stats.ClassAverage, 1e-9)
	assert.Equal(t, "Ada", stats.TopPerformerName)
	assert.InDelta(t, 90, stats.TopPerformerScore, 1e-9)
	assert.Equal(t, 2, stats.PassCount)
	assert.Equal(t, 1, stats.FailCount)
	assert.InDelta(t, 66.6667, stats.PassRate, 1e-3)
	assert.Equal(t, "2/3", stats.StudentsWithScoresRatio)
	assert.Equal(t, 2, results.RankOf("s3"))
	assert.Zero(t, results.RankOf("missing"))
}

func TestComputeClassResultsTiesKeepRosterOrder(t *testing.T) {
	students := []StudentRecord{
		singleSubject("s1", "Ada", Ptr(75)),
		singleSubject("s2", "Ben", Ptr(80)),
		singleSubject("s3", "Cleo", Ptr(75)),
		singleSubject("s4", "Dee", Ptr(75)),
	}

	results := ComputeClassResults(students, AssessmentQA1, nil)

	ids := make([]string, 0, len(results.Ranked))
	ranks := make([]int, 0, len(results.Ranked))
	for _, entry := range results.Ranked {
		ids = append(ids, entry.StudentID)
		ranks = append(ranks, entry.Rank)
	}
	assert.Equal(t, []string{"s2", "s1", "s3", "s4"}, ids)
	assert.Equal(t, []int{1, 2, 3, 4}, ranks)
}

func TestComputeClassResultsEmptyRoster(t *testing.T) {
	results := ComputeClassResults(nil, AssessmentOverall, nil)

	assert.Empty(t, results.Ranked)
	assert.Zero(t, results.Stats.PassRate)
	assert.Zero(t, results.Stats.ClassAverage)
	assert.Equal(t, NotAvailable, results.Stats.TopPerformerName)
	assert.Equal(t, "0/0", results.Stats.StudentsWithScoresRatio)
}

func TestComputeClassResultsNobodyScored(t *testing.T) {
	students := []StudentRecord{
		singleSubject("s1", "Ada", nil),
		singleSubject("s2", "Ben", nil),
	}

	results := ComputeClassResults(students, AssessmentQA1, nil)

	assert.Equal(t, NotAvailable, results.Stats.TopPerformerName)
	assert.Zero(t, results.Stats.ClassAverage)
	assert.Equal(t, 0, results.Stats.PassCount)
	assert.Equal(t, 2, results.Stats.FailCount)
	assert.Equal(t, "0/2", results.Stats.StudentsWithScoresRatio)
}

func TestComputeClassResultsOverallUsesPolicy(t *testing.T) {
	students := []StudentRecord{
		{ID: "s1", Name: "Ada", Subjects: []SubjectScore{{SubjectName: "Maths", QA1: Ptr(100), QA2: Ptr(100), EndOfTerm: Ptr(40)}}},
		{ID: "s2", Name: "Ben", Subjects: []SubjectScore{{SubjectName: "Maths", QA1: Ptr(40), QA2: Ptr(40), EndOfTerm: Ptr(90)}}},
	}

	averaged := ComputeClassResults(students, AssessmentOverall, nil)
	assert.Equal(t, "s1", averaged.Ranked[0].StudentID)

	eotOnly := ComputeClassResults(students, AssessmentOverall, &Config{Method: MethodEndOfTermOnly, PassMark: 50})
	assert.Equal(t, "s2", eotOnly.Ranked[0].StudentID)
	assert.Equal(t, 1, eotOnly.Stats.PassCount)
	assert.InDelta(t, 50, eotOnly.Stats.PassRate, 1e-9)
}

func TestComputeClassResultsIsIdempotent(t *testing.T) {
	students := []StudentRecord{
		singleSubject("s1", "Ada", Ptr(55)),
		singleSubject("s2", "Ben", Ptr(65)),
	}
	first := ComputeClassResults(students, AssessmentQA1, nil)
	second := ComputeClassResults(students, AssessmentQA1, nil)
	assert.Equal(t, first, second)
	assert.Equal(t, "s1", students[0].ID)
}

func TestComputeClassResultsInvalidTypeFallsBackToOverall(t *testing.T) {
	results := ComputeClassResults([]StudentRecord{singleSubject("s1", "Ada", Ptr(90))}, "midterm", nil)
	assert.Equal(t, AssessmentOverall, results.Type)
}

func TestComputeClassResultsStaysFiniteOnHugeScores(t *testing.T) {
	huge := math.MaxFloat64
	students := []StudentRecord{
		{ID: "s1", Name: "Ada", Subjects: []SubjectScore{
			{SubjectID: "m", SubjectName: "Maths", QA1: Ptr(huge), QA2: Ptr(huge), EndOfTerm: Ptr(huge)},
			{SubjectID: "e", SubjectName: "English", QA1: Ptr(huge), QA2: Ptr(huge), EndOfTerm: Ptr(huge)},
		}},
		{ID: "s2", Name: "Bola", Subjects: []SubjectScore{
			{SubjectID: "m", SubjectName: "Maths", QA1: Ptr(huge), QA2: Ptr(huge), EndOfTerm: Ptr(huge)},
		}},
	}

	for _, typ := range AssessmentTypes {
		results := ComputeClassResults(students, typ, &Config{Method: MethodAverageAll, PassMark: 50})
		assert.False(t, math.IsInf(results.Stats.ClassAverage, 0) || math.IsNaN(results.Stats.ClassAverage), "type %s", typ)
		_, err := json.Marshal(results)
		require.NoError(t, err, "type %s", typ)
	}

	assert.False(t, math.IsInf(GrandTotal(students[0].Subjects, nil), 0))
}
