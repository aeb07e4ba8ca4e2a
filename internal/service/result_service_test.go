package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type stubResultStudents struct {
	roster  []models.Student
	classes map[string]models.Class
	err     error
}

func (s *stubResultStudents) FindByExamNumber(ctx context.Context, examNumber string) (*models.StudentDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, st := range s.roster {
		if st.ExamNumber == examNumber {
			class := s.classes[st.ClassID]
			return &models.StudentDetail{Student: st, ClassName: class.Name, Term: class.Term, AcademicYear: class.AcademicYear}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubResultStudents) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Student
	for _, st := range s.roster {
		if st.ClassID == classID {
			out = append(out, st)
		}
	}
	return out, nil
}

type stubActiveConfig struct {
	cfg grading.Config
}

func (s stubActiveConfig) Active(ctx context.Context) (grading.Config, error) {
	return s.cfg, nil
}

func scoreRow(studentID, subjectID, name string, qa1, qa2, eot float64) models.Assessment {
	return models.Assessment{StudentID: studentID, SubjectID: subjectID, SubjectName: name, QA1: grading.Ptr(qa1), QA2: grading.Ptr(qa2), EndOfTerm: grading.Ptr(eot)}
}

type resultFixture struct {
	svc      *ResultService
	students *stubResultStudents
	metrics  *MetricsService
	cache    *stubCacheRepo
}

func newResultFixture(cfg grading.Config, cacheEnabled bool) resultFixture {
	class := models.Class{ID: "c1", Name: "Form 1", Term: "Term 1", AcademicYear: "2025/2026"}
	students := &stubResultStudents{
		roster: []models.Student{
			{ID: "s1", ExamNumber: "26-1001", Name: "Ada", ClassID: "c1"},
			{ID: "s2", ExamNumber: "26-1002", Name: "Bola", ClassID: "c1"},
			{ID: "s3", ExamNumber: "26-1003", Name: "Chi", ClassID: "c1"},
		},
		classes: map[string]models.Class{"c1": class},
	}
	assessments := &mockAssessmentRepo{byStudent: map[string][]models.Assessment{
		"s1": {scoreRow("s1", "math", "Mathematics", 80, 70, 90), scoreRow("s1", "eng", "English", 60, 60, 60)},
		"s2": {scoreRow("s2", "math", "Mathematics", 90, 90, 90), scoreRow("s2", "eng", "English", 90, 90, 90)},
	}}
	cards := &mockReportCardRepo{cards: map[string]models.ReportCard{
		"s1": {StudentID: "s1", DaysPresent: 57, DaysAbsent: 3, DaysLate: 1},
	}}
	metrics := NewMetricsService()
	cacheRepo := &stubCacheRepo{}
	svc := NewResultService(ResultServiceParams{
		Students:    students,
		Classes:     &mockClassLookup{classes: map[string]models.Class{"c1": class}},
		Assessments: assessments,
		ReportCards: cards,
		Configs:     stubActiveConfig{cfg: cfg},
		Cache:       NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), cacheEnabled),
		Metrics:     metrics,
		Logger:      zap.NewNop(),
	})
	return resultFixture{svc: svc, students: students, metrics: metrics, cache: cacheRepo}
}

func TestResultServiceLookupBuildsReport(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), false)

	report, err := f.svc.LookupByExamNumber(context.Background(), " 26-1001 ")
	require.NoError(t, err)

	assert.Equal(t, "Ada", report.Student.Name)
	assert.Equal(t, "Form 1", report.Student.ClassName)
	assert.True(t, report.Availability.Available)
	assert.Equal(t, 140.0, report.TotalScore)
	assert.Equal(t, 200.0, report.MaxTotal)
	assert.Equal(t, grading.GradeB, report.OverallGrade)
	assert.Equal(t, grading.RemarkPassed, report.Remark)
	assert.Equal(t, "Good", report.PerformanceLabel)
	assert.InDelta(t, 70.0, report.Average.Value, 0.0001)

	assert.Equal(t, 2, report.Ranks.Overall)
	assert.Equal(t, 2, report.Ranks.QA1)
	assert.Equal(t, 3, report.Ranks.ClassSize)
	assert.InDelta(t, 70.0, report.Aggregates.QA1.Average.Value, 0.0001)
	assert.InDelta(t, 65.0, report.Aggregates.QA2.Average.Value, 0.0001)

	require.NotNil(t, report.Summary.BestSubject)
	assert.Equal(t, "Mathematics", report.Summary.BestSubject.SubjectName)
	assert.Equal(t, "English", report.Summary.WeakestSubject.SubjectName)
	assert.Equal(t, 2, report.Summary.SubjectsPassed)
	assert.Equal(t, 1, report.Summary.Distinctions)
	assert.Equal(t, 1, report.Summary.Credits)

	require.NotNil(t, report.Attendance)
	assert.Equal(t, 95, report.Attendance.Rate)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Computations["overall"])
}

func TestResultServiceLookupUnscoredStudentIsUnavailable(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), false)

	report, err := f.svc.LookupByExamNumber(context.Background(), "26-1003")
	require.NoError(t, err)
	assert.False(t, report.Availability.Available)
	assert.Equal(t, "no scores have been entered", report.Availability.Reason)
	assert.False(t, report.Average.Available)
	assert.Equal(t, 3, report.Ranks.Overall)
	assert.Nil(t, report.Attendance)

	_, err = f.svc.ReportCard(context.Background(), "26-1003")
	assert.True(t, errors.Is(err, appErrors.ErrReportUnavailable))

	card, err := f.svc.ReportCard(context.Background(), "26-1002")
	require.NoError(t, err)
	assert.Equal(t, 1, card.Ranks.Overall)
}

func TestResultServiceLookupEndOfTermOnlyNeedsExamScores(t *testing.T) {
	cfg := grading.Config{Name: "Exam", Method: grading.MethodEndOfTermOnly, PassMark: 50, IsActive: true}
	f := newResultFixture(cfg, false)
	f.students.roster = append(f.students.roster, models.Student{ID: "s4", ExamNumber: "26-1004", Name: "Dayo", ClassID: "c1"})

	report, err := f.svc.LookupByExamNumber(context.Background(), "26-1001")
	require.NoError(t, err)
	assert.Equal(t, 150.0, report.TotalScore)
	assert.Equal(t, "End of Term Only", report.Configuration.MethodLabel)

	report, err = f.svc.LookupByExamNumber(context.Background(), "26-1004")
	require.NoError(t, err)
	assert.False(t, report.Availability.Available)
	assert.Equal(t, "end of term scores have not been entered", report.Availability.Reason)
}

func TestResultServiceLookupErrors(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), false)
	ctx := context.Background()

	_, err := f.svc.LookupByExamNumber(ctx, "  ")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.LookupByExamNumber(ctx, "99-0000")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	f.students.err = errors.New("db down")
	_, err = f.svc.LookupByExamNumber(ctx, "26-1001")
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestResultServiceLookupIsCached(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), true)
	ctx := context.Background()

	first, err := f.svc.LookupByExamNumber(ctx, "26-1001")
	require.NoError(t, err)
	assert.Contains(t, f.cache.store, resultsKeys{}.studentReport("26-1001"))

	f.students.err = errors.New("should not be called")
	second, err := f.svc.LookupByExamNumber(ctx, "26-1001")
	require.NoError(t, err)
	assert.Equal(t, first.TotalScore, second.TotalScore)
	assert.Equal(t, first.Ranks, second.Ranks)
	assert.Equal(t, first.OverallGrade, second.OverallGrade)
}

func TestResultServiceLookupIgnoresWritesFromBeforeInvalidation(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), true)
	ctx := context.Background()

	fresh, err := f.svc.LookupByExamNumber(ctx, "26-1001")
	require.NoError(t, err)

	stale := *fresh
	stale.Student.Name = "Before Save"
	before, ok := f.svc.cache.ResultsKeys(ctx)
	require.True(t, ok)
	f.svc.cache.InvalidateResults(ctx)
	require.NoError(t, f.svc.cache.Set(ctx, before.studentReport("26-1001"), stale, 0))

	out, err := f.svc.LookupByExamNumber(ctx, "26-1001")
	require.NoError(t, err)
	assert.Equal(t, fresh.Student.Name, out.Student.Name)
}

func TestResultServiceClassResults(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), true)
	ctx := context.Background()

	out, err := f.svc.ClassResults(ctx, "c1", grading.AssessmentQA1, adminActor)
	require.NoError(t, err)
	require.Len(t, out.Results.Ranked, 3)
	assert.Equal(t, "s2", out.Results.Ranked[0].StudentID)
	assert.Equal(t, "s1", out.Results.Ranked[1].StudentID)
	assert.Equal(t, "s3", out.Results.Ranked[2].StudentID)
	assert.Equal(t, "2/3", out.Results.Stats.StudentsWithScoresRatio)
	assert.Equal(t, "Bola", out.Results.Stats.TopPerformerName)
	assert.Equal(t, "Form 1", out.Class.Name)

	f.students.err = errors.New("should not be called")
	cached, err := f.svc.ClassResults(ctx, "c1", grading.AssessmentQA1, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 3, len(cached.Results.Ranked))
	assert.Equal(t, uint64(1), f.metrics.Snapshot().Computations["qa1"])
}

func TestResultServiceClassResultsErrors(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), false)

	_, err := f.svc.ClassResults(context.Background(), "c1", grading.AssessmentType("midterm"), adminActor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.ClassResults(context.Background(), "c9", grading.AssessmentOverall, adminActor)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestResultServiceClassResultsScopesTeachers(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), false)
	ctx := context.Background()

	_, err := f.svc.ClassResults(ctx, "c1", grading.AssessmentOverall, nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	_, err = f.svc.ClassResults(ctx, "c1", grading.AssessmentOverall, teacherActor("t1"))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	f.svc.access = newAccessFixture(map[string][]string{"t1|c1": {"math"}})
	out, err := f.svc.ClassResults(ctx, "c1", grading.AssessmentOverall, teacherActor("t1"))
	require.NoError(t, err)
	assert.Len(t, out.Results.Ranked, 3)

	_, err = f.svc.ClassResults(ctx, "c1", grading.AssessmentOverall, teacherActor("t2"))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.ClassResults(ctx, "c9", grading.AssessmentOverall, teacherActor("t1"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestResultServiceWarmClassCachesEveryType(t *testing.T) {
	f := newResultFixture(grading.DefaultConfig(), true)

	require.NoError(t, f.svc.WarmClass(context.Background(), "c1"))
	for _, typ := range grading.AssessmentTypes {
		assert.Contains(t, f.cache.store, resultsKeys{}.classResults("c1", typ))
	}
}
