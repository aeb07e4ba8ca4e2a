package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type resultStudentRepository interface {
	FindByExamNumber(ctx context.Context, examNumber string) (*models.StudentDetail, error)
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type classAssessmentReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.Assessment, error)
}

type reportCardReader interface {
	FindByStudent(ctx context.Context, studentID string) (*models.ReportCard, error)
}

type activeConfigProvider interface {
	Active(ctx context.Context) (grading.Config, error)
}

// ResultService turns stored scores into reports and class rankings.
type ResultService struct {
	students    resultStudentRepository
	classes     classLookup
	assessments classAssessmentReader
	reportCards reportCardReader
	configs     activeConfigProvider
	access      classAuthorizer
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// ResultServiceParams groups the collaborators of ResultService.
type ResultServiceParams struct {
	Students    resultStudentRepository
	Classes     classLookup
	Assessments classAssessmentReader
	ReportCards reportCardReader
	Configs     activeConfigProvider
	Access      classAuthorizer
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// NewResultService constructs the service.
func NewResultService(params ResultServiceParams) *ResultService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		students:    params.Students,
		classes:     params.Classes,
		assessments: params.Assessments,
		reportCards: params.ReportCards,
		access:      params.Access,
		configs:     params.Configs,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// LookupByExamNumber builds the public report of the student holding examNumber.
func (s *ResultService) LookupByExamNumber(ctx context.Context, examNumber string) (*dto.StudentReport, error) {
	examNumber = normalizeExamNumber(examNumber)
	if examNumber == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam number is required")
	}

	keys, cacheable := s.cache.ResultsKeys(ctx)
	cacheKey := keys.studentReport(examNumber)
	var cached dto.StudentReport
	if cacheable {
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	student, err := s.students.FindByExamNumber(ctx, examNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student found with that exam number")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	cfg, err := s.configs.Active(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.classRecords(ctx, student.ClassID)
	if err != nil {
		return nil, err
	}
	record := findRecord(records, student.Student)
	if record == nil {
		records = append(records, grading.StudentRecord{ID: student.ID, ExamNumber: student.ExamNumber, Name: student.Name, ClassID: student.ClassID})
		record = &records[len(records)-1]
	}

	report := s.buildReport(*student, *record, records, cfg)

	card, err := s.reportCards.FindByStudent(ctx, student.ID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	if card != nil {
		report.Attendance = &dto.ReportAttendance{
			DaysPresent: card.DaysPresent,
			DaysAbsent:  card.DaysAbsent,
			DaysLate:    card.DaysLate,
			Rate:        card.AttendanceRate(),
		}
		report.TeacherRemarks = card.TeacherRemarks
	}

	if cacheable {
		_ = s.cache.Set(ctx, cacheKey, report, 0)
	}
	return report, nil
}

// ReportCard returns the lookup report only when a report card can be issued.
func (s *ResultService) ReportCard(ctx context.Context, examNumber string) (*dto.StudentReport, error) {
	report, err := s.LookupByExamNumber(ctx, examNumber)
	if err != nil {
		return nil, err
	}
	if !report.Availability.Available {
		return nil, appErrors.Clone(appErrors.ErrReportUnavailable, "report card not available: "+report.Availability.Reason)
	}
	return report, nil
}

// ClassResults ranks the class on the given assessment type. Teachers only see classes
// they are assigned to; a nil access checker admits administrators only.
func (s *ResultService) ClassResults(ctx context.Context, classID string, t grading.AssessmentType, actor *models.JWTClaims) (*dto.ClassResultsResponse, error) {
	if !t.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assessment type")
	}
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if s.access == nil {
		err = requireUnscoped(actor)
	} else {
		err = s.access.AuthorizeClass(ctx, actor, classID)
	}
	if err != nil {
		return nil, err
	}
	return s.rankClass(ctx, class, t)
}

// WarmClass computes and caches the class results for every assessment type.
func (s *ResultService) WarmClass(ctx context.Context, classID string) error {
	class, err := s.loadClass(ctx, classID)
	if err != nil {
		return err
	}
	for _, t := range grading.AssessmentTypes {
		if _, err := s.rankClass(ctx, class, t); err != nil {
			return err
		}
	}
	s.logger.Debug("class results warmed", zap.String("class_id", classID))
	return nil
}

func (s *ResultService) loadClass(ctx context.Context, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ResultService) rankClass(ctx context.Context, class *models.Class, t grading.AssessmentType) (*dto.ClassResultsResponse, error) {
	keys, cacheable := s.cache.ResultsKeys(ctx)
	cacheKey := keys.classResults(class.ID, t)
	var cached dto.ClassResultsResponse
	if cacheable {
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	cfg, err := s.configs.Active(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.classRecords(ctx, class.ID)
	if err != nil {
		return nil, err
	}

	results := grading.ComputeClassResults(records, t, &cfg)
	s.metrics.RecordComputation(string(t))

	response := &dto.ClassResultsResponse{
		Class:         *class,
		Configuration: dto.NewReportConfiguration(cfg),
		Results:       results,
		GeneratedAt:   s.now().UTC(),
	}
	if cacheable {
		_ = s.cache.Set(ctx, cacheKey, response, 0)
	}
	return response, nil
}

func (s *ResultService) buildReport(student models.StudentDetail, record grading.StudentRecord, roster []grading.StudentRecord, cfg grading.Config) *dto.StudentReport {
	result := grading.BuildStudentResult(record, &cfg)

	ranks := dto.ReportRanks{ClassSize: len(roster)}
	for _, t := range grading.AssessmentTypes {
		rank := grading.ComputeClassResults(roster, t, &cfg).RankOf(record.ID)
		s.metrics.RecordComputation(string(t))
		switch t {
		case grading.AssessmentQA1:
			ranks.QA1 = rank
		case grading.AssessmentQA2:
			ranks.QA2 = rank
		case grading.AssessmentEndOfTerm:
			ranks.EndOfTerm = rank
		case grading.AssessmentOverall:
			ranks.Overall = rank
		}
	}
	result.Rank = ranks.Overall

	return &dto.StudentReport{
		Student: dto.ReportStudent{
			ExamNumber:   student.ExamNumber,
			Name:         student.Name,
			PhotoURL:     student.PhotoURL,
			ClassName:    student.ClassName,
			ClassCode:    student.ClassCode,
			Term:         student.Term,
			AcademicYear: student.AcademicYear,
		},
		Configuration: dto.NewReportConfiguration(cfg),
		Availability:  grading.ReportAvailability(record, &cfg),
		Subjects:      result.Subjects,
		Aggregates: dto.ReportAggregates{
			QA1:       grading.ComputeStudentAggregate(record, grading.AssessmentQA1, &cfg),
			QA2:       grading.ComputeStudentAggregate(record, grading.AssessmentQA2, &cfg),
			EndOfTerm: grading.ComputeStudentAggregate(record, grading.AssessmentEndOfTerm, &cfg),
			Overall:   grading.ComputeStudentAggregate(record, grading.AssessmentOverall, &cfg),
		},
		TotalScore:       result.TotalScore,
		MaxTotal:         float64(len(record.Subjects) * 100),
		Average:          result.Average,
		OverallGrade:     result.OverallGrade,
		Remark:           result.Remark,
		PerformanceLabel: grading.PerformanceLabel(result.OverallGrade),
		Ranks:            ranks,
		Summary:          grading.Summarize(result.Subjects, cfg.EffectivePassMark()),
		GeneratedAt:      s.now().UTC(),
	}
}

// classRecords loads the roster of a class in roster order with each student's saved scores.
func (s *ResultService) classRecords(ctx context.Context, classID string) ([]grading.StudentRecord, error) {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	assessments, err := s.assessments.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class assessments")
	}
	return buildStudentRecords(students, assessments), nil
}

func buildStudentRecords(students []models.Student, assessments []models.Assessment) []grading.StudentRecord {
	scores := make(map[string][]grading.SubjectScore, len(students))
	for _, a := range assessments {
		scores[a.StudentID] = append(scores[a.StudentID], a.SubjectScore())
	}
	records := make([]grading.StudentRecord, 0, len(students))
	for _, st := range students {
		records = append(records, grading.StudentRecord{
			ID:         st.ID,
			ExamNumber: st.ExamNumber,
			Name:       st.Name,
			ClassID:    st.ClassID,
			Subjects:   scores[st.ID],
		})
	}
	return records
}

func findRecord(records []grading.StudentRecord, student models.Student) *grading.StudentRecord {
	for i := range records {
		if records[i].ID == student.ID {
			return &records[i]
		}
	}
	return nil
}
