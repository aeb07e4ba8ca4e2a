package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type classSubjectLister interface {
	ListSubjects(ctx context.Context, classID string) ([]models.Subject, error)
}

type assessmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error)
	BulkUpsert(ctx context.Context, assessments []models.Assessment) error
}

type reportCardRepository interface {
	FindByStudent(ctx context.Context, studentID string) (*models.ReportCard, error)
	Upsert(ctx context.Context, card *models.ReportCard) error
}

type classAuthorizer interface {
	AuthorizeClass(ctx context.Context, actor *models.JWTClaims, classID string) error
}

type classAccess interface {
	classAuthorizer
	AuthorizeSubjects(ctx context.Context, actor *models.JWTClaims, classID string, subjectIDs []string) error
}

type classWarmer interface {
	Schedule(classID string)
}

// AssessmentService records scores and report card data entered by staff.
type AssessmentService struct {
	students    studentReader
	subjects    classSubjectLister
	assessments assessmentRepository
	reportCards reportCardRepository
	access      classAccess
	cache       *CacheService
	warmer      classWarmer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs the service. warmer may be nil; a nil access checker
// admits administrators only.
func NewAssessmentService(students studentReader, subjects classSubjectLister, assessments assessmentRepository, reportCards reportCardRepository, access classAccess, cache *CacheService, warmer classWarmer, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		students:    students,
		subjects:    subjects,
		assessments: assessments,
		reportCards: reportCards,
		access:      access,
		cache:       cache,
		warmer:      warmer,
		validator:   validate,
		logger:      logger,
	}
}

// ListForStudent returns one entry per class subject, filling saved scores where present.
func (s *AssessmentService) ListForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.StudentAssessments, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeClass(ctx, actor, student.ClassID); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListSubjects(ctx, student.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	saved, err := s.assessments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}

	card, err := s.reportCards.FindByStudent(ctx, studentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}

	return &dto.StudentAssessments{
		Student:     *student,
		Assessments: mergeAssessments(studentID, subjects, saved),
		ReportCard:  card,
	}, nil
}

// Save validates and upserts a batch of scores, then invalidates cached results and
// schedules a warm-up of the student's class. Teachers may only save subjects they are
// assigned to in that class.
func (s *AssessmentService) Save(ctx context.Context, studentID string, req dto.SaveAssessmentsRequest, actor *models.JWTClaims) ([]models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	subjectIDs := make([]string, 0, len(req.Assessments))
	for _, input := range req.Assessments {
		subjectIDs = append(subjectIDs, input.SubjectID)
	}
	if err := s.authorizeSubjects(ctx, actor, student.ClassID, subjectIDs); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListSubjects(ctx, student.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	names := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}

	seen := make(map[string]struct{}, len(req.Assessments))
	rows := make([]models.Assessment, 0, len(req.Assessments))
	for _, input := range req.Assessments {
		name, ok := names[input.SubjectID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s is not taught in the student's class", input.SubjectID))
		}
		if _, dup := seen[input.SubjectID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s appears more than once", input.SubjectID))
		}
		seen[input.SubjectID] = struct{}{}
		rows = append(rows, assessmentFromInput(studentID, name, input))
	}

	if err := s.assessments.BulkUpsert(ctx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assessments")
	}
	s.cache.InvalidateResults(ctx)
	if s.warmer != nil {
		s.warmer.Schedule(student.ClassID)
	}
	s.logger.Info("assessments saved", zap.String("student_id", studentID), zap.String("class_id", student.ClassID), zap.Int("subjects", len(rows)))
	return rows, nil
}

// SaveReportCard records attendance and teacher remarks for the student.
func (s *AssessmentService) SaveReportCard(ctx context.Context, studentID string, req dto.ReportCardRequest, actor *models.JWTClaims) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report card payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeClass(ctx, actor, student.ClassID); err != nil {
		return nil, err
	}
	card := &models.ReportCard{
		StudentID:      studentID,
		DaysPresent:    req.DaysPresent,
		DaysAbsent:     req.DaysAbsent,
		DaysLate:       req.DaysLate,
		TeacherRemarks: req.TeacherRemarks,
	}
	if err := s.reportCards.Upsert(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report card")
	}
	s.cache.InvalidateResults(ctx)
	return card, nil
}

func (s *AssessmentService) authorizeClass(ctx context.Context, actor *models.JWTClaims, classID string) error {
	if s.access == nil {
		return requireUnscoped(actor)
	}
	return s.access.AuthorizeClass(ctx, actor, classID)
}

func (s *AssessmentService) authorizeSubjects(ctx context.Context, actor *models.JWTClaims, classID string, subjectIDs []string) error {
	if s.access == nil {
		return requireUnscoped(actor)
	}
	return s.access.AuthorizeSubjects(ctx, actor, classID, subjectIDs)
}

func (s *AssessmentService) loadStudent(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func assessmentFromInput(studentID, subjectName string, input dto.AssessmentInput) models.Assessment {
	row := models.Assessment{
		StudentID:       studentID,
		SubjectID:       input.SubjectID,
		SubjectName:     subjectName,
		QA1:             input.QA1,
		QA2:             input.QA2,
		EndOfTerm:       input.EndOfTerm,
		QA1Absent:       input.QA1Absent,
		QA2Absent:       input.QA2Absent,
		EndOfTermAbsent: input.EndOfTermAbsent,
	}
	if row.QA1Absent {
		row.QA1 = nil
	}
	if row.QA2Absent {
		row.QA2 = nil
	}
	if row.EndOfTermAbsent {
		row.EndOfTerm = nil
	}
	return row
}

func mergeAssessments(studentID string, subjects []models.Subject, saved []models.Assessment) []models.Assessment {
	bySubject := make(map[string]models.Assessment, len(saved))
	for _, a := range saved {
		bySubject[a.SubjectID] = a
	}
	merged := make([]models.Assessment, 0, len(subjects))
	for _, subject := range subjects {
		row, ok := bySubject[subject.ID]
		if !ok {
			row = models.Assessment{StudentID: studentID, SubjectID: subject.ID}
		}
		row.SubjectName = subject.Name
		merged = append(merged, row)
	}
	return merged
}
