package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

// maxExamNumberAttempts bounds the search for a free generated exam number.
const maxExamNumberAttempts = 50

var classDigits = regexp.MustCompile(`\d+`)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByExamNumber(ctx context.Context, examNumber, excludeID string) (bool, error)
	CountByClass(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentRequest holds the payload for creating or updating students. An empty exam
// number on create is generated from the class.
type StudentRequest struct {
	ExamNumber string  `json:"exam_number" validate:"omitempty,max=30"`
	Name       string  `json:"name" validate:"required,max=150"`
	ClassID    string  `json:"class_id" validate:"required"`
	PhotoURL   *string `json:"photo_url" validate:"omitempty,url"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	classes   classLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes classLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// FormatExamNumber builds `<yy>-<classDigits><seq:03d>`. classDigits is the first digit run
// of the class name, or "0" when the name has none.
func FormatExamNumber(className string, seq int, now time.Time) string {
	digits := classDigits.FindString(className)
	if digits == "" {
		digits = "0"
	}
	return fmt.Sprintf("%02d-%s%03d", now.Year()%100, digits, seq)
}

func normalizeExamNumber(examNumber string) string {
	return strings.ToUpper(strings.TrimSpace(examNumber))
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student, generating the exam number when none is given.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	req.ExamNumber = normalizeExamNumber(req.ExamNumber)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	class, err := s.findClass(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}

	examNumber := req.ExamNumber
	if examNumber == "" {
		examNumber, err = s.nextExamNumber(ctx, class)
		if err != nil {
			return nil, err
		}
	} else if err := s.ensureUniqueExamNumber(ctx, examNumber, ""); err != nil {
		return nil, err
	}

	student := &models.Student{
		ExamNumber: examNumber,
		Name:       req.Name,
		ClassID:    class.ID,
		PhotoURL:   req.PhotoURL,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.cache.InvalidateResults(ctx)
	s.logger.Info("student registered", zap.String("student_id", student.ID), zap.String("exam_number", student.ExamNumber), zap.String("class_id", student.ClassID))
	return student, nil
}

// Update modifies an existing student record. An empty exam number keeps the current one.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	req.ExamNumber = normalizeExamNumber(req.ExamNumber)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.findClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	student := detail.Student
	if req.ExamNumber != "" && req.ExamNumber != student.ExamNumber {
		if err := s.ensureUniqueExamNumber(ctx, req.ExamNumber, id); err != nil {
			return nil, err
		}
		student.ExamNumber = req.ExamNumber
	}
	student.Name = req.Name
	student.ClassID = req.ClassID
	student.PhotoURL = req.PhotoURL
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.cache.InvalidateResults(ctx)
	return &student, nil
}

// Delete removes a student with their scores and report card.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.InvalidateResults(ctx)
	return nil
}

func (s *StudentService) nextExamNumber(ctx context.Context, class *models.Class) (string, error) {
	count, err := s.repo.CountByClass(ctx, class.ID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class students")
	}
	now := s.now()
	for attempt := 1; attempt <= maxExamNumberAttempts; attempt++ {
		candidate := FormatExamNumber(class.Name, count+attempt, now)
		exists, err := s.repo.ExistsByExamNumber(ctx, candidate, "")
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate exam number")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "could not generate a free exam number")
}

func (s *StudentService) ensureUniqueExamNumber(ctx context.Context, examNumber, excludeID string) error {
	exists, err := s.repo.ExistsByExamNumber(ctx, examNumber, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate exam number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "exam number already used")
	}
	return nil
}

func (s *StudentService) findClass(ctx context.Context, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}
