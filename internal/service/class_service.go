package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ExistsByName(ctx context.Context, name, academicYear, term, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	CountStudents(ctx context.Context, classID string) (int, error)
}

type classSubjectRepo interface {
	ListSubjects(ctx context.Context, classID string) ([]models.Subject, error)
	ReplaceAssignments(ctx context.Context, classID string, subjectIDs []string) error
}

// ClassRequest captures the create and update payload.
type ClassRequest struct {
	Name         string `json:"name" validate:"required,max=80"`
	AcademicYear string `json:"academic_year" validate:"required,max=20"`
	Term         string `json:"term" validate:"required,max=40"`
	ClassCode    string `json:"class_code" validate:"omitempty,max=40"`
}

// AssignSubjectsRequest replaces the subjects taught in a class.
type AssignSubjectsRequest struct {
	SubjectIDs []string `json:"subject_ids" validate:"dive,required"`
}

// ClassService coordinates class operations.
type ClassService struct {
	repo        classRepository
	subjectRepo subjectRepository
	mappingRepo classSubjectRepo
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, subjectRepo subjectRepository, mappingRepo classSubjectRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, subjectRepo: subjectRepo, mappingRepo: mappingRepo, cache: cache, validator: validate, logger: logger}
}

// AcademicYears lists the academic years offered when creating a class: two before and two after now.
func AcademicYears(now time.Time) []string {
	current := now.Year()
	years := make([]string, 0, 5)
	for offset := -2; offset <= 2; offset++ {
		year := current + offset
		years = append(years, fmt.Sprintf("%d/%d", year, year+1))
	}
	return years
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed class information.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// Create adds a new class. A class name is unique within an academic year and term.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.Class, error) {
	req = normalizeClassRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := s.ensureUniqueName(ctx, req, ""); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:         req.Name,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		ClassCode:    req.ClassCode,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.cache.InvalidateResults(ctx)
	return class, nil
}

// Update modifies a class record.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.Class, error) {
	req = normalizeClassRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.findClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req, id); err != nil {
		return nil, err
	}

	class.Name = req.Name
	class.AcademicYear = req.AcademicYear
	class.Term = req.Term
	class.ClassCode = req.ClassCode

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.cache.InvalidateResults(ctx)
	return class, nil
}

// Delete removes a class that no longer has students.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.findClass(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "class still has students")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.cache.InvalidateResults(ctx)
	return nil
}

// ListSubjects returns the subjects taught in the class.
func (s *ClassService) ListSubjects(ctx context.Context, classID string) ([]models.Subject, error) {
	if _, err := s.findClass(ctx, classID); err != nil {
		return nil, err
	}
	subjects, err := s.mappingRepo.ListSubjects(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	return subjects, nil
}

// AssignSubjects replaces the class subject assignments.
func (s *ClassService) AssignSubjects(ctx context.Context, classID string, req AssignSubjectsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.findClass(ctx, classID); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(req.SubjectIDs))
	ids := make([]string, 0, len(req.SubjectIDs))
	for _, subjectID := range req.SubjectIDs {
		if _, ok := seen[subjectID]; ok {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate subject in assignments")
		}
		seen[subjectID] = struct{}{}

		if _, err := s.subjectRepo.FindByID(ctx, subjectID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", subjectID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject")
		}
		ids = append(ids, subjectID)
	}

	if err := s.mappingRepo.ReplaceAssignments(ctx, classID, ids); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign class subjects")
	}
	s.cache.InvalidateResults(ctx)
	s.logger.Info("class subjects replaced", zap.String("class_id", classID), zap.Int("subjects", len(ids)))
	return nil
}

func (s *ClassService) findClass(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func (s *ClassService) ensureUniqueName(ctx context.Context, req ClassRequest, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, req.Name, req.AcademicYear, req.Term, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "class already exists for this academic year and term")
	}
	return nil
}

func normalizeClassRequest(req ClassRequest) ClassRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.AcademicYear = strings.TrimSpace(req.AcademicYear)
	req.Term = strings.TrimSpace(req.Term)
	req.ClassCode = strings.ToUpper(strings.TrimSpace(req.ClassCode))
	return req
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
