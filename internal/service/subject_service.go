package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type subjectAssigner interface {
	Assign(ctx context.Context, classID, subjectID string) error
}

// SubjectRequest captures fields for creating or updating subjects. ClassID, when set,
// also assigns the subject to that class.
type SubjectRequest struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Code    *string `json:"code" validate:"omitempty,max=20"`
	ClassID string  `json:"class_id" validate:"omitempty"`
}

// SubjectService handles subject domain workflows.
type SubjectService struct {
	repo      subjectRepository
	classes   classLookup
	assigner  subjectAssigner
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, classes classLookup, assigner subjectAssigner, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, assigner: assigner, cache: cache, validator: validate, logger: logger}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create inserts a new subject with a unique name.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	req = normalizeSubjectRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}
	if err := s.ensureClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	subject := &models.Subject{Name: req.Name, Code: req.Code}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	if err := s.assign(ctx, req.ClassID, subject.ID); err != nil {
		return nil, err
	}
	s.cache.InvalidateResults(ctx)
	return subject, nil
}

// Update modifies subject details.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	req = normalizeSubjectRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}
	if err := s.ensureClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	subject.Name = req.Name
	subject.Code = req.Code
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	if err := s.assign(ctx, req.ClassID, subject.ID); err != nil {
		return nil, err
	}
	s.cache.InvalidateResults(ctx)
	return subject, nil
}

// Delete removes a subject together with its class assignments and scores.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.cache.InvalidateResults(ctx)
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}

func (s *SubjectService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject name already exists")
	}
	return nil
}

func (s *SubjectService) ensureClass(ctx context.Context, classID string) error {
	if classID == "" || s.classes == nil {
		return nil
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

func (s *SubjectService) assign(ctx context.Context, classID, subjectID string) error {
	if classID == "" || s.assigner == nil {
		return nil
	}
	if err := s.assigner.Assign(ctx, classID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subject to class")
	}
	return nil
}

func normalizeSubjectRequest(req SubjectRequest) SubjectRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.ClassID = strings.TrimSpace(req.ClassID)
	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if code == "" {
			req.Code = nil
		} else {
			req.Code = &code
		}
	}
	return req
}
