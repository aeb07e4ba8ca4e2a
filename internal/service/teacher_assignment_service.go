package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type teacherAssignmentRepo interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error)
	Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error)
	SubjectIDsForClass(ctx context.Context, teacherID, classID string) ([]string, error)
	Create(ctx context.Context, assignment *models.TeacherAssignment) error
	Delete(ctx context.Context, teacherID, assignmentID string) error
}

// AssignTeacherRequest assigns a teacher to one or more subjects of a class.
type AssignTeacherRequest struct {
	ClassID    string   `json:"class_id" validate:"required"`
	SubjectIDs []string `json:"subject_ids" validate:"required,min=1,dive,required"`
}

// TeacherAssignmentService manages class assignments and answers access checks for
// teacher-scoped operations.
type TeacherAssignmentService struct {
	teachers    teacherRepository
	classes     classLookup
	subjects    classSubjectLister
	assignments teacherAssignmentRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherAssignmentService creates a service instance.
func NewTeacherAssignmentService(
	teachers teacherRepository,
	classes classLookup,
	subjects classSubjectLister,
	assignments teacherAssignmentRepo,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeacherAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		teachers:    teachers,
		classes:     classes,
		subjects:    subjects,
		assignments: assignments,
		validator:   validate,
		logger:      logger,
	}
}

// ListByTeacher returns assignments for the teacher.
func (s *TeacherAssignmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	if _, err := s.loadTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign maps the teacher to each requested subject of the class. Pairs that already
// exist are skipped; the created assignments are returned.
func (s *TeacherAssignmentService) Assign(ctx context.Context, teacherID string, req AssignTeacherRequest) ([]models.TeacherAssignment, error) {
	req.ClassID = strings.TrimSpace(req.ClassID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	teacher, err := s.loadTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher inactive")
	}
	if err := s.ensureClassSubjects(ctx, req.ClassID, req.SubjectIDs); err != nil {
		return nil, err
	}

	created := make([]models.TeacherAssignment, 0, len(req.SubjectIDs))
	seen := make(map[string]struct{}, len(req.SubjectIDs))
	for _, subjectID := range req.SubjectIDs {
		if _, dup := seen[subjectID]; dup {
			continue
		}
		seen[subjectID] = struct{}{}

		exists, err := s.assignments.Exists(ctx, teacherID, req.ClassID, subjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment uniqueness")
		}
		if exists {
			continue
		}
		assignment := models.TeacherAssignment{TeacherID: teacherID, ClassID: req.ClassID, SubjectID: subjectID}
		if err := s.assignments.Create(ctx, &assignment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
		}
		created = append(created, assignment)
	}
	if len(created) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already assigned to these subjects")
	}
	s.logger.Info("teacher assigned", zap.String("teacher_id", teacherID), zap.String("class_id", req.ClassID), zap.Int("subjects", len(created)))
	return created, nil
}

// Remove deletes an assignment.
func (s *TeacherAssignmentService) Remove(ctx context.Context, teacherID, assignmentID string) error {
	if _, err := s.loadTeacher(ctx, teacherID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, teacherID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// AuthorizeClass lets administrators through and limits teachers to classes they
// hold at least one assignment in.
func (s *TeacherAssignmentService) AuthorizeClass(ctx context.Context, actor *models.JWTClaims, classID string) error {
	_, err := s.assignedSubjects(ctx, actor, classID)
	return err
}

// AuthorizeSubjects additionally requires a teacher to be assigned to every subject.
func (s *TeacherAssignmentService) AuthorizeSubjects(ctx context.Context, actor *models.JWTClaims, classID string, subjectIDs []string) error {
	assigned, err := s.assignedSubjects(ctx, actor, classID)
	if err != nil || assigned == nil {
		return err
	}
	for _, subjectID := range subjectIDs {
		if _, ok := assigned[subjectID]; !ok {
			return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not assigned to subject %s in this class", subjectID))
		}
	}
	return nil
}

// assignedSubjects returns nil for administrators and the teacher's subject set otherwise.
func (s *TeacherAssignmentService) assignedSubjects(ctx context.Context, actor *models.JWTClaims, classID string) (map[string]struct{}, error) {
	scoped, err := assignmentScoped(actor)
	if err != nil || !scoped {
		return nil, err
	}
	subjectIDs, err := s.assignments.SubjectIDsForClass(ctx, actor.UserID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class access")
	}
	if len(subjectIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}
	assigned := make(map[string]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		assigned[id] = struct{}{}
	}
	return assigned, nil
}

func (s *TeacherAssignmentService) loadTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

func (s *TeacherAssignmentService) ensureClassSubjects(ctx context.Context, classID string, subjectIDs []string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	taught, err := s.subjects.ListSubjects(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	known := make(map[string]struct{}, len(taught))
	for _, subject := range taught {
		known[subject.ID] = struct{}{}
	}
	for _, id := range subjectIDs {
		if _, ok := known[id]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s is not taught in this class", id))
		}
	}
	return nil
}

// assignmentScoped reports whether actor's access depends on teacher assignments.
// Administrators are unscoped; a missing actor or unknown role is rejected.
func assignmentScoped(actor *models.JWTClaims) (bool, error) {
	if actor == nil {
		return false, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return false, nil
	case models.RoleTeacher:
		return true, nil
	default:
		return false, appErrors.Clone(appErrors.ErrForbidden, "role not permitted")
	}
}

// requireUnscoped admits only actors whose access does not depend on assignments.
func requireUnscoped(actor *models.JWTClaims) error {
	scoped, err := assignmentScoped(actor)
	if err != nil {
		return err
	}
	if scoped {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}
	return nil
}
