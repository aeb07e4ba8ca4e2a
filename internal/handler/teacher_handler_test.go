package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type teacherServiceMock struct {
	filter  models.TeacherFilter
	created *service.CreateTeacherRequest
	deleted string
	err     error
}

func (m *teacherServiceMock) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	m.filter = filter
	return []models.Teacher{{ID: "t1", FullName: "Ada Obi"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (m *teacherServiceMock) Get(ctx context.Context, id string) (*models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Teacher{ID: id}, nil
}

func (m *teacherServiceMock) Create(ctx context.Context, req service.CreateTeacherRequest) (*models.Teacher, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = &req
	return &models.Teacher{ID: "t1", Email: req.Email, FullName: req.FullName, Active: true}, nil
}

func (m *teacherServiceMock) Update(ctx context.Context, id string, req service.UpdateTeacherRequest) (*models.Teacher, error) {
	return &models.Teacher{ID: id, Email: req.Email, FullName: req.FullName}, nil
}

func (m *teacherServiceMock) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return m.err
}

type teacherAssignmentMock struct {
	teacherID string
	req       service.AssignTeacherRequest
	removed   string
	err       error
}

func (m *teacherAssignmentMock) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	m.teacherID = teacherID
	return []models.TeacherAssignmentDetail{{TeacherAssignment: models.TeacherAssignment{ID: "a1", TeacherID: teacherID, ClassID: "c1", SubjectID: "math"}, ClassName: "Form 1", SubjectName: "Mathematics"}}, nil
}

func (m *teacherAssignmentMock) Assign(ctx context.Context, teacherID string, req service.AssignTeacherRequest) ([]models.TeacherAssignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.teacherID = teacherID
	m.req = req
	out := make([]models.TeacherAssignment, len(req.SubjectIDs))
	for i, id := range req.SubjectIDs {
		out[i] = models.TeacherAssignment{ID: "a" + id, TeacherID: teacherID, ClassID: req.ClassID, SubjectID: id}
	}
	return out, nil
}

func (m *teacherAssignmentMock) Remove(ctx context.Context, teacherID, assignmentID string) error {
	m.teacherID = teacherID
	m.removed = assignmentID
	return m.err
}

func TestTeacherHandlerListFilters(t *testing.T) {
	teachers := &teacherServiceMock{}
	handler := NewTeacherHandler(teachers, &teacherAssignmentMock{})
	c, w := newGinContext(http.MethodGet, "/teachers?search=ada&active=false&page=2&limit=5&sort=email&order=desc", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada", teachers.filter.Search)
	require.NotNil(t, teachers.filter.Active)
	assert.False(t, *teachers.filter.Active)
	assert.Equal(t, 2, teachers.filter.Page)
	assert.Equal(t, "email", teachers.filter.SortBy)
	assert.Equal(t, 1, decodeEnvelope(t, w).Pagination.TotalCount)
}

func TestTeacherHandlerCreate(t *testing.T) {
	teachers := &teacherServiceMock{}
	handler := NewTeacherHandler(teachers, &teacherAssignmentMock{})
	c, w := newGinContext(http.MethodPost, "/teachers", []byte(`{"email":"ada@school.test","full_name":"Ada Obi","subject_specialty":"Mathematics"}`))

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, teachers.created)
	require.NotNil(t, teachers.created.SubjectSpecialty)
	assert.Equal(t, "Mathematics", *teachers.created.SubjectSpecialty)

	c, w = newGinContext(http.MethodPost, "/teachers", []byte(`{"email":`))
	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	teachers.err = appErrors.Clone(appErrors.ErrConflict, "email already in use")
	c, w = newGinContext(http.MethodPost, "/teachers", []byte(`{"email":"ada@school.test","full_name":"Ada Obi"}`))
	handler.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTeacherHandlerCreateAssignment(t *testing.T) {
	assignments := &teacherAssignmentMock{}
	handler := NewTeacherHandler(&teacherServiceMock{}, assignments)
	c, w := newGinContext(http.MethodPost, "/teachers/t1/assignments", []byte(`{"class_id":"c1","subject_ids":["math","eng"]}`))
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.CreateAssignment(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "t1", assignments.teacherID)
	assert.Equal(t, []string{"math", "eng"}, assignments.req.SubjectIDs)
	var created []models.TeacherAssignment
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &created))
	assert.Len(t, created, 2)

	assignments.err = appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher inactive")
	c, w = newGinContext(http.MethodPost, "/teachers/t2/assignments", []byte(`{"class_id":"c1","subject_ids":["math"]}`))
	c.Params = gin.Params{{Key: "id", Value: "t2"}}
	handler.CreateAssignment(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestTeacherHandlerDeleteAssignment(t *testing.T) {
	assignments := &teacherAssignmentMock{}
	handler := NewTeacherHandler(&teacherServiceMock{}, assignments)
	c, _ := newGinContext(http.MethodDelete, "/teachers/t1/assignments/a1", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}, {Key: "aid", Value: "a1"}}

	handler.DeleteAssignment(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "a1", assignments.removed)
}

func TestTeacherHandlerMyAssignmentsUsesCaller(t *testing.T) {
	assignments := &teacherAssignmentMock{}
	handler := NewTeacherHandler(&teacherServiceMock{}, assignments)

	c, w := newGinContext(http.MethodGet, "/me/assignments", nil)
	handler.MyAssignments(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/me/assignments", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t7", Role: models.RoleTeacher})
	handler.MyAssignments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t7", assignments.teacherID)
}
