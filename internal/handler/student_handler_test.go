package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type studentServiceMock struct {
	created *service.StudentRequest
	getErr  error
}

func (m *studentServiceMock) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	return []models.StudentDetail{{Student: models.Student{ID: "s1", ClassID: filter.ClassID}}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *studentServiceMock) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.StudentDetail{Student: models.Student{ID: id}}, nil
}

func (m *studentServiceMock) Create(ctx context.Context, req service.StudentRequest) (*models.Student, error) {
	m.created = &req
	return &models.Student{ID: "s9", Name: req.Name, ClassID: req.ClassID, ExamNumber: "26-1001"}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error) {
	return &models.Student{ID: id, Name: req.Name}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

type assessmentServiceMock struct {
	studentID string
	actor     *models.JWTClaims
	saved     dto.SaveAssessmentsRequest
	card      dto.ReportCardRequest
	saveErr   error
}

func (m *assessmentServiceMock) ListForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.StudentAssessments, error) {
	m.studentID = studentID
	m.actor = actor
	return &dto.StudentAssessments{Student: models.StudentDetail{Student: models.Student{ID: studentID}}}, nil
}

func (m *assessmentServiceMock) Save(ctx context.Context, studentID string, req dto.SaveAssessmentsRequest, actor *models.JWTClaims) ([]models.Assessment, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.studentID = studentID
	m.actor = actor
	m.saved = req
	out := make([]models.Assessment, len(req.Assessments))
	for i, in := range req.Assessments {
		out[i] = models.Assessment{StudentID: studentID, SubjectID: in.SubjectID, QA1: in.QA1}
	}
	return out, nil
}

func (m *assessmentServiceMock) SaveReportCard(ctx context.Context, studentID string, req dto.ReportCardRequest, actor *models.JWTClaims) (*models.ReportCard, error) {
	m.studentID = studentID
	m.actor = actor
	m.card = req
	return &models.ReportCard{StudentID: studentID, DaysPresent: req.DaysPresent}, nil
}

func TestStudentHandlerCreateWithoutExamNumber(t *testing.T) {
	students := &studentServiceMock{}
	handler := NewStudentHandler(students, &assessmentServiceMock{})
	c, w := newGinContext(http.MethodPost, "/students", []byte(`{"name":"Ada Obi","class_id":"c1"}`))

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, students.created)
	assert.Empty(t, students.created.ExamNumber)
	var created models.Student
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &created))
	assert.Equal(t, "26-1001", created.ExamNumber)
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")}, &assessmentServiceMock{})
	c, w := newGinContext(http.MethodGet, "/students/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "student not found", decodeEnvelope(t, w).Error.Message)
}

func TestStudentHandlerListPassesClassFilter(t *testing.T) {
	handler := NewStudentHandler(&studentServiceMock{}, &assessmentServiceMock{})
	c, w := newGinContext(http.MethodGet, "/students?classId=c1", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var students []models.StudentDetail
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &students))
	require.Len(t, students, 1)
	assert.Equal(t, "c1", students[0].ClassID)
}

func TestStudentHandlerSaveAssessments(t *testing.T) {
	assessments := &assessmentServiceMock{}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	body := []byte(`{"assessments":[{"subject_id":"math","qa1":75,"qa2_absent":true},{"subject_id":"eng","end_of_term":null}]}`)
	c, w := newGinContext(http.MethodPut, "/students/s1/assessments", body)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.SaveAssessments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", assessments.studentID)
	require.Len(t, assessments.saved.Assessments, 2)
	assert.Equal(t, 75.0, *assessments.saved.Assessments[0].QA1)
	assert.True(t, assessments.saved.Assessments[0].QA2Absent)
	assert.Nil(t, assessments.saved.Assessments[1].EndOfTerm)
	assert.Equal(t, float64(2), decodeEnvelope(t, w).Meta["saved"])
}

func TestStudentHandlerSaveAssessmentsInvalidBody(t *testing.T) {
	assessments := &assessmentServiceMock{}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	c, w := newGinContext(http.MethodPut, "/students/s1/assessments", []byte(`{"assessments":"math"}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.SaveAssessments(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, assessments.studentID)
}

func TestStudentHandlerSaveAssessmentsServiceError(t *testing.T) {
	assessments := &assessmentServiceMock{saveErr: appErrors.Clone(appErrors.ErrValidation, "subject eng is not taught in this class")}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	c, w := newGinContext(http.MethodPut, "/students/s1/assessments", []byte(`{"assessments":[{"subject_id":"eng"}]}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.SaveAssessments(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error.Message, "not taught")
}

func TestStudentHandlerAssessments(t *testing.T) {
	assessments := &assessmentServiceMock{}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	c, w := newGinContext(http.MethodGet, "/students/s1/assessments", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Assessments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", assessments.studentID)
}

func TestStudentHandlerSaveReportCard(t *testing.T) {
	assessments := &assessmentServiceMock{}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	c, w := newGinContext(http.MethodPut, "/students/s1/report-card", []byte(`{"days_present":57,"days_absent":3,"teacher_remarks":"Steady progress"}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.SaveReportCard(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 57, assessments.card.DaysPresent)
	require.NotNil(t, assessments.card.TeacherRemarks)
	assert.Equal(t, "Steady progress", *assessments.card.TeacherRemarks)
}

func TestStudentHandlerSaveAssessmentsPassesCaller(t *testing.T) {
	assessments := &assessmentServiceMock{}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	c, w := newGinContext(http.MethodPut, "/students/s1/assessments", []byte(`{"assessments":[{"subject_id":"math","qa1":70}]}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	claims := &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
	c.Set(middleware.ContextUserKey, claims)

	handler.SaveAssessments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Same(t, claims, assessments.actor)
}

func TestStudentHandlerSaveAssessmentsForbidden(t *testing.T) {
	assessments := &assessmentServiceMock{saveErr: appErrors.Clone(appErrors.ErrForbidden, "not assigned to subject math in this class")}
	handler := NewStudentHandler(&studentServiceMock{}, assessments)
	c, w := newGinContext(http.MethodPut, "/students/s1/assessments", []byte(`{"assessments":[{"subject_id":"math","qa1":70}]}`))
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.SaveAssessments(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, w).Error.Code)
}
