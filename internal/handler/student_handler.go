package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, req service.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

type assessmentService interface {
	ListForStudent(ctx context.Context, studentID string, actor *models.JWTClaims) (*dto.StudentAssessments, error)
	Save(ctx context.Context, studentID string, req dto.SaveAssessmentsRequest, actor *models.JWTClaims) ([]models.Assessment, error)
	SaveReportCard(ctx context.Context, studentID string, req dto.ReportCardRequest, actor *models.JWTClaims) (*models.ReportCard, error)
}

// StudentHandler manages student endpoints including score entry.
type StudentHandler struct {
	service     studentService
	assessments assessmentService
}

// NewStudentHandler creates a new handler instance.
func NewStudentHandler(svc studentService, assessments assessmentService) *StudentHandler {
	return &StudentHandler{service: svc, assessments: assessments}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param classId query string false "Filter by class"
// @Param search query string false "Name or exam number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	filter := models.StudentFilter{
		ClassID:   c.Query("classId"),
		Search:    q.search,
		Page:      q.page,
		PageSize:  q.pageSize,
		SortBy:    q.sortBy,
		SortOrder: q.sortOrder,
	}

	students, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Description The exam number is generated from the class name when omitted.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assessments godoc
// @Summary List a student's scores for every subject of the class
// @Tags Assessments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/assessments [get]
func (h *StudentHandler) Assessments(c *gin.Context) {
	result, err := h.assessments.ListForStudent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveAssessments godoc
// @Summary Save a student's scores
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.SaveAssessmentsRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/assessments [put]
func (h *StudentHandler) SaveAssessments(c *gin.Context) {
	var req dto.SaveAssessmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessments payload"))
		return
	}
	saved, err := h.assessments.Save(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil, map[string]interface{}{"saved": len(saved)})
}

// SaveReportCard godoc
// @Summary Save attendance and teacher remarks
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.ReportCardRequest true "Report card data"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/report-card [put]
func (h *StudentHandler) SaveReportCard(c *gin.Context) {
	var req dto.ReportCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report card payload"))
		return
	}
	card, err := h.assessments.SaveReportCard(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}
