package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, req service.ClassRequest) (*models.Class, error)
	Update(ctx context.Context, id string, req service.ClassRequest) (*models.Class, error)
	Delete(ctx context.Context, id string) error
	ListSubjects(ctx context.Context, classID string) ([]models.Subject, error)
	AssignSubjects(ctx context.Context, classID string, req service.AssignSubjectsRequest) error
}

type classResultsService interface {
	ClassResults(ctx context.Context, classID string, t grading.AssessmentType, actor *models.JWTClaims) (*dto.ClassResultsResponse, error)
}

// ClassHandler exposes class CRUD, subject assignment and class result endpoints.
type ClassHandler struct {
	service classService
	results classResultsService
	now     func() time.Time
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService, results classResultsService) *ClassHandler {
	return &ClassHandler{service: svc, results: results, now: time.Now}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param academicYear query string false "Filter by academic year"
// @Param term query string false "Filter by term"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	filter := models.ClassFilter{
		AcademicYear: strings.TrimSpace(c.Query("academicYear")),
		Term:         strings.TrimSpace(c.Query("term")),
		Search:       q.search,
		Page:         q.page,
		PageSize:     q.pageSize,
		SortBy:       q.sortBy,
		SortOrder:    q.sortOrder,
	}

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// AcademicYears godoc
// @Summary List selectable academic years
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/academic-years [get]
func (h *ClassHandler) AcademicYears(c *gin.Context) {
	response.JSON(c, http.StatusOK, service.AcademicYears(h.now()), nil)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	classDetail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classDetail, nil)
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.ClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.ClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects godoc
// @Summary List subjects taught in a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects [get]
func (h *ClassHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// AssignSubjects godoc
// @Summary Replace the subjects taught in a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.AssignSubjectsRequest true "Subject IDs"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects [put]
func (h *ClassHandler) AssignSubjects(c *gin.Context) {
	var req service.AssignSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject assignment payload"))
		return
	}
	classID := c.Param("id")
	if err := h.service.AssignSubjects(c.Request.Context(), classID, req); err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Results godoc
// @Summary Rank a class on one assessment type
// @Tags Results
// @Produce json
// @Param id path string true "Class ID"
// @Param type query string false "qa1, qa2, endOfTerm or overall (default)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/results [get]
func (h *ClassHandler) Results(c *gin.Context) {
	assessmentType, ok := grading.ParseAssessmentType(c.Query("type"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type must be one of qa1, qa2, endOfTerm, overall"))
		return
	}
	results, err := h.results.ClassResults(c.Request.Context(), c.Param("id"), assessmentType, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ResponseMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["type"] = assessmentType
	response.JSON(c, http.StatusOK, results, nil, meta)
}
