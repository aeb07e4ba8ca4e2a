package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type resultLookupService interface {
	LookupByExamNumber(ctx context.Context, examNumber string) (*dto.StudentReport, error)
	ReportCard(ctx context.Context, examNumber string) (*dto.StudentReport, error)
}

// ResultHandler serves the public results lookup used by parents.
type ResultHandler struct {
	results resultLookupService
}

// NewResultHandler constructs handler.
func NewResultHandler(results resultLookupService) *ResultHandler {
	return &ResultHandler{results: results}
}

// Lookup godoc
// @Summary Look up a student's results by exam number
// @Tags Results
// @Produce json
// @Param examNumber path string true "Exam number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /results/{examNumber} [get]
func (h *ResultHandler) Lookup(c *gin.Context) {
	report, err := h.results.LookupByExamNumber(c.Request.Context(), c.Param("examNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, middleware.ResponseMeta(c))
}

// ReportCard godoc
// @Summary Get a printable report card
// @Description Fails with 422 while the report card cannot be issued.
// @Tags Results
// @Produce json
// @Param examNumber path string true "Exam number"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /results/{examNumber}/report-card [get]
func (h *ResultHandler) ReportCard(c *gin.Context) {
	report, err := h.results.ReportCard(c.Request.Context(), c.Param("examNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, middleware.ResponseMeta(c))
}
