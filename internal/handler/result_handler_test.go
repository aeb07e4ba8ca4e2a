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
	"github.com/noah-isme/sma-results-api/internal/grading"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type resultLookupMock struct {
	report *dto.StudentReport
	lookup string
}

func (m *resultLookupMock) LookupByExamNumber(ctx context.Context, examNumber string) (*dto.StudentReport, error) {
	m.lookup = examNumber
	if m.report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no student found with that exam number")
	}
	return m.report, nil
}

func (m *resultLookupMock) ReportCard(ctx context.Context, examNumber string) (*dto.StudentReport, error) {
	report, err := m.LookupByExamNumber(ctx, examNumber)
	if err != nil {
		return nil, err
	}
	if !report.Availability.Available {
		return nil, appErrors.Clone(appErrors.ErrReportUnavailable, "report card not available: "+report.Availability.Reason)
	}
	return report, nil
}

func TestResultHandlerLookup(t *testing.T) {
	mock := &resultLookupMock{report: &dto.StudentReport{
		Student:      dto.ReportStudent{ExamNumber: "26-1001", Name: "Ada"},
		Availability: grading.Availability{Available: true},
		TotalScore:   140,
		MaxTotal:     200,
		OverallGrade: grading.Grade("B"),
	}}
	handler := NewResultHandler(mock)
	c, w := newGinContext(http.MethodGet, "/results/26-1001", nil)
	c.Params = gin.Params{{Key: "examNumber", Value: "26-1001"}}

	handler.Lookup(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "26-1001", mock.lookup)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var report dto.StudentReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Equal(t, 140.0, report.TotalScore)
	assert.Equal(t, grading.Grade("B"), report.OverallGrade)
}

func TestResultHandlerLookupNotFound(t *testing.T) {
	handler := NewResultHandler(&resultLookupMock{})
	c, w := newGinContext(http.MethodGet, "/results/00-0000", nil)
	c.Params = gin.Params{{Key: "examNumber", Value: "00-0000"}}

	handler.Lookup(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, w).Error.Code)
}

func TestResultHandlerReportCardUnavailable(t *testing.T) {
	mock := &resultLookupMock{report: &dto.StudentReport{Availability: grading.Availability{Reason: "no scores have been entered"}}}
	handler := NewResultHandler(mock)
	c, w := newGinContext(http.MethodGet, "/results/26-1003/report-card", nil)
	c.Params = gin.Params{{Key: "examNumber", Value: "26-1003"}}

	handler.ReportCard(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "REPORT_UNAVAILABLE", env.Error.Code)
	assert.Contains(t, env.Error.Message, "no scores have been entered")
}
