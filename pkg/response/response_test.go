package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWritesEnvelope(t *testing.T) {
	c, w := newContext()

	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"type": "qa1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Contains(t, env, "pagination")
	assert.Equal(t, "qa1", env["meta"].(map[string]interface{})["type"])
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	c, w := newContext()

	JSON(c, http.StatusOK, "ok", nil, map[string]interface{}{})

	assert.NotContains(t, w.Body.String(), "meta")
}

func TestErrorKeepsClientErrorsOffTheContext(t *testing.T) {
	c, w := newContext()

	Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, c.Errors)
	assert.Contains(t, w.Body.String(), "student not found")
}

func TestErrorRecordsServerFailures(t *testing.T) {
	c, w := newContext()

	Error(c, errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors.String(), "connection reset")
	assert.NotContains(t, w.Body.String(), "connection reset")
}
