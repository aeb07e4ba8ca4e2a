package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseListQueryDefaults(t *testing.T) {
	c, _ := newGinContext(http.MethodGet, "/students?page=-1&limit=abc&sort=name&order=desc", nil)

	q := parseListQuery(c)

	assert.Equal(t, 1, q.page)
	assert.Equal(t, 20, q.pageSize)
	assert.Equal(t, "name", q.sortBy)
	assert.Equal(t, "desc", q.sortOrder)
	assert.Empty(t, q.search)
}
