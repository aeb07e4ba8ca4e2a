package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// listQuery carries the paging, sorting and search parameters shared by list endpoints.
type listQuery struct {
	page      int
	pageSize  int
	sortBy    string
	sortOrder string
	search    string
}

// parseListQuery reads page, limit, sort, order and search. Malformed numbers keep the
// defaults; the repositories clamp the page size.
func parseListQuery(c *gin.Context) listQuery {
	q := listQuery{
		page:      1,
		pageSize:  20,
		sortBy:    c.Query("sort"),
		sortOrder: c.Query("order"),
		search:    strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		q.page = page
	}
	if size, err := strconv.Atoi(c.Query("limit")); err == nil && size > 0 {
		q.pageSize = size
	}
	return q
}
