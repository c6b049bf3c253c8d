package common

import (
	"net/http"
	"strconv"
)

// Pagination is the paging block appended to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads page and limit query parameters, ignoring anything
// non-numeric or non-positive. Upper bounds are enforced by the services.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page, perPage = 1, defaultPerPage
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		perPage = v
	}
	return page, perPage
}
