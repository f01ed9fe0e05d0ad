package utilities

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is the paging block returned by list endpoints.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NormalizePage clamps limit to 1..MaxPageSize and page to
// 1..MaxPage(limit), and returns the matching row offset.
func NormalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if maxPage := MaxPage(limit); page > maxPage {
		page = maxPage
	}
	return page, limit, (page - 1) * limit
}

// MaxPage is the last page whose offset still fits in an int.
func MaxPage(limit int) int {
	return math.MaxInt / limit
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// QueryValue returns the first non-empty value among keys, so legacy
// parameter names can be accepted next to the current ones.
func QueryValue(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// QueryInt parses an optional integer parameter; fallback when absent.
func QueryInt(q url.Values, fallback int, keys ...string) (int, error) {
	v := QueryValue(q, keys...)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", keys[0])
	}
	return n, nil
}

// QueryID parses an optional positive id parameter; nil when absent.
func QueryID(q url.Values, keys ...string) (*int64, error) {
	v := QueryValue(q, keys...)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer", keys[0])
	}
	return &n, nil
}
