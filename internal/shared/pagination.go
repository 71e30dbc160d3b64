package shared

import (
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultPerPage is the page size used when the caller names none.
	DefaultPerPage = 50
	// MaxPerPage caps the page size a caller may request.
	MaxPerPage = 200
)

// PageRequest is the clamped paging input parsed from a listing query.
type PageRequest struct {
	Page    int
	PerPage int
}

// ParsePageRequest reads page/per_page query values. Missing, malformed or
// out-of-range values fall back to the defaults rather than erroring.
func ParsePageRequest(query url.Values) PageRequest {
	page := 1
	if raw := query.Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	perPage := DefaultPerPage
	if raw := query.Get("per_page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			perPage = v
		}
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Limit returns the row limit for the underlying query.
func (p PageRequest) Limit() int {
	if p.PerPage <= 0 {
		return DefaultPerPage
	}
	return p.PerPage
}

// Offset returns the row offset for the underlying query.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Pagination is the paging metadata echoed back alongside listing rows.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the metadata for a completed listing.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Meta builds the metadata for this page given the listing's total count.
func (p PageRequest) Meta(total int) Pagination {
	return NewPagination(p.Page, p.PerPage, total)
}
