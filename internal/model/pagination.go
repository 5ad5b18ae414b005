package model

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams is a 1-based page request
type PageParams struct {
	Page     int
	PageSize int
}

// Normalize clamps page and size into their allowed ranges
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip
func (p PageParams) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Pagination describes the page returned alongside a collection
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination builds pagination info for total matching rows
func NewPagination(p PageParams, total int) *Pagination {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + n.PageSize - 1) / n.PageSize
	}
	return &Pagination{
		Page:       n.Page,
		PageSize:   n.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}

// Page is one page of results
type Page[T any] struct {
	Items []T
	Total int
}
