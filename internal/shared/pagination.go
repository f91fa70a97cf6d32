package shared

import "math"

// Paginated is the list envelope returned by collection endpoints.
type Paginated[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPaginated computes pagination metadata for one page of items.
func NewPaginated[T any](items []T, page, limit, total int) Paginated[T] {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	if items == nil {
		items = []T{}
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Paginated[T]{Data: items, Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}
