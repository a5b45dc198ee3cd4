package models

import "strings"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

type Pagination struct {
	Page      int       `form:"page"`
	Limit     int       `form:"limit"`
	SortBy    string    `form:"sort_by"`
	SortOrder SortOrder `form:"sort_order"`
}

// Normalize clamps page and limit and falls back to defaultSort when SortBy
// is not one of allowedSort.
func (p Pagination) Normalize(defaultSort string, allowedSort ...string) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}

	sortOK := false
	for _, field := range allowedSort {
		if p.SortBy == field {
			sortOK = true
			break
		}
	}
	if !sortOK {
		p.SortBy = defaultSort
	}

	switch SortOrder(strings.ToUpper(string(p.SortOrder))) {
	case SortAsc:
		p.SortOrder = SortAsc
	default:
		p.SortOrder = SortDesc
	}

	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

func NewPage[T any](items []T, total int, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}

// Paginate slices an in-memory list that is already sorted.
func Paginate[T any](all []T, p Pagination) Page[T] {
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return NewPage(all[start:end], len(all), p)
}
