package query

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int range.
	MaxPage = 1 << 20
)

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	Limit         int  `json:"limit"`
	NumberOfPages int  `json:"numberOfPages"`
	Next          *int `json:"next,omitempty"`
	Prev          *int `json:"prev,omitempty"`
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = DefaultLimit
	}
	if size > MaxLimit {
		size = MaxLimit
	}

	offset = (page - 1) * size
	limit = size
	return offset, limit
}

// Paginate describes the page window for total matching records.
func Paginate(page, size int, total int64) Pagination {
	offset, limit := Calculate(page, size)
	page = offset/limit + 1

	p := Pagination{
		CurrentPage:   page,
		Limit:         limit,
		NumberOfPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	if int64(offset+limit) < total {
		next := page + 1
		p.Next = &next
	}
	if offset > 0 {
		prev := page - 1
		p.Prev = &prev
	}
	return p
}
