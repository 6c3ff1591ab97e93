package domain

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams carries page index/size values from the transport layer to the repo layer.
// PageIndex is 1-indexed. PageSize is capped at 100 by NewPaginationParams.
type PaginationParams struct {
	// PageIndex is the current page number, starting at 1.
	PageIndex int
	// PageSize is the maximum number of items to return.
	PageSize int
}

// NewPaginationParams builds a PaginationParams from optional query params.
// Nil pointers fall back to sane defaults (page=1, size=20).
// The size is capped at 100 to prevent runaway queries.
func NewPaginationParams(pageIndex, pageSize *int) PaginationParams {
	p := PaginationParams{PageIndex: 1, PageSize: defaultPageSize}
	if pageIndex != nil && *pageIndex >= 1 {
		p.PageIndex = *pageIndex
	}
	if pageSize != nil && *pageSize >= 1 {
		p.PageSize = min(*pageSize, maxPageSize)
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PaginationParams) Offset() int {
	return (p.PageIndex - 1) * p.PageSize
}

// Page is one page of a query result together with the total number of
// matching rows across all pages.
type Page[T any] struct {
	Results    []T
	TotalCount int64
	PageIndex  int
	PageSize   int
}

// NewPage assembles a Page for the given params. A nil results slice is
// replaced with an empty one so callers can range and encode it safely.
func NewPage[T any](results []T, total int64, p PaginationParams) Page[T] {
	if results == nil {
		results = []T{}
	}
	return Page[T]{
		Results:    results,
		TotalCount: total,
		PageIndex:  p.PageIndex,
		PageSize:   p.PageSize,
	}
}
