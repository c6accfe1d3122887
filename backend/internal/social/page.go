package social

import (
	"math"

	apperrors "mercury/backend/pkg/errors"
)

// Page is a zero-based offset window
type Page struct {
	Index int64
	Size  int64
}

// Validate rejects negative indexes, empty pages and windows whose end
// would overflow int64.
func (p Page) Validate() error {
	fields := map[string]string{}
	if p.Index < 0 {
		fields["page"] = "must not be negative"
	}
	if p.Size < 1 {
		fields["maxUsers"] = "must be positive"
	}
	if len(fields) == 0 && p.Index >= math.MaxInt64/p.Size {
		fields["page"] = "out of range"
	}
	if len(fields) > 0 {
		return apperrors.NewValidation(fields)
	}
	return nil
}

// Skip is the number of rows before the window
func (p Page) Skip() int64 {
	return p.Index * p.Size
}

// Limit is the window size
func (p Page) Limit() int64 {
	return p.Size
}

// End is the number of rows needed to fill the window from the start
func (p Page) End() int64 {
	return (p.Index + 1) * p.Size
}

// PageCount is ceil(total / size) without the overflow of (total + size - 1) / size
func PageCount(total, size int64) int64 {
	if size <= 0 || total <= 0 {
		return 0
	}
	count := total / size
	if total%size != 0 {
		count++
	}
	return count
}

// Paged is one window of a listing together with its totals
type Paged[T any] struct {
	Items     []T   `json:"items"`
	Total     int64 `json:"total"`
	PageCount int64 `json:"pageCount"`
}

// NewPaged builds a Paged from a window and the live total count
func NewPaged[T any](items []T, total int64, page Page) Paged[T] {
	if items == nil {
		items = []T{}
	}
	return Paged[T]{
		Items:     items,
		Total:     total,
		PageCount: PageCount(total, page.Size),
	}
}

// window returns items[skip : skip+limit] clamped to the slice
func window[T any](items []T, page Page) []T {
	skip := page.Skip()
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := skip + page.Limit()
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[skip:end]
}
