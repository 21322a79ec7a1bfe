// Package paginate implements the grow-only "load more" window over a
// filtered view.
package paginate

// PageSize is the number of cards each page adds.
const PageSize = 12

// VisibleSlice returns the first page*size elements of view. The window
// always starts at index 0.
func VisibleSlice[T any](view []T, page, size int) []T {
	n := visibleCount(len(view), page, size)
	return view[:n]
}

// CanLoadMore reports whether the visible window is smaller than view.
func CanLoadMore[T any](view []T, page, size int) bool {
	return visibleCount(len(view), page, size) < len(view)
}

func visibleCount(total, page, size int) int {
	if page < 1 || size < 1 {
		return 0
	}
	if page > total/size+1 {
		return total
	}
	return min(page*size, total)
}

// Pager holds the current page of one browsing session.
type Pager struct {
	page int
}

// NewPager returns a pager on page 1.
func NewPager() Pager {
	return Pager{page: 1}
}

// Page returns the current 1-based page.
func (p *Pager) Page() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

// Reset returns to page 1.
func (p *Pager) Reset() {
	p.page = 1
}

// LoadMore advances one page if total elements are not all visible yet.
// It reports whether the page changed.
func (p *Pager) LoadMore(total int) bool {
	if visibleCount(total, p.Page(), PageSize) >= total {
		return false
	}
	p.page = p.Page() + 1
	return true
}

// Window returns the visible part of view and whether more can be loaded.
func Window[T any](p *Pager, view []T) ([]T, bool) {
	return VisibleSlice(view, p.Page(), PageSize), CanLoadMore(view, p.Page(), PageSize)
}
