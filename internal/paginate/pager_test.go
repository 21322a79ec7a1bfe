package paginate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestVisibleSliceLength(t *testing.T) {
	for _, total := range []int{0, 1, 11, 12, 13, 24, 25, 100} {
		for page := 1; page <= 10; page++ {
			view := seq(total)
			got := VisibleSlice(view, page, PageSize)
			want := min(page*PageSize, total)
			assert.Len(t, got, want, "total=%d page=%d", total, page)
			assert.Equal(t, len(got) < total, CanLoadMore(view, page, PageSize), "total=%d page=%d", total, page)
			if len(got) > 0 {
				assert.Equal(t, 0, got[0], "window starts at index 0")
			}
		}
	}
}

func TestVisibleSliceHugePage(t *testing.T) {
	view := seq(5)
	assert.Len(t, VisibleSlice(view, int(^uint(0)>>1), PageSize), 5)
	assert.Empty(t, VisibleSlice(view, 0, PageSize))
}

func TestLoadMoreScenario(t *testing.T) {
	view := seq(25)
	p := NewPager()

	visible, more := Window(&p, view)
	assert.Len(t, visible, 12)
	assert.True(t, more)

	assert.True(t, p.LoadMore(len(view)))
	visible, more = Window(&p, view)
	assert.Len(t, visible, 24)
	assert.True(t, more)

	assert.True(t, p.LoadMore(len(view)))
	visible, more = Window(&p, view)
	assert.Len(t, visible, 25)
	assert.False(t, more)

	assert.False(t, p.LoadMore(len(view)), "further load-more is suppressed")
	assert.Equal(t, 3, p.Page())
}

func TestResetReturnsToFirstPage(t *testing.T) {
	p := NewPager()
	p.LoadMore(100)
	p.LoadMore(100)
	assert.Equal(t, 3, p.Page())

	p.Reset()
	assert.Equal(t, 1, p.Page())
}

func TestZeroPagerBehavesAsFirstPage(t *testing.T) {
	var p Pager
	assert.Equal(t, 1, p.Page())
	visible, more := Window(&p, seq(3))
	assert.Len(t, visible, 3)
	assert.False(t, more)
}
