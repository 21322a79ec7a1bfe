// Package slides is the one-at-a-time viewer used for AI recommendations
// and for a professor's labs.
package slides

// Viewer holds an ordered sequence and a current index clamped to it.
// Moving past either end is a no-op.
type Viewer[T any] struct {
	items []T
	index int
}

// Load replaces the sequence and rewinds to the first item.
func (v *Viewer[T]) Load(items []T) {
	v.items = items
	v.index = 0
}

// Len returns the number of items.
func (v *Viewer[T]) Len() int { return len(v.items) }

// Index returns the current position.
func (v *Viewer[T]) Index() int { return v.index }

// Items returns the backing sequence.
func (v *Viewer[T]) Items() []T { return v.items }

// Current returns the item at the current index, or false when empty.
func (v *Viewer[T]) Current() (T, bool) {
	var zero T
	if len(v.items) == 0 {
		return zero, false
	}
	return v.items[v.index], true
}

// Next moves forward one item, stopping at the last.
func (v *Viewer[T]) Next() {
	if v.index < len(v.items)-1 {
		v.index++
	}
}

// Prev moves back one item, stopping at the first.
func (v *Viewer[T]) Prev() {
	if v.index > 0 {
		v.index--
	}
}

// HasPrev reports whether the previous control is enabled.
func (v *Viewer[T]) HasPrev() bool { return v.index > 0 }

// HasNext reports whether the next control is enabled.
func (v *Viewer[T]) HasNext() bool { return v.index < len(v.items)-1 }

// ShowControls reports whether navigation is rendered at all; a single
// item needs none.
func (v *Viewer[T]) ShowControls() bool { return len(v.items) > 1 }
