// Package pager implements the fixed-size window used to page through a
// listing set.
package pager

// DefaultSize is the number of listings shown per page.
const DefaultSize = 6

// Window is a view of Size consecutive items starting at Start.
//
// Next never moves the window past the last full page, so on a set of 14
// items with size 6 the start goes 0, 6, 8 and stays at 8.
type Window struct {
	Size  int
	Start int
}

// New returns a window at the beginning of a set.
// A non-positive size falls back to DefaultSize.
func New(size int) Window {
	if size <= 0 {
		size = DefaultSize
	}
	return Window{Size: size}
}

// Next advances the window by one page over a set of length items.
func (w *Window) Next(length int) {
	w.Start = min(w.Start+w.Size, max(length-w.Size, 0))
}

// Prev moves the window back one page.
func (w *Window) Prev() {
	w.Start = max(w.Start-w.Size, 0)
}

// Reset moves the window back to the first page.
func (w *Window) Reset() {
	w.Start = 0
}

// HasNext reports whether Next would move the window.
func (w Window) HasNext(length int) bool {
	return w.Start+w.Size < length
}

// HasPrev reports whether Prev would move the window.
func (w Window) HasPrev() bool {
	return w.Start > 0
}

// Bounds returns the half-open range [lo, hi) of visible items, clamped to
// the set length.
func (w Window) Bounds(length int) (lo, hi int) {
	lo = min(max(w.Start, 0), length)
	hi = min(lo+w.Size, length)
	return lo, hi
}

// Slice returns the visible portion of items.
func Slice[T any](w Window, items []T) []T {
	lo, hi := w.Bounds(len(items))
	return items[lo:hi]
}
