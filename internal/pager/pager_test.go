package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_NextClampsToLastFullPage(t *testing.T) {
	w := New(DefaultSize)
	assert.Equal(t, 0, w.Start)

	w.Next(14)
	assert.Equal(t, 6, w.Start)

	w.Next(14)
	assert.Equal(t, 8, w.Start)

	w.Next(14)
	assert.Equal(t, 8, w.Start)
	assert.False(t, w.HasNext(14))
}

func TestWindow_Prev(t *testing.T) {
	w := Window{Size: 6, Start: 8}

	w.Prev()
	assert.Equal(t, 2, w.Start)

	w.Prev()
	assert.Equal(t, 0, w.Start)
	assert.False(t, w.HasPrev())

	w.Prev()
	assert.Equal(t, 0, w.Start)
}

func TestWindow_ShortSet(t *testing.T) {
	w := New(6)
	w.Next(4)
	assert.Equal(t, 0, w.Start)

	lo, hi := w.Bounds(4)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 4, hi)
}

func TestWindow_StartNeverNegative(t *testing.T) {
	for length := range 20 {
		w := New(6)
		for range 5 {
			w.Next(length)
			assert.GreaterOrEqual(t, w.Start, 0)
			assert.LessOrEqual(t, w.Start, max(length-6, 0))
		}
		for range 5 {
			w.Prev()
			assert.GreaterOrEqual(t, w.Start, 0)
		}
	}
}

func TestNew_DefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSize, New(0).Size)
	assert.Equal(t, 3, New(3).Size)
}

func TestSlice(t *testing.T) {
	items := make([]int, 14)
	for i := range items {
		items[i] = i
	}

	w := New(6)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, Slice(w, items))

	w.Next(len(items))
	w.Next(len(items))
	assert.Equal(t, []int{8, 9, 10, 11, 12, 13}, Slice(w, items))

	assert.Empty(t, Slice(w, []int{}))
}
