package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func numbers(items []PageItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		if it.Gap {
			out = append(out, 0)
			continue
		}
		out = append(out, it.Number)
	}
	return out
}

func TestListView_PageItems(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		total int
		want  []int
	}{
		{"single page", 1, 1, []int{1}},
		{"fits", 2, 4, []int{1, 2, 3, 4}},
		{"start", 1, 20, []int{1, 2, 3, 4, 5, 0, 20}},
		{"middle", 10, 20, []int{1, 0, 8, 9, 10, 11, 12, 0, 20}},
		{"end", 20, 20, []int{1, 0, 16, 17, 18, 19, 20}},
		{"adjacent margin", 4, 20, []int{1, 2, 3, 4, 5, 6, 0, 20}},
		{"none", 1, 0, nil},
		{"past the end", 25, 20, []int{1, 0, 16, 17, 18, 19, 20}},
		{"huge page", math.MaxInt, 20, []int{1, 0, 16, 17, 18, 19, 20}},
		{"huge total", 3, math.MaxInt, []int{1, 2, 3, 4, 5, 0, math.MaxInt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ListView{Page: tt.page, TotalPages: tt.total}
			got := v.PageItems()
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, numbers(got))
		})
	}
}

func TestListView_PageItemsMarksCurrent(t *testing.T) {
	v := ListView{Page: 3, TotalPages: 5}
	for _, it := range v.PageItems() {
		assert.Equal(t, it.Number == 3, it.Current)
	}
}

func TestListView_FragmentURL(t *testing.T) {
	v := ListView{Tag: "Work", Search: "q3 plan"}
	assert.Equal(t, "/fragments/notes/Work?page=2&search=q3+plan", v.FragmentURL(2))

	v.Search = ""
	assert.Equal(t, "/fragments/notes/Work?page=1", v.FragmentURL(1))
}

func TestListView_ShowPagination(t *testing.T) {
	assert.False(t, ListView{TotalPages: 1}.ShowPagination())
	assert.True(t, ListView{TotalPages: 2}.ShowPagination())
}

func TestNoteView_URLsAndLabel(t *testing.T) {
	n := NoteView{ID: "42", CreatedAt: time.Date(2026, 2, 3, 9, 5, 0, 0, time.UTC)}
	assert.Equal(t, "/notes/42", n.DetailsURL())
	assert.Equal(t, "/notes/42/delete", n.DeleteURL())
	assert.Equal(t, "Feb 3, 2026 09:05", n.CreatedLabel())
	assert.Empty(t, NoteView{}.CreatedLabel())
}

func TestListView_LiveAndSearchURLs(t *testing.T) {
	v := ListView{Tag: "All", Search: "milk", Page: 3, Debounce: 500 * time.Millisecond}
	assert.Equal(t, "/live/notes/All?page=3&search=milk", v.LiveURL())
	assert.Equal(t, "/fragments/notes/All", v.SectionURL())
	assert.Equal(t, "input changed delay:500ms, search", v.SearchTrigger())
	assert.Equal(t, `{"action":"page","page":7}`, v.PageVals(7))
}
