package notes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagFilter(t *testing.T) {
	tests := []struct {
		slug string
		want TagFilter
	}{
		{"", All},
		{"All", All},
		{"all", All},
		{"Work", TagFilter(TagWork)},
		{"work", TagFilter(TagWork)},
		{"SHOPPING", TagFilter(TagShopping)},
		{"Groceries", All},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTagFilter(tt.slug))
		})
	}
}

func TestTagFilter_APIValue(t *testing.T) {
	assert.Empty(t, All.APIValue())
	assert.Equal(t, "Meeting", FilterFor(TagMeeting).APIValue())
	assert.Equal(t, "All", TagFilter("").Slug())
}

func TestAllTags_ReturnsCopy(t *testing.T) {
	tags := AllTags()
	require.Len(t, tags, 5)
	tags[0] = "Mutated"
	assert.Equal(t, TagTodo, AllTags()[0])
}

func TestNoteID_UnmarshalStringAndNumber(t *testing.T) {
	var a, b struct {
		ID NoteID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"65f0c0ffee"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id":42}`), &b))
	assert.Equal(t, NoteID("65f0c0ffee"), a.ID)
	assert.Equal(t, NoteID("42"), b.ID)

	err := json.Unmarshal([]byte(`{"id":true}`), &a)
	assert.Error(t, err)
}

func TestListParams_Query(t *testing.T) {
	q := ListParams{Page: 2, PerPage: 12, Search: "  milk ", Tag: All}.Query()
	assert.Equal(t, map[string]string{"page": "2", "perPage": "12", "search": "milk"}, q)

	q = ListParams{Page: 1, Tag: FilterFor(TagTodo)}.Query()
	assert.Equal(t, map[string]string{"page": "1", "tag": "Todo"}, q)
}

func TestCreateNoteInput_Normalize(t *testing.T) {
	in := CreateNoteInput{Title: "  Buy milk  ", Content: "\n2 litres\n", Tag: " Shopping "}.Normalize()
	assert.Equal(t, CreateNoteInput{Title: "Buy milk", Content: "2 litres", Tag: TagShopping}, in)
}
