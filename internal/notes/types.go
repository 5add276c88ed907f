package notes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tag is the category label attached to a note.
type Tag string

const (
	TagTodo     Tag = "Todo"
	TagWork     Tag = "Work"
	TagPersonal Tag = "Personal"
	TagMeeting  Tag = "Meeting"
	TagShopping Tag = "Shopping"
)

var allTags = []Tag{TagTodo, TagWork, TagPersonal, TagMeeting, TagShopping}

// AllTags returns the tags in display order.
func AllTags() []Tag {
	out := make([]Tag, len(allTags))
	copy(out, allTags)
	return out
}

// ParseTag resolves s to a known tag, ignoring case.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	for _, t := range allTags {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tag %q", s)
}

// Valid reports whether t is a member of the enumeration.
func (t Tag) Valid() bool {
	for _, known := range allTags {
		if t == known {
			return true
		}
	}
	return false
}

// TagFilter is either All or a single tag. All is never sent to the API.
type TagFilter string

// All matches notes of every tag.
const All TagFilter = "All"

// ParseTagFilter maps a route segment to a filter. Unknown or empty
// segments fall back to All.
func ParseTagFilter(slug string) TagFilter {
	if t, err := ParseTag(slug); err == nil {
		return TagFilter(t)
	}
	return All
}

// FilterFor returns the filter selecting tag t.
func FilterFor(t Tag) TagFilter { return TagFilter(t) }

// APIValue is the tag query parameter, empty for All.
func (f TagFilter) APIValue() string {
	if f == All || f == "" {
		return ""
	}
	return string(f)
}

// Slug is the route segment that selects this filter.
func (f TagFilter) Slug() string {
	if f == "" {
		return string(All)
	}
	return string(f)
}

// NoteID is the remote identifier. API versions disagree on whether ids are
// numbers or strings, so both decode.
type NoteID string

func (id *NoteID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = NoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	*id = NoteID(n.String())
	return nil
}

func (id NoteID) String() string { return string(id) }

// Note is a user-authored title/content/tag record.
type Note struct {
	ID        NoteID    `json:"id" bson:"-"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Tag       Tag       `json:"tag" bson:"tag"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// CreateNoteInput is the body of a create request.
type CreateNoteInput struct {
	Title   string `json:"title" validate:"required,min=3,max=50"`
	Content string `json:"content" validate:"max=500"`
	Tag     Tag    `json:"tag" validate:"required,tag"`
}

// Normalize trims surrounding whitespace from title and content.
func (in CreateNoteInput) Normalize() CreateNoteInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Tag = Tag(strings.TrimSpace(string(in.Tag)))
	return in
}

// DefaultPerPage is the page size the UI requests.
const DefaultPerPage = 12

// ListParams selects one page of notes.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	Tag     TagFilter
}

// Query encodes params the way the notes API expects them. Empty search and
// the All filter are omitted.
func (p ListParams) Query() map[string]string {
	q := map[string]string{
		"page": strconv.Itoa(p.Page),
	}
	if p.PerPage > 0 {
		q["perPage"] = strconv.Itoa(p.PerPage)
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q["search"] = s
	}
	if tag := p.Tag.APIValue(); tag != "" {
		q["tag"] = tag
	}
	return q
}

// ListResult is one page of notes and the total page count.
type ListResult struct {
	Notes      []Note `json:"notes"`
	TotalPages int    `json:"totalPages"`
}
