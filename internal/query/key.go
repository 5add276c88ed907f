package query

import (
	"encoding/json"
	"strconv"

	"notehub/internal/notes"
)

// Key identifies a cached query. The first element names the entity kind.
type Key []string

const (
	kindNotes = "notes"
	kindNote  = "note"
)

// NotesKey identifies one list page: (kind, search, page, tag).
func NotesKey(search string, page int, tag notes.TagFilter) Key {
	return Key{kindNotes, search, strconv.Itoa(page), tag.Slug()}
}

// AllNotes is the prefix shared by every list page.
func AllNotes() Key { return Key{kindNotes} }

// NoteKey identifies a single note.
func NoteKey(id notes.NoteID) Key {
	return Key{kindNote, id.String()}
}

// Hash is the stable string form used as the storage key.
func (k Key) Hash() string {
	b, _ := json.Marshal([]string(k))
	return string(b)
}

func (k Key) String() string { return k.Hash() }

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}
