package models

import (
	"net/url"
	"strconv"
	"time"
)

// NoteView represents a note for template rendering
type NoteView struct {
	ID        string
	Title     string
	Content   string
	Tag       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n NoteView) DetailsURL() string { return "/notes/" + url.PathEscape(n.ID) }

func (n NoteView) DeleteURL() string { return n.DetailsURL() + "/delete" }

func (n NoteView) CreatedLabel() string {
	if n.CreatedAt.IsZero() {
		return ""
	}
	return n.CreatedAt.Format("Jan 2, 2006 15:04")
}

// TagLink is an entry of the tag menu
type TagLink struct {
	Label  string
	Href   string
	Active bool
}

// Toast is a one-shot notification
type Toast struct {
	Kind    string `json:"kind"` // success or error
	Message string `json:"message"`
}

// PageItem is one control of the pagination bar. Gap items render as an
// ellipsis.
type PageItem struct {
	Number  int
	Current bool
	Gap     bool
}

// ListView is the list section of the notes page.
type ListView struct {
	Tag        string
	Search     string
	Page       int
	TotalPages int
	Notes      []NoteView
	Loading    bool
	Error      string
	Live       bool
	OOB        bool
	Debounce   time.Duration
}

func (v ListView) ShowPagination() bool { return v.TotalPages > 1 }

// FragmentURL is the HTTP fallback URL of the list section at page.
func (v ListView) FragmentURL(page int) string {
	q := url.Values{}
	if v.Search != "" {
		q.Set("search", v.Search)
	}
	q.Set("page", strconv.Itoa(page))
	return "/fragments/notes/" + url.PathEscape(v.Tag) + "?" + q.Encode()
}

// SectionURL is the fragment endpoint the search box queries.
func (v ListView) SectionURL() string {
	return "/fragments/notes/" + url.PathEscape(v.Tag)
}

// SearchTrigger delays fragment requests until typing pauses.
func (v ListView) SearchTrigger() string {
	return "input changed delay:" + strconv.FormatInt(v.Debounce.Milliseconds(), 10) + "ms, search"
}

// LiveURL is the WebSocket endpoint seeded with the current search and page.
func (v ListView) LiveURL() string {
	q := url.Values{}
	if v.Search != "" {
		q.Set("search", v.Search)
	}
	q.Set("page", strconv.Itoa(v.Page))
	return "/live/notes/" + url.PathEscape(v.Tag) + "?" + q.Encode()
}

// PageVals is the hx-vals payload of a page button on the live socket.
func (v ListView) PageVals(page int) string {
	return `{"action":"page","page":` + strconv.Itoa(page) + `}`
}

const (
	pageRange  = 5
	pageMargin = 1
)

// PageItems lays out the pagination bar: a window of pages around the
// current one plus the first and last pages, with gaps in between.
func (v ListView) PageItems() []PageItem {
	total := v.TotalPages
	if total < 1 {
		return nil
	}
	cur := v.Page
	if cur < 1 {
		cur = 1
	}
	win := min(cur, total)
	lo := max(win-pageRange/2, 1)
	if lo > total-pageRange+1 {
		lo = max(total-pageRange+1, 1)
	}
	hi := min(lo+pageRange-1, total)

	var items []PageItem
	last := 0
	emit := func(from, to int) {
		if last == total {
			return
		}
		from = max(from, last+1, 1)
		to = min(to, total)
		for i := 0; i <= to-from; i++ {
			n := from + i
			if last != 0 && n > last+1 {
				items = append(items, PageItem{Gap: true})
			}
			items = append(items, PageItem{Number: n, Current: n == cur})
			last = n
		}
	}
	emit(1, pageMargin)
	emit(lo, hi)
	emit(total-pageMargin+1, total)
	return items
}

// NotesPage is the full notes list page.
type NotesPage struct {
	Tags  []TagLink
	List  ListView
	State any
	Toast *Toast
}

// NoteDetail is the note details page.
type NoteDetail struct {
	Note        NoteView
	ContentHTML string
	State       any
	Toast       *Toast
}

// FormView is the create note form with the values to redisplay.
type FormView struct {
	Title       string
	Content     string
	Tag         string
	Tags        []string
	FieldErrors map[string]string
}

func (f FormView) FieldError(name string) string { return f.FieldErrors[name] }
