// Package listview holds the UI state of the notes list: raw search input,
// committed search, page, tag filter and whether the create modal is open.
package listview

import (
	"context"
	"time"

	"notehub/internal/notes"
	"notehub/internal/query"
)

// State is the list view state. It is not safe for concurrent use.
type State struct {
	Tag         notes.TagFilter
	SearchInput string
	Search      string
	Page        int
	ModalOpen   bool

	initialSearch string
	initialPage   int
}

// New returns the state a freshly loaded page starts in.
func New(tag notes.TagFilter, initialSearch string, initialPage int) *State {
	if initialPage < 1 {
		initialPage = 1
	}
	return &State{
		Tag:           tag,
		SearchInput:   initialSearch,
		Search:        initialSearch,
		Page:          initialPage,
		initialSearch: initialSearch,
		initialPage:   initialPage,
	}
}

// Input records raw search text. It does not affect the query until
// committed.
func (s *State) Input(text string) {
	s.SearchInput = text
}

// Commit makes search the active term. A change resets the page to 1; the
// return value reports whether the term changed.
func (s *State) Commit(search string) bool {
	if search == s.Search {
		return false
	}
	s.Search = search
	s.Page = 1
	return true
}

// SetTag switches the filter, resetting the page on change.
func (s *State) SetTag(tag notes.TagFilter) bool {
	if tag == s.Tag {
		return false
	}
	s.Tag = tag
	s.Page = 1
	return true
}

// SetPage moves to page n. Pages past the end are left to the API; only
// values below 1 are ignored.
func (s *State) SetPage(n int) bool {
	if n < 1 || n == s.Page {
		return false
	}
	s.Page = n
	return true
}

func (s *State) OpenModal()  { s.ModalOpen = true }
func (s *State) CloseModal() { s.ModalOpen = false }

// Key is the cache key of the page the state selects.
func (s *State) Key() query.Key {
	return query.NotesKey(s.Search, s.Page, s.Tag)
}

// Params are the API parameters of the page the state selects.
func (s *State) Params(perPage int) notes.ListParams {
	return notes.ListParams{
		Page:    s.Page,
		PerPage: perPage,
		Search:  s.Search,
		Tag:     s.Tag,
	}
}

// MatchesInitial reports whether prefetched initial data applies.
func (s *State) MatchesInitial() bool {
	return s.Page == s.initialPage && s.Search == s.initialSearch
}

// ShowPagination reports whether pagination controls are rendered.
func ShowPagination(totalPages int) bool {
	return totalPages > 1
}

// Source loads list pages from the notes API.
type Source interface {
	ListNotes(ctx context.Context, p notes.ListParams) (*notes.ListResult, error)
}

// Query binds a State to the shared cache.
type Query struct {
	Cache   *query.Client
	Source  Source
	PerPage int

	// Initial is the page prefetched by the loader, used while the state
	// still selects the initial search and page.
	Initial   *notes.ListResult
	InitialAt time.Time
}

// Fetch returns the page the state selects. Cached pages are served without
// revalidation on mount.
func (s *State) Fetch(ctx context.Context, q Query) (*notes.ListResult, error) {
	params := s.Params(q.PerPage)
	opts := []query.FetchOption{query.WithRefetchOnMount(false)}
	if q.Initial != nil && s.MatchesInitial() {
		opts = append(opts, query.WithInitialData(q.Initial, q.InitialAt))
	}
	return query.Fetch(ctx, q.Cache, s.Key(), func(ctx context.Context) (*notes.ListResult, error) {
		return q.Source.ListNotes(ctx, params)
	}, opts...)
}
