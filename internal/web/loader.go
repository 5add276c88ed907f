package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"notehub/internal/errs"
	"notehub/internal/notes"
	"notehub/internal/query"
)

// listRequest is the route state of a list page.
type listRequest struct {
	Tag    notes.TagFilter
	Search string
	Page   int
}

// parseListRequest reads the tag from the first path segment and the search
// term and page from the query string. Bad pages fall back to 1.
func parseListRequest(r *http.Request) listRequest {
	seg, _, _ := strings.Cut(r.PathValue("tag"), "/")
	req := listRequest{
		Tag:    notes.ParseTagFilter(seg),
		Search: r.URL.Query().Get("search"),
		Page:   1,
	}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 1 {
		req.Page = p
	}
	return req
}

func (req listRequest) key() query.Key {
	return query.NotesKey(req.Search, req.Page, req.Tag)
}

// loaded is what a page loader hands to the view: the data plus the
// serialized cache it was prefetched into.
type loaded[T any] struct {
	Data  T
	State query.DehydratedState
}

// requestCache is the per-render cache a loader prefetches into.
func (h *Handler) requestCache() *query.Client {
	return query.NewClient(query.Options{StaleTime: h.opts.StaleTime, Logger: h.log, Now: h.opts.Now})
}

// loadNotes fetches the requested page once and prefetches it under the list
// key, then merges the dehydrated state into the shared cache.
func (h *Handler) loadNotes(ctx context.Context, req listRequest) (*loaded[*notes.ListResult], error) {
	initial, err := h.api.ListNotes(ctx, notes.ListParams{
		Page:    req.Page,
		PerPage: h.opts.PerPage,
		Search:  req.Search,
		Tag:     req.Tag,
	})
	if err != nil {
		return nil, err
	}

	rc := h.requestCache()
	err = query.Prefetch(ctx, rc, req.key(), func(context.Context) (*notes.ListResult, error) {
		return initial, nil
	})
	if err != nil {
		return nil, err
	}
	return dehydrate(h.cache, rc, initial)
}

// loadNote prefetches a single note.
func (h *Handler) loadNote(ctx context.Context, id notes.NoteID) (*loaded[*notes.Note], error) {
	rc := h.requestCache()
	err := query.Prefetch(ctx, rc, query.NoteKey(id), func(ctx context.Context) (*notes.Note, error) {
		return h.api.GetNote(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	note, ok := query.Peek[*notes.Note](rc, query.NoteKey(id))
	if !ok {
		return nil, errs.New(errs.Internal, "prefetched note missing from cache")
	}
	return dehydrate(h.cache, rc, note)
}

// dehydrate serializes rc and hydrates shared with the result.
func dehydrate[T any](shared, rc *query.Client, data T) (*loaded[T], error) {
	state, err := rc.Dehydrate()
	if err != nil {
		return nil, err
	}
	shared.Hydrate(state)
	return &loaded[T]{Data: data, State: state}, nil
}
