package web

import (
	"context"
	"net/http"

	"notehub/internal/errs"
	"notehub/internal/listview"
	"notehub/internal/notes"
	"notehub/internal/obs"
	"notehub/internal/query"
	"notehub/views/components"
	"notehub/views/models"
	"notehub/views/pages"
)

// NotesPage handles GET /notes/filter/{tag...}
func (h *Handler) NotesPage(w http.ResponseWriter, r *http.Request) {
	req := parseListRequest(r)
	st := listview.New(req.Tag, req.Search, req.Page)
	page := models.NotesPage{
		Tags:  tagLinks(req.Tag),
		State: query.DehydratedState{Queries: []query.DehydratedQuery{}},
		Toast: takeFlash(w, r),
	}

	ld, err := h.loadNotes(r.Context(), req)
	if err != nil {
		obs.From(r.Context(), h.log).Error("failed to load notes", "tag", req.Tag.Slug(), "error", err)
		page.List = h.listView(st, nil, err)
		h.render(w, r, errs.HTTPStatus(errs.CodeOf(err)), pages.NotesPage(page))
		return
	}

	res, err := st.Fetch(r.Context(), h.listQuery(ld.Data))
	if err != nil {
		res = ld.Data
	}
	page.List = h.listView(st, res, nil)
	page.State = ld.State
	h.render(w, r, http.StatusOK, pages.NotesPage(page))
}

// NotesFragment handles GET /fragments/notes/{tag} (HTMX partial)
func (h *Handler) NotesFragment(w http.ResponseWriter, r *http.Request) {
	req := parseListRequest(r)
	st := listview.New(req.Tag, "", 1)
	st.Commit(req.Search)
	st.SetPage(req.Page)

	res, err := st.Fetch(r.Context(), h.listQuery(nil))
	if err != nil {
		obs.From(r.Context(), h.log).Warn("failed to fetch notes", "key", st.Key().String(), "error", err)
		prev, _ := query.Peek[*notes.ListResult](h.cache, st.Key())
		h.render(w, r, http.StatusOK, components.ListSection(h.listView(st, prev, err)))
		return
	}
	h.render(w, r, http.StatusOK, components.ListSection(h.listView(st, res, nil)))
}

func (h *Handler) listQuery(initial *notes.ListResult) listview.Query {
	return listview.Query{
		Cache:     h.cache,
		Source:    h.api,
		PerPage:   h.opts.PerPage,
		Initial:   initial,
		InitialAt: h.opts.Now(),
	}
}

// NoteDetails handles GET /notes/{id}
func (h *Handler) NoteDetails(w http.ResponseWriter, r *http.Request) {
	id := notes.NoteID(r.PathValue("id"))
	log := obs.From(r.Context(), h.log)

	ld, err := h.loadNote(r.Context(), id)
	if errs.Is(err, errs.NotFound) {
		h.render(w, r, http.StatusNotFound, pages.ErrorPage(http.StatusNotFound, "Note not found", "The note you are looking for does not exist."))
		return
	}
	if err != nil {
		log.Error("failed to load note", "id", id, "error", err)
		status := errs.HTTPStatus(errs.CodeOf(err))
		h.render(w, r, status, pages.ErrorPage(status, "Something went wrong", "Could not fetch note details. "+errs.MessageOf(err)))
		return
	}

	note, err := query.Fetch(r.Context(), h.cache, query.NoteKey(id), func(ctx context.Context) (*notes.Note, error) {
		return h.api.GetNote(ctx, id)
	}, query.WithRefetchOnMount(false))
	if err != nil {
		note = ld.Data
	}

	h.render(w, r, http.StatusOK, pages.NoteDetailsPage(models.NoteDetail{
		Note:        noteView(*note),
		ContentHTML: h.renderMarkdown(note.Content),
		State:       ld.State,
		Toast:       takeFlash(w, r),
	}))
}

// NoteFormFragment handles GET /fragments/note-form
func (h *Handler) NoteFormFragment(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, components.FormModal(formView(notes.CreateNoteInput{}, nil)))
}

// ModalClose handles GET /fragments/modal-close by emptying the modal slot.
func (h *Handler) ModalClose(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
}
