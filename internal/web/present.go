package web

import (
	"bytes"

	"notehub/internal/errs"
	"notehub/internal/listview"
	"notehub/internal/notes"
	"notehub/views/models"
)

func noteView(n notes.Note) models.NoteView {
	return models.NoteView{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		Tag:       string(n.Tag),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func noteViews(list []notes.Note) []models.NoteView {
	views := make([]models.NoteView, len(list))
	for i, n := range list {
		views[i] = noteView(n)
	}
	return views
}

// ListView builds the list section for st. res is the data to show, which
// may be the previous page while loading is true. A non-nil err is shown as
// a generic message above the data.
func ListView(st *listview.State, res *notes.ListResult, loading bool, err error) models.ListView {
	v := models.ListView{
		Tag:     st.Tag.Slug(),
		Search:  st.Search,
		Page:    st.Page,
		Loading: loading,
	}
	if res != nil {
		v.Notes = noteViews(res.Notes)
		v.TotalPages = res.TotalPages
	}
	if err != nil {
		v.Error = errs.MessageOf(err)
	}
	return v
}

func (h *Handler) listView(st *listview.State, res *notes.ListResult, err error) models.ListView {
	v := ListView(st, res, false, err)
	v.Live = h.opts.Live
	v.Debounce = h.opts.Debounce
	return v
}

func tagLinks(active notes.TagFilter) []models.TagLink {
	links := []models.TagLink{{
		Label:  "All notes",
		Href:   "/notes/filter/" + notes.All.Slug(),
		Active: active == notes.All,
	}}
	for _, t := range notes.AllTags() {
		f := notes.FilterFor(t)
		links = append(links, models.TagLink{
			Label:  string(t),
			Href:   "/notes/filter/" + f.Slug(),
			Active: active == f,
		})
	}
	return links
}

func formView(in notes.CreateNoteInput, fieldErrs notes.FieldErrors) models.FormView {
	tags := notes.AllTags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	tag := string(in.Tag)
	if tag == "" {
		tag = string(notes.TagTodo)
	}
	return models.FormView{
		Title:       in.Title,
		Content:     in.Content,
		Tag:         tag,
		Tags:        names,
		FieldErrors: fieldErrs,
	}
}

// renderMarkdown converts note content to HTML. Raw HTML in the source is
// dropped by the renderer.
func (h *Handler) renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(content), &buf); err != nil {
		h.log.Warn("markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}
