package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"notehub/internal/errs"
	"notehub/internal/notes"
	"notehub/internal/obs"
	"notehub/internal/query"
	"notehub/views/components"
	"notehub/views/models"
)

const (
	MsgCreated      = "Note created!"
	MsgCreateFailed = "Failed to create note"
	MsgDeleted      = "Note deleted"
	MsgDeleteFailed = "Failed to delete note"
)

const maxBodyBytes = 64 << 10

// CreateNote handles POST /notes from the native form. Validation failures
// never reach the API.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	in := notes.CreateNoteInput{
		Title:   r.PostForm.Get("title"),
		Content: r.PostForm.Get("content"),
		Tag:     notes.Tag(r.PostForm.Get("tag")),
	}.Normalize()
	log := obs.From(r.Context(), h.log)

	if err := notes.Validate(in); err != nil {
		h.formFailed(w, r, http.StatusUnprocessableEntity, in, errs.MessageOf(err))
		return
	}

	note, err := h.api.CreateNote(r.Context(), in)
	if err != nil {
		log.Error("failed to create note", "error", err)
		h.formFailed(w, r, formStatus(err), in, MsgCreateFailed)
		return
	}

	n := h.cache.Invalidate(query.AllNotes())
	log.Info("note created", "id", note.ID, "invalidated", n)
	setFlash(w, models.Toast{Kind: toastSuccess, Message: MsgCreated})
	redirect(w, r, allNotesPath)
}

// formFailed re-renders the form with an error toast. Plain form posts get the
// toast on the list page instead.
func (h *Handler) formFailed(w http.ResponseWriter, r *http.Request, status int, in notes.CreateNoteInput, msg string) {
	t := models.Toast{Kind: toastError, Message: msg}
	if !isHTMX(r) {
		setFlash(w, t)
		http.Redirect(w, r, allNotesPath, http.StatusSeeOther)
		return
	}
	triggerToast(w, t)
	h.render(w, r, status, components.FormModal(formView(in, nil)))
}

// formStatus maps an API failure to the status of the re-rendered form. The
// API's own rejections use 422 like local validation, which HTMX swaps.
func formStatus(err error) int {
	if errs.Is(err, errs.InvalidArgument) {
		return http.StatusUnprocessableEntity
	}
	return errs.HTTPStatus(errs.CodeOf(err))
}

type apiError struct {
	Message string            `json:"message"`
	Errors  notes.FieldErrors `json:"errors,omitempty"`
}

// CreateNoteJSON handles POST /api/notes. The body is checked against the
// schema and every failing field is reported.
func (h *Handler) CreateNoteJSON(w http.ResponseWriter, r *http.Request) {
	var in notes.CreateNoteInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Message: "invalid JSON body"})
		return
	}
	in = in.Normalize()

	if err := h.schema.Validate(in); err != nil {
		var fields notes.FieldErrors
		errors.As(err, &fields)
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Message: errs.MessageOf(err), Errors: fields})
		return
	}

	note, err := h.api.CreateNote(r.Context(), in)
	if err != nil {
		obs.From(r.Context(), h.log).Error("failed to create note", "error", err)
		writeJSON(w, errs.HTTPStatus(errs.CodeOf(err)), apiError{Message: MsgCreateFailed})
		return
	}

	h.cache.Invalidate(query.AllNotes())
	writeJSON(w, http.StatusCreated, note)
}

// DeleteNote handles POST /notes/{id}/delete
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := notes.NoteID(r.PathValue("id"))
	log := obs.From(r.Context(), h.log)

	if _, err := h.api.DeleteNote(r.Context(), id); err != nil {
		log.Error("failed to delete note", "id", id, "error", err)
		setFlash(w, models.Toast{Kind: toastError, Message: MsgDeleteFailed})
		redirect(w, r, allNotesPath)
		return
	}

	h.cache.Invalidate(query.AllNotes())
	h.cache.Remove(query.NoteKey(id))
	log.Info("note deleted", "id", id)
	setFlash(w, models.Toast{Kind: toastSuccess, Message: MsgDeleted})
	redirect(w, r, allNotesPath)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
