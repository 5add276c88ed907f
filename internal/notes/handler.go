package notes

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"notehub/internal/errs"
)

// Handler serves the notes API contract the web UI consumes.
type Handler struct {
	svc   *Service
	log   *slog.Logger
	token string
}

// NewHandler returns the API handler. An empty token disables the bearer
// check.
func NewHandler(svc *Service, log *slog.Logger, token string) *Handler {
	return &Handler{svc: svc, log: log, token: token}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /notes", h.auth(h.ListNotes))
	mux.Handle("POST /notes", h.auth(h.CreateNote))
	mux.Handle("GET /notes/{id}", h.auth(h.GetNote))
	mux.Handle("DELETE /notes/{id}", h.auth(h.DeleteNote))
}

func (h *Handler) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
				h.jsonError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	})
}

// CreateNote handles POST /notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var input CreateNoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.fail(w, "failed to create note", err)
		return
	}

	h.jsonResponse(w, note, http.StatusCreated)
}

// GetNote handles GET /notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.jsonError(w, "note ID required", http.StatusBadRequest)
		return
	}

	note, err := h.svc.GetByID(r.Context(), NoteID(id))
	if err != nil {
		h.fail(w, "failed to get note", err)
		return
	}

	h.jsonResponse(w, note, http.StatusOK)
}

// ListNotes handles GET /notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p := ListParams{
		Page:    h.parseInt(query.Get("page"), 1),
		PerPage: h.parseInt(query.Get("perPage"), DefaultPerPage),
		Search:  query.Get("search"),
		Tag:     All,
	}
	if raw := query.Get("tag"); raw != "" {
		tag, err := ParseTag(raw)
		if err != nil {
			h.jsonError(w, MsgInvalidTag, http.StatusBadRequest)
			return
		}
		p.Tag = FilterFor(tag)
	}

	result, err := h.svc.List(r.Context(), p)
	if err != nil {
		h.fail(w, "failed to list notes", err)
		return
	}

	h.jsonResponse(w, result, http.StatusOK)
}

// DeleteNote handles DELETE /notes/{id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.jsonError(w, "note ID required", http.StatusBadRequest)
		return
	}

	note, err := h.svc.Delete(r.Context(), NoteID(id))
	if err != nil {
		h.fail(w, "failed to delete note", err)
		return
	}

	h.jsonResponse(w, note, http.StatusOK)
}

// --- Helper methods ---

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	code := errs.CodeOf(err)
	if code == errs.Internal {
		h.log.Error(msg, "error", err)
	}
	h.jsonError(w, errs.MessageOf(err), errs.HTTPStatus(code))
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func (h *Handler) parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
