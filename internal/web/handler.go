// Package web serves the NoteHub browser UI: full pages rendered with
// their prefetched cache state, HTMX fragments and form submissions.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"

	"notehub/internal/notes"
	"notehub/internal/obs"
	"notehub/internal/query"
)

// NotesAPI is the part of the notes API client the UI uses.
type NotesAPI interface {
	ListNotes(ctx context.Context, p notes.ListParams) (*notes.ListResult, error)
	GetNote(ctx context.Context, id notes.NoteID) (*notes.Note, error)
	CreateNote(ctx context.Context, in notes.CreateNoteInput) (*notes.Note, error)
	DeleteNote(ctx context.Context, id notes.NoteID) (*notes.Note, error)
	Ping(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	PerPage   int
	Debounce  time.Duration
	StaleTime time.Duration
	// Live makes list pages connect to the WebSocket session instead of
	// issuing fragment requests.
	Live bool
	Now  func() time.Time
}

type Handler struct {
	api    NotesAPI
	cache  *query.Client
	schema *notes.SchemaValidator
	md     goldmark.Markdown
	log    *slog.Logger
	opts   Options
}

func NewHandler(api NotesAPI, cache *query.Client, log *slog.Logger, opts Options) *Handler {
	if opts.PerPage <= 0 {
		opts.PerPage = notes.DefaultPerPage
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		api:    api,
		cache:  cache,
		schema: notes.NewSchemaValidator(),
		md:     goldmark.New(),
		log:    log,
		opts:   opts,
	}
}

// Register mounts the UI routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /notes", h.Home)
	mux.HandleFunc("GET /notes/filter", h.Home)
	mux.HandleFunc("GET /notes/filter/{tag...}", h.NotesPage)
	mux.HandleFunc("GET /notes/{id}", h.NoteDetails)
	mux.HandleFunc("POST /notes", h.CreateNote)
	mux.HandleFunc("POST /notes/{id}/delete", h.DeleteNote)
	mux.HandleFunc("POST /api/notes", h.CreateNoteJSON)

	mux.HandleFunc("GET /fragments/notes/{tag}", h.NotesFragment)
	mux.HandleFunc("GET /fragments/note-form", h.NoteFormFragment)
	mux.HandleFunc("GET /fragments/modal-close", h.ModalClose)

	mux.HandleFunc("GET /ready", h.Ready)
}

// Home handles GET / by redirecting to the unfiltered list.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, allNotesPath, http.StatusFound)
}

// Ready handles GET /ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.api.Ping(ctx); err != nil {
		obs.From(r.Context(), h.log).Warn("notes API not ready", "error", err)
		http.Error(w, "notes API unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

const allNotesPath = "/notes/filter/All"

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		obs.From(r.Context(), h.log).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// redirect sends the browser to path, as a full navigation for HTMX requests.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
