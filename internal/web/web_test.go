package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehub/internal/errs"
	"notehub/internal/notehub"
	"notehub/internal/notes"
	"notehub/internal/query"
)

type testEnv struct {
	svc   *notes.Service
	cache *query.Client
	mux   *http.ServeMux
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	svc := notes.NewService(notes.NewMemoryStore())
	apiMux := http.NewServeMux()
	notes.NewHandler(svc, discardLogger(), "").Register(apiMux)
	api := httptest.NewServer(apiMux)
	t.Cleanup(api.Close)

	client, err := notehub.New(notehub.Config{BaseURL: api.URL})
	require.NoError(t, err)

	cache := query.NewClient(query.Options{StaleTime: time.Minute, GCTime: time.Hour})
	mux := http.NewServeMux()
	NewHandler(client, cache, discardLogger(), Options{}).Register(mux)
	return &testEnv{svc: svc, cache: cache, mux: mux}
}

func (e *testEnv) seed(t *testing.T, n int) {
	t.Helper()
	tags := notes.AllTags()
	for i := 0; i < n; i++ {
		_, err := e.svc.Create(context.Background(), notes.CreateNoteInput{
			Title:   fmt.Sprintf("Note %02d", i),
			Content: fmt.Sprintf("body %d", i),
			Tag:     tags[i%len(tags)],
		})
		require.NoError(t, err)
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func postForm(target string, form url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func TestHome_RedirectsToAllNotes(t *testing.T) {
	e := newTestEnv(t)
	rec := e.get(t, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/notes/filter/All", rec.Header().Get("Location"))
}

func TestNotesPage_RendersPrefetchedStateAndHydratesCache(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, 3)

	rec := e.get(t, "/notes/filter/All")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Note 00")
	assert.Contains(t, body, "Note 02")
	assert.Contains(t, body, `<script id="notes-state" type="application/json">`)
	assert.Contains(t, body, `"queryKey":["notes","","1","All"]`)
	assert.NotContains(t, body, `class="pagination"`)

	cached, ok := query.Peek[*notes.ListResult](e.cache, query.NotesKey("", 1, notes.All))
	require.True(t, ok)
	assert.Len(t, cached.Notes, 3)
}

func TestNotesPage_TagSegment(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, 10)

	rec := e.get(t, "/notes/filter/work")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Note 01")
	assert.Contains(t, body, "Note 06")
	assert.NotContains(t, body, "Note 00")
	assert.Contains(t, body, `<a class="tag-link active" href="/notes/filter/Work"`)
}

func TestNotesPage_UnknownTagFallsBackToAll(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, 2)

	rec := e.get(t, "/notes/filter/Bogus/extra")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<a class="tag-link active" href="/notes/filter/All"`)
	assert.Contains(t, body, "Note 00")
	assert.Contains(t, body, "Note 01")
}

func TestNotesPage_PaginationOnlyWithMultiplePages(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, 13)

	body := e.get(t, "/notes/filter/All").Body.String()
	assert.Contains(t, body, `class="pagination"`)
	assert.Contains(t, body, `hx-get="/fragments/notes/All?page=2"`)
	assert.Equal(t, 12, strings.Count(body, `class="note-item"`))
}

func TestNotesPage_EmptyList(t *testing.T) {
	e := newTestEnv(t)
	body := e.get(t, "/notes/filter/All").Body.String()
	assert.Contains(t, body, "No notes found")
}

func TestNotesPage_APIFailureShowsGenericMessage(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(downAPI{}, query.NewClient(query.Options{}), discardLogger(), Options{}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes/filter/All", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not fetch the list of notes. notes API is unavailable")
}

func TestNotesFragment_SearchAndPage(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, 15)

	rec := e.get(t, "/fragments/notes/All?search=note+07")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<section id="notes-section"`))
	assert.Contains(t, body, "Note 07")
	assert.Equal(t, 1, strings.Count(body, `class="note-item"`))

	body = e.get(t, "/fragments/notes/All?page=2").Body.String()
	assert.Equal(t, 3, strings.Count(body, `class="note-item"`))
	assert.Contains(t, body, `<span class="page-current" aria-current="page">2</span>`)
}

func TestCreateNote_InvalidatesCachedLists(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t, 1)

	body := e.get(t, "/fragments/notes/All").Body.String()
	require.Contains(t, body, "Note 00")

	// A note created behind the cache's back stays invisible until a
	// UI create invalidates the list pages.
	_, err := e.svc.Create(context.Background(), notes.CreateNoteInput{Title: "Sideloaded", Tag: notes.TagWork})
	require.NoError(t, err)
	assert.NotContains(t, e.get(t, "/fragments/notes/All").Body.String(), "Sideloaded")

	rec := e.do(t, postForm("/notes", url.Values{"title": {"Groceries"}, "content": {"eggs"}, "tag": {"Shopping"}}, true))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/notes/filter/All", rec.Header().Get("HX-Redirect"))

	body = e.get(t, "/fragments/notes/All").Body.String()
	assert.Contains(t, body, "Sideloaded")
	assert.Contains(t, body, "Groceries")
}

func TestCreateNote_FlashShownOnNextPage(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, postForm("/notes", url.Values{"title": {"Standup"}, "tag": {"Meeting"}}, false))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/notes/filter/All", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/notes/filter/All", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	page := e.do(t, req)
	assert.Contains(t, page.Body.String(), `data-kind="success">Note created!</div>`)
	assert.Contains(t, page.Body.String(), "Standup")

	var cleared bool
	for _, c := range page.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestCreateNote_ValidationBlocksRequest(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		msg  string
	}{
		{"short title", url.Values{"title": {"ab"}, "tag": {"Todo"}}, notes.MsgTitleLength},
		{"blank title", url.Values{"title": {"   "}, "tag": {"Todo"}}, notes.MsgTitleLength},
		{"long content", url.Values{"title": {"Valid"}, "content": {strings.Repeat("x", 501)}, "tag": {"Todo"}}, notes.MsgContentLength},
		{"bad tag", url.Values{"title": {"Valid"}, "tag": {"Urgent"}}, notes.MsgInvalidTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			rec := e.do(t, postForm("/notes", tt.form, true))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Header().Get("HX-Trigger"), tt.msg)
			assert.Contains(t, rec.Body.String(), `<form class="note-form"`)

			res, err := e.svc.List(context.Background(), notes.ListParams{Page: 1})
			require.NoError(t, err)
			assert.Empty(t, res.Notes)
		})
	}
}

func TestCreateNote_APIFailureToast(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(downAPI{}, query.NewClient(query.Options{}), discardLogger(), Options{}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, postForm("/notes", url.Values{"title": {"Valid"}, "tag": {"Todo"}}, true))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var trigger map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger))
	assert.Equal(t, "error", trigger["toast"]["kind"])
	assert.Equal(t, MsgCreateFailed, trigger["toast"]["message"])
}

type rejectingAPI struct{ downAPI }

func (rejectingAPI) CreateNote(context.Context, notes.CreateNoteInput) (*notes.Note, error) {
	return nil, errs.New(errs.InvalidArgument, "title already used")
}

func TestCreateNote_APIRejectionRerendersForm(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(rejectingAPI{}, query.NewClient(query.Options{}), discardLogger(), Options{}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, postForm("/notes", url.Values{"title": {"Standup"}, "tag": {"Meeting"}}, true))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form class="note-form"`)
	assert.Contains(t, rec.Body.String(), `value="Standup"`)
	var trigger map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger))
	assert.Equal(t, MsgCreateFailed, trigger["toast"]["message"])
}

func TestCreateNoteJSON_SchemaVariant(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"ab","content":"","tag":"Nope"}`))
	rec := e.do(t, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var failed apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, notes.MsgTitleLength, failed.Errors["title"])
	assert.Equal(t, notes.MsgInvalidTag, failed.Errors["tag"])
	assert.NotContains(t, failed.Errors, "content")

	fillListCache(t, e)
	req = httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"  Retro  ","content":"went well","tag":"Work"}`))
	rec = e.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Retro", created.Title)
	assert.True(t, e.cache.StateOf(query.NotesKey("", 1, notes.All)).Invalidated)

	rec = e.do(t, httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// fillListCache loads the first page so invalidation can be observed.
func fillListCache(t *testing.T, e *testEnv) {
	t.Helper()
	require.Equal(t, http.StatusOK, e.get(t, "/notes/filter/All").Code)
	require.False(t, e.cache.StateOf(query.NotesKey("", 1, notes.All)).Invalidated)
}

func TestNoteDetails(t *testing.T) {
	e := newTestEnv(t)
	n, err := e.svc.Create(context.Background(), notes.CreateNoteInput{
		Title:   "Plan",
		Content: "**ship** it <script>alert(1)</script>",
		Tag:     notes.TagWork,
	})
	require.NoError(t, err)

	rec := e.get(t, "/notes/"+n.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h2>Plan</h2>")
	assert.Contains(t, body, "<strong>ship</strong>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, `"queryKey":["note","`+n.ID.String()+`"]`)

	_, ok := query.Peek[*notes.Note](e.cache, query.NoteKey(n.ID))
	assert.True(t, ok)
}

func TestNoteDetails_NotFound(t *testing.T) {
	e := newTestEnv(t)
	rec := e.get(t, "/notes/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Note not found")
}

func TestDeleteNote(t *testing.T) {
	e := newTestEnv(t)
	n, err := e.svc.Create(context.Background(), notes.CreateNoteInput{Title: "Temp", Tag: notes.TagTodo})
	require.NoError(t, err)
	fillListCache(t, e)

	rec := e.do(t, postForm("/notes/"+n.ID.String()+"/delete", nil, false))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, e.cache.StateOf(query.NotesKey("", 1, notes.All)).Invalidated)

	_, err = e.svc.GetByID(context.Background(), n.ID)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestNoteFormFragment(t *testing.T) {
	e := newTestEnv(t)
	body := e.get(t, "/fragments/note-form").Body.String()
	assert.Contains(t, body, `class="modal-backdrop"`)
	assert.Contains(t, body, `name="title"`)
	assert.Contains(t, body, `<option value="Todo" selected>Todo</option>`)
	for _, tag := range notes.AllTags() {
		assert.Contains(t, body, `value="`+string(tag)+`"`)
	}
	assert.Contains(t, body, `hx-disabled-elt="find button"`)
	assert.Contains(t, body, `<span class="label-idle">Create note</span><span class="label-busy">Creating...</span>`)

	rec := e.get(t, "/fragments/modal-close")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestReady(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusOK, e.get(t, "/ready").Code)

	mux := http.NewServeMux()
	NewHandler(downAPI{}, query.NewClient(query.Options{}), discardLogger(), Options{}).Register(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type downAPI struct{}

var errDown = errs.New(errs.Unavailable, "notes API is unavailable")

func (downAPI) ListNotes(context.Context, notes.ListParams) (*notes.ListResult, error) {
	return nil, errDown
}

func (downAPI) GetNote(context.Context, notes.NoteID) (*notes.Note, error) { return nil, errDown }

func (downAPI) CreateNote(context.Context, notes.CreateNoteInput) (*notes.Note, error) {
	return nil, errDown
}

func (downAPI) DeleteNote(context.Context, notes.NoteID) (*notes.Note, error) { return nil, errDown }

func (downAPI) Ping(context.Context) error { return errDown }
