package notehub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehub/internal/errs"
	"notehub/internal/notes"
)

const testToken = "test-token"

func newAPI(t *testing.T) (*Client, *notes.Service) {
	t.Helper()
	svc := notes.NewService(notes.NewMemoryStore())
	mux := http.NewServeMux()
	notes.NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), testToken).Register(mux)
	srv := httptest.NewServer(http.StripPrefix("/api", mux))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/", Token: testToken})
	require.NoError(t, err)
	return c, svc
}

func TestClient_CreateListGetDelete(t *testing.T) {
	c, _ := newAPI(t)
	ctx := context.Background()

	created, err := c.CreateNote(ctx, notes.CreateNoteInput{Title: "Groceries", Content: "eggs", Tag: notes.TagShopping})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = c.CreateNote(ctx, notes.CreateNoteInput{Title: "Retro", Tag: notes.TagWork})
	require.NoError(t, err)

	list, err := c.ListNotes(ctx, notes.ListParams{Page: 1, PerPage: 12, Tag: notes.FilterFor(notes.TagShopping)})
	require.NoError(t, err)
	require.Len(t, list.Notes, 1)
	assert.Equal(t, "Groceries", list.Notes[0].Title)
	assert.Equal(t, 1, list.TotalPages)

	got, err := c.GetNote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "eggs", got.Content)

	_, err = c.DeleteNote(ctx, created.ID)
	require.NoError(t, err)

	_, err = c.GetNote(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
	assert.Equal(t, "note not found", errs.MessageOf(err))
}

func TestClient_ListEmptyIsNotNil(t *testing.T) {
	c, _ := newAPI(t)
	list, err := c.ListNotes(context.Background(), notes.ListParams{Page: 1, PerPage: 12, Search: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, list.Notes)
	assert.Zero(t, list.TotalPages)
}

func TestClient_SendsQueryAndAuth(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"notes":[{"id":7,"title":"Call mom","content":"","tag":"Personal"}],"totalPages":4}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Token: "abc"})
	require.NoError(t, err)

	list, err := c.ListNotes(context.Background(), notes.ListParams{Page: 3, PerPage: 12, Search: "mom", Tag: notes.All})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/notes", got.URL.Path)
	assert.Equal(t, "3", got.URL.Query().Get("page"))
	assert.Equal(t, "12", got.URL.Query().Get("perPage"))
	assert.Equal(t, "mom", got.URL.Query().Get("search"))
	assert.False(t, got.URL.Query().Has("tag"), "All must not be sent")
	assert.Equal(t, "Bearer abc", got.Header.Get("Authorization"))

	assert.Equal(t, notes.NoteID("7"), list.Notes[0].ID)
	assert.Equal(t, 4, list.TotalPages)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   errs.Code
	}{
		{http.StatusBadRequest, errs.InvalidArgument},
		{http.StatusUnauthorized, errs.PermissionDenied},
		{http.StatusNotFound, errs.NotFound},
		{http.StatusBadGateway, errs.Unavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message":"upstream says no"}`))
			}))
			defer srv.Close()

			c, err := New(Config{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.GetNote(context.Background(), "1")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.CodeOf(err))
			assert.Contains(t, errors.Unwrap(err).Error(), "upstream says no")
			assert.NotContains(t, errs.MessageOf(err), "upstream says no")
		})
	}
}

func TestClient_BadTokenIsPermissionDenied(t *testing.T) {
	c, _ := newAPI(t)
	c.token = "wrong"
	err := c.Ping(context.Background())
	assert.Equal(t, errs.PermissionDenied, errs.CodeOf(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ListNotes(ctx, notes.ListParams{Page: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_RateLimitWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"notes":[],"totalPages":0}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = c.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"})
	assert.Error(t, err)
}
