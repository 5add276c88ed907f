package notes

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, token string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(seedService(t, 13), slog.New(slog.NewTextHandler(io.Discard, nil)), token).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_ListNotes(t *testing.T) {
	srv := newTestAPI(t, "")

	resp := do(t, http.MethodGet, srv.URL+"/notes?page=2&perPage=12", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Notes, 1)
	assert.Equal(t, 2, body.TotalPages)
}

func TestHandler_ListRejectsUnknownTag(t *testing.T) {
	srv := newTestAPI(t, "")
	resp := do(t, http.MethodGet, srv.URL+"/notes?tag=Groceries", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_CreateAndGet(t *testing.T) {
	srv := newTestAPI(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/notes", "", `{"title":"Dentist","content":"Tue 10am","tag":"Personal"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Dentist", created.Title)

	resp = do(t, http.MethodGet, srv.URL+"/notes/"+created.ID.String(), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestHandler_CreateValidationError(t *testing.T) {
	srv := newTestAPI(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/notes", "", `{"title":"x","tag":"Work"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, MsgTitleLength, body["message"])

	resp = do(t, http.MethodPost, srv.URL+"/notes", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_DeleteAndNotFound(t *testing.T) {
	srv := newTestAPI(t, "")

	resp := do(t, http.MethodDelete, srv.URL+"/notes/3", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/notes/3", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_BearerToken(t *testing.T) {
	srv := newTestAPI(t, "s3cret")

	resp := do(t, http.MethodGet, srv.URL+"/notes", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/notes", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/notes", "s3cret", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
