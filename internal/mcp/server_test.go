package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehub/internal/notehub"
	"notehub/internal/notes"
	"notehub/internal/query"
)

func newTestTools(t *testing.T, seed int) *tools {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := notes.NewService(notes.NewMemoryStore())
	tags := notes.AllTags()
	for i := 0; i < seed; i++ {
		_, err := svc.Create(context.Background(), notes.CreateNoteInput{
			Title:   fmt.Sprintf("Note %02d", i),
			Content: fmt.Sprintf("body %d", i),
			Tag:     tags[i%len(tags)],
		})
		require.NoError(t, err)
	}
	mux := http.NewServeMux()
	notes.NewHandler(svc, discard, "secret").Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := notehub.New(notehub.Config{BaseURL: srv.URL, Token: "secret"})
	require.NoError(t, err)
	return &tools{
		api:     client,
		cache:   query.NewClient(query.Options{StaleTime: time.Minute}),
		log:     discard,
		perPage: notes.DefaultPerPage,
	}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "unexpected content type %T", res.Content[0])
	return text.Text
}

func TestNewServer_ListsTools(t *testing.T) {
	s := NewServer(nil, query.NewClient(query.Options{}), slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"list_notes", "get_note", "create_note", "delete_note"} {
		assert.Contains(t, string(out), `"name":"`+name+`"`)
	}
}

func TestListNotes_PagesAndFilters(t *testing.T) {
	tt := newTestTools(t, 15)
	ctx := context.Background()

	res, err := tt.listNotes(ctx, call(map[string]any{"page": 2}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var page PageResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Notes, 3)

	res, err = tt.listNotes(ctx, call(map[string]any{"tag": "Work", "search": "Note 1"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &page))
	require.NotEmpty(t, page.Notes)
	for _, n := range page.Notes {
		assert.Equal(t, "Work", n.Tag)
		assert.Contains(t, n.Title, "Note 1")
	}

	_, ok := query.Peek[*notes.ListResult](tt.cache, query.NotesKey("Note 1", 1, notes.FilterFor(notes.TagWork)))
	assert.True(t, ok, "list results are cached under the shared key")
}

func TestListNotes_RejectsBadPage(t *testing.T) {
	tt := newTestTools(t, 1)
	res, err := tt.listNotes(context.Background(), call(map[string]any{"page": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCreateNote_ValidatesAndInvalidates(t *testing.T) {
	tt := newTestTools(t, 2)
	ctx := context.Background()

	_, err := tt.listNotes(ctx, call(nil))
	require.NoError(t, err)
	require.Equal(t, 1, tt.cache.Len())

	res, err := tt.createNote(ctx, call(map[string]any{"title": "ab"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, notes.MsgTitleLength, resultText(t, res))

	res, err = tt.createNote(ctx, call(map[string]any{"title": "Groceries", "tag": "Holiday"}))
	require.NoError(t, err)
	assert.Equal(t, notes.MsgInvalidTag, resultText(t, res))

	res, err = tt.createNote(ctx, call(map[string]any{"title": "  Groceries ", "content": "milk"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	var created NoteResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &created))
	assert.Equal(t, "Groceries", created.Title)
	assert.Equal(t, "Todo", created.Tag)

	assert.True(t, tt.cache.StateOf(query.NotesKey("", 1, notes.All)).Invalidated)
}

func TestGetAndDeleteNote(t *testing.T) {
	tt := newTestTools(t, 3)
	ctx := context.Background()

	res, err := tt.getNote(ctx, call(map[string]any{"id": "2"}))
	require.NoError(t, err)
	var got NoteResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, "Note 01", got.Title)

	res, err = tt.deleteNote(ctx, call(map[string]any{"id": "2"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	_, cached := query.Peek[*notes.Note](tt.cache, query.NoteKey("2"))
	assert.False(t, cached)

	res, err = tt.getNote(ctx, call(map[string]any{"id": "2"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tt.getNote(ctx, call(nil))
	require.NoError(t, err)
	assert.Equal(t, "id is required", resultText(t, res))
}
