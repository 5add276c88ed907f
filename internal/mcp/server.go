package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"notehub/internal/errs"
	"notehub/internal/listview"
	"notehub/internal/notes"
	"notehub/internal/query"
)

// API is the part of the notes API the tools need.
type API interface {
	ListNotes(ctx context.Context, p notes.ListParams) (*notes.ListResult, error)
	GetNote(ctx context.Context, id notes.NoteID) (*notes.Note, error)
	CreateNote(ctx context.Context, in notes.CreateNoteInput) (*notes.Note, error)
	DeleteNote(ctx context.Context, id notes.NoteID) (*notes.Note, error)
}

// NewServer creates an MCP server exposing the NoteHub notes. Reads go
// through the shared query cache, so tools and the web UI see the same data.
func NewServer(api API, cache *query.Client, log *slog.Logger, perPage int) *server.MCPServer {
	s := server.NewMCPServer(
		"NoteHub",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	if perPage <= 0 {
		perPage = notes.DefaultPerPage
	}
	t := &tools{api: api, cache: cache, log: log, perPage: perPage}

	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List notes newest first, one page at a time. Use this to browse notes or to find notes by text or tag."),
			mcp.WithString("search",
				mcp.Description("Optional: Only return notes whose title or content contains this text"),
			),
			mcp.WithString("tag",
				mcp.Description("Optional: One of Todo, Work, Personal, Meeting, Shopping. Omit or use All for every tag."),
			),
			mcp.WithNumber("page",
				mcp.Description("Page number starting at 1 (default: 1)"),
			),
		),
		t.listNotes,
	)

	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a specific note by its ID. Use this when you have a note ID and need the full content."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
		),
		t.getNote,
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note. Titles are 3-50 characters, content at most 500 characters."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title"),
			),
			mcp.WithString("content",
				mcp.Description("Optional: Note body, markdown allowed"),
			),
			mcp.WithString("tag",
				mcp.Description("One of Todo, Work, Personal, Meeting, Shopping (default: Todo)"),
			),
		),
		t.createNote,
	)

	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete a note by its ID."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
		),
		t.deleteNote,
	)

	return s
}

// NoteResult represents a note in tool responses
type NoteResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PageResult is one page of notes.
type PageResult struct {
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	Notes      []NoteResult `json:"notes"`
}

type tools struct {
	api     API
	cache   *query.Client
	log     *slog.Logger
	perPage int
}

func (t *tools) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetInt("page", 1)
	if page < 1 {
		return mcp.NewToolResultError("page must be 1 or greater"), nil
	}
	st := listview.New(notes.ParseTagFilter(req.GetString("tag", "")), "", 1)
	st.Commit(req.GetString("search", ""))
	st.SetPage(page)

	res, err := st.Fetch(ctx, listview.Query{Cache: t.cache, Source: t.api, PerPage: t.perPage})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %s", errs.MessageOf(err))), nil
	}

	return jsonResult(PageResult{
		Page:       st.Page,
		TotalPages: res.TotalPages,
		Notes:      notesToResults(res.Notes),
	})
}

func (t *tools) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	nid := notes.NoteID(id)

	note, err := query.Fetch(ctx, t.cache, query.NoteKey(nid), func(ctx context.Context) (*notes.Note, error) {
		return t.api.GetNote(ctx, nid)
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %s", errs.MessageOf(err))), nil
	}
	return jsonResult(noteToResult(*note))
}

func (t *tools) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}
	in := notes.CreateNoteInput{
		Title:   title,
		Content: req.GetString("content", ""),
		Tag:     notes.Tag(req.GetString("tag", string(notes.TagTodo))),
	}.Normalize()
	if err := notes.Validate(in); err != nil {
		return mcp.NewToolResultError(errs.MessageOf(err)), nil
	}

	note, err := t.api.CreateNote(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %s", errs.MessageOf(err))), nil
	}
	n := t.cache.Invalidate(query.AllNotes())
	t.log.Info("note created via mcp", "id", note.ID, "invalidated", n)
	return jsonResult(noteToResult(*note))
}

func (t *tools) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	nid := notes.NoteID(id)

	note, err := t.api.DeleteNote(ctx, nid)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete note: %s", errs.MessageOf(err))), nil
	}
	t.cache.Invalidate(query.AllNotes())
	t.cache.Remove(query.NoteKey(nid))
	return jsonResult(noteToResult(*note))
}

// Helper functions

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func noteToResult(n notes.Note) NoteResult {
	return NoteResult{
		ID:        n.ID.String(),
		Title:     n.Title,
		Content:   n.Content,
		Tag:       string(n.Tag),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func notesToResults(list []notes.Note) []NoteResult {
	results := make([]NoteResult, len(list))
	for i, n := range list {
		results[i] = noteToResult(n)
	}
	return results
}
