// Package live runs the notes list over a WebSocket. The browser sends raw
// keystrokes and page clicks; the session debounces search, resolves the
// page through the shared query cache and pushes the list section back as an
// out-of-band swap.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"notehub/internal/debounce"
	"notehub/internal/listview"
	"notehub/internal/notes"
	"notehub/internal/obs"
	"notehub/internal/query"
	"notehub/internal/web"
	"notehub/views/components"
	"notehub/views/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

// Options configures sessions.
type Options struct {
	PerPage  int
	Debounce time.Duration
}

// Handler accepts live list sessions.
type Handler struct {
	cache    *query.Client
	src      listview.Source
	log      *slog.Logger
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(cache *query.Client, src listview.Source, log *slog.Logger, opts Options) *Handler {
	if opts.PerPage <= 0 {
		opts.PerPage = notes.DefaultPerPage
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Handler{
		cache: cache,
		src:   src,
		log:   log,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /live/notes/{tag}", h.Serve)
}

// Serve handles GET /live/notes/{tag}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	log := obs.From(r.Context(), h.log)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 1 {
		page = p
	}
	st := listview.New(notes.ParseTagFilter(r.PathValue("tag")), r.URL.Query().Get("search"), page)

	s := newSession(h, conn, st, log)
	log.Debug("live session started", "key", st.Key().String())
	s.run(r.Context())
	log.Debug("live session ended")
}

// message is an htmx ws-send payload. Unknown fields such as HEADERS are
// ignored.
type message struct {
	Action string     `json:"action"`
	Search string     `json:"search"`
	Page   pageNumber `json:"page"`
}

// pageNumber accepts a JSON number or a numeric string.
type pageNumber int

func (p *pageNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("page %q: %w", s, err)
	}
	*p = pageNumber(n)
	return nil
}

type session struct {
	h    *Handler
	conn *websocket.Conn
	log  *slog.Logger

	mu    sync.Mutex // guards state
	state *listview.State

	// last is the most recent page shown, used as the placeholder while
	// another key loads. Only the writer touches it.
	last *notes.ListResult

	search *debounce.Debouncer[string]
	kick   chan struct{}
}

func newSession(h *Handler, conn *websocket.Conn, st *listview.State, log *slog.Logger) *session {
	s := &session{
		h:     h,
		conn:  conn,
		log:   log,
		state: st,
		kick:  make(chan struct{}, 1),
	}
	s.search = debounce.New(h.opts.Debounce, s.commitSearch)
	if res, ok := query.Peek[*notes.ListResult](h.cache, st.Key()); ok {
		s.last = res
	}
	return s
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx)
	}()

	s.readLoop()

	s.search.Stop()
	cancel()
	wg.Wait()
	s.conn.Close()
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("live session read failed", "error", err)
			}
			return
		}
		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn("dropping malformed live message", "error", err)
			continue
		}
		s.handle(msg)
	}
}

func (s *session) handle(msg message) {
	switch msg.Action {
	case "search":
		s.mu.Lock()
		s.state.Input(msg.Search)
		s.mu.Unlock()
		s.search.Trigger(msg.Search)
	case "page":
		s.mu.Lock()
		changed := s.state.SetPage(int(msg.Page))
		s.mu.Unlock()
		if changed {
			s.notify()
		}
	default:
		s.log.Debug("ignoring live message", "action", msg.Action)
	}
}

// commitSearch runs once typing has paused.
func (s *session) commitSearch(text string) {
	s.mu.Lock()
	changed := s.state.Commit(text)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *session) notify() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *session) snapshot() listview.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.state
}

// writeLoop is the only writer on the connection.
func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.kick:
			if err := s.refresh(ctx); err != nil {
				s.log.Warn("live session write failed", "error", err)
				return
			}
		}
	}
}

// refresh renders the page the state selects. A key that is not cached yet
// first shows the previous page marked as loading.
func (s *session) refresh(ctx context.Context) error {
	st := s.snapshot()
	q := listview.Query{Cache: s.h.cache, Source: s.h.src, PerPage: s.h.opts.PerPage}

	if _, ok := query.Peek[*notes.ListResult](s.h.cache, st.Key()); !ok {
		if err := s.send(ctx, web.ListView(&st, s.last, true, nil)); err != nil {
			return err
		}
	}

	res, err := st.Fetch(ctx, q)
	if cur := s.snapshot(); cur.Key().String() != st.Key().String() {
		// Superseded while fetching; the pending kick renders the new key.
		return nil
	}
	if err != nil {
		s.log.Warn("live fetch failed", "key", st.Key().String(), "error", err)
		return s.send(ctx, web.ListView(&st, s.last, false, err))
	}
	s.last = res
	return s.send(ctx, web.ListView(&st, res, false, nil))
}

func (s *session) send(ctx context.Context, v models.ListView) error {
	v.Live = true
	v.OOB = true
	v.Debounce = s.h.opts.Debounce

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	w, err := s.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := components.ListSection(v).Render(ctx, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
