package notes

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps notes in process. Used when no MongoDB is configured and
// in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	notes  []Note // newest first
	nextID int
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryStore) Insert(_ context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n.ID = NoteID(strconv.Itoa(m.nextID))
	n.CreatedAt = now
	n.UpdatedAt = now
	m.nextID++
	m.notes = append([]Note{*n}, m.notes...)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id NoteID) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, n := range m.notes {
		if n.ID == id {
			found := n
			return &found, nil
		}
	}
	return nil, ErrNoteNotFound
}

func (m *MemoryStore) List(_ context.Context, p ListParams) ([]Note, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tag := p.Tag.APIValue()
	search := strings.ToLower(p.Search)
	var matched []Note
	for _, n := range m.notes {
		if tag != "" && string(n.Tag) != tag {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(n.Title), search) &&
			!strings.Contains(strings.ToLower(n.Content), search) {
			continue
		}
		matched = append(matched, n)
	}

	total := int64(len(matched))
	start := (p.Page - 1) * p.PerPage
	if start < 0 || start >= len(matched) {
		return []Note{}, total, nil
	}
	end := min(start+p.PerPage, len(matched))
	page := make([]Note, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (m *MemoryStore) Delete(_ context.Context, id NoteID) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, n := range m.notes {
		if n.ID == id {
			m.notes = append(m.notes[:i], m.notes[i+1:]...)
			return &n, nil
		}
	}
	return nil, ErrNoteNotFound
}
