package notes

import (
	"context"
	"math"
	"strings"
)

const maxPerPage = 100

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates and stores a new note. The API re-validates whatever the
// UI already checked.
func (s *Service) Create(ctx context.Context, input CreateNoteInput) (*Note, error) {
	input = input.Normalize()
	if err := Validate(input); err != nil {
		return nil, err
	}

	note := &Note{
		Title:   input.Title,
		Content: input.Content,
		Tag:     input.Tag,
	}
	if err := s.store.Insert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// GetByID retrieves a note by ID
func (s *Service) GetByID(ctx context.Context, id NoteID) (*Note, error) {
	return s.store.FindByID(ctx, id)
}

// List retrieves one page of notes. Out-of-range pages yield an empty page
// with the real page count.
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	p.Search = strings.TrimSpace(p.Search)

	// A skip offset past MaxInt cannot address any note; only the count is
	// needed.
	beyond := p.Page-1 > math.MaxInt/p.PerPage
	if beyond {
		p.Page = 1
	}

	list, total, err := s.store.List(ctx, p)
	if err != nil {
		return nil, err
	}
	if beyond {
		list = []Note{}
	}
	return &ListResult{
		Notes:      list,
		TotalPages: int((total + int64(p.PerPage) - 1) / int64(p.PerPage)),
	}, nil
}

// Delete removes a note by ID
func (s *Service) Delete(ctx context.Context, id NoteID) (*Note, error) {
	return s.store.Delete(ctx, id)
}
