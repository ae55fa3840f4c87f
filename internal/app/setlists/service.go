package setlists

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"worshipsongs/internal/models"
	"worshipsongs/internal/store"
)

// Store captures the persistence needs for setlist workflows.
type Store interface {
	ListSongs(ctx context.Context) ([]*models.Song, error)

	ListSetlists(ctx context.Context) ([]*models.Setlist, error)
	GetSetlist(ctx context.Context, id uuid.UUID) (*models.Setlist, error)
	CreateSetlist(ctx context.Context, setlist *models.Setlist) error
	UpdateSetlist(ctx context.Context, setlist *models.Setlist) error
	DeleteSetlists(ctx context.Context, ids ...uuid.UUID) error

	ListSetlistItems(ctx context.Context, setlistID uuid.UUID) ([]models.SetlistItem, error)
	InsertSetlistItems(ctx context.Context, setlistID uuid.UUID, items []models.SetlistItem, modified time.Time) error
	DeleteSetlistItems(ctx context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) error
	ReorderSetlistItems(ctx context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) error
}

// View is a setlist together with its ordered items.
type View struct {
	*models.Setlist
	Items []models.SetlistItem `json:"items"`
}

// Info is the editable header of a setlist.
type Info struct {
	Name  string     `json:"name"`
	Date  *time.Time `json:"date,omitempty"`
	Notes string     `json:"notes"`
}

// Service exposes setlist workflows to request handlers, one state object per call.
type Service interface {
	List(ctx context.Context, search string) ([]*models.Setlist, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	Create(ctx context.Context, info Info) (*models.Setlist, error)
	Update(ctx context.Context, id uuid.UUID, info Info) (*models.Setlist, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Candidates(ctx context.Context, id uuid.UUID, search string) ([]*models.Song, error)
	AddSongs(ctx context.Context, id uuid.UUID, songIDs []uuid.UUID) (*View, error)
	RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*View, error)
	Reorder(ctx context.Context, id uuid.UUID, from []int, to int) (*View, error)
	Export(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, search string) ([]*models.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list := NewList(s.store)
	if err := list.Fetch(ctx); err != nil {
		return nil, err
	}
	list.SetSearch(search)
	return list.Visible(), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail.View(), nil
}

func (s *service) Create(ctx context.Context, info Info) (*models.Setlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return NewList(s.store).Create(ctx, info.Name, info.Date, info.Notes)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, info Info) (*models.Setlist, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := detail.UpdateInfo(ctx, info.Name, info.Date, info.Notes); err != nil {
		return nil, err
	}
	return detail.Setlist(), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteSetlists(ctx, id)
}

func (s *service) Candidates(ctx context.Context, id uuid.UUID, search string) ([]*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	picker := NewPicker(s.store, id)
	if err := picker.Load(ctx); err != nil {
		return nil, err
	}
	picker.SetSearch(search)
	return picker.Visible(), nil
}

// AddSongs appends songIDs in the given order. Songs already in the setlist are skipped.
func (s *service) AddSongs(ctx context.Context, id uuid.UUID, songIDs []uuid.UUID) (*View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	picker := NewPicker(s.store, id)
	if err := picker.Load(ctx); err != nil {
		return nil, err
	}
	for _, songID := range songIDs {
		if !picker.Known(songID) {
			return nil, store.ErrSongNotFound
		}
		if !picker.IsSelected(songID) {
			picker.Toggle(songID)
		}
	}
	if picker.HasSelection() {
		if _, err := picker.Save(ctx); err != nil {
			return nil, err
		}
	}
	return picker.Detail().View(), nil
}

func (s *service) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*View, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	offset := -1
	for i, item := range detail.Visible() {
		if item.ID == itemID {
			offset = i
			break
		}
	}
	if offset < 0 {
		return nil, store.ErrSetlistItemNotFound
	}
	if err := detail.RemoveSongs(ctx, offset); err != nil {
		return nil, err
	}
	return detail.View(), nil
}

func (s *service) Reorder(ctx context.Context, id uuid.UUID, from []int, to int) (*View, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := detail.Reorder(ctx, from, to); err != nil {
		return nil, err
	}
	return detail.View(), nil
}

func (s *service) Export(ctx context.Context, id uuid.UUID, w io.Writer) error {
	detail, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return EncodeSheet(w, detail.Sheet())
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail := NewDetail(s.store, id)
	if err := detail.Load(ctx); err != nil {
		if errors.Is(err, store.ErrSetlistNotFound) {
			return nil, store.ErrSetlistNotFound
		}
		return nil, err
	}
	return detail, nil
}
