package songs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
)

// Store captures the persistence needs for song workflows.
type Store interface {
	ListSongs(ctx context.Context) ([]*models.Song, error)
	GetSong(ctx context.Context, id uuid.UUID) (*models.Song, error)
	CreateSong(ctx context.Context, song *models.Song) error
	UpdateSong(ctx context.Context, song *models.Song) error
	DeleteSongs(ctx context.Context, modified time.Time, ids ...uuid.UUID) error
}

// Query narrows and orders a song listing.
type Query struct {
	Search        string
	FavoritesOnly bool
	Sort          SortOrder
}

// Service exposes the song workflows to request handlers, one state object per call.
type Service interface {
	List(ctx context.Context, query Query) ([]*models.Song, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Song, error)
	Create(ctx context.Context, fields Fields) (*models.Song, error)
	Update(ctx context.Context, id uuid.UUID, fields Fields) (*models.Song, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.Song, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, query Query) ([]*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list := NewList(s.store)
	if err := list.Fetch(ctx); err != nil {
		return nil, err
	}
	list.SetSearch(query.Search)
	list.SetFavoritesOnly(query.FavoritesOnly)
	list.SetSortOrder(query.Sort)
	return list.Visible(), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.GetSong(ctx, id)
}

func (s *service) Create(ctx context.Context, fields Fields) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form := NewAddForm(s.store)
	form.Fields = fields
	return form.Save(ctx)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, fields Fields) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	song, err := s.store.GetSong(ctx, id)
	if err != nil {
		return nil, err
	}
	form := NewEditForm(s.store, song)
	form.Fields = fields
	return form.Save(ctx)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteSongs(ctx, app.Now(), id)
}

func (s *service) ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewList(s.store).ToggleFavorite(ctx, id)
}
