package songs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
)

// SortOrder selects how the song list is ordered.
type SortOrder int

const (
	SortByTitle SortOrder = iota
	SortByArtist
	SortByRecent
)

func (o SortOrder) String() string {
	switch o {
	case SortByArtist:
		return "artist"
	case SortByRecent:
		return "recent"
	default:
		return "title"
	}
}

// ParseSortOrder maps "title", "artist" or "recent" to a SortOrder. Empty input means title.
func ParseSortOrder(value string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "title":
		return SortByTitle, nil
	case "artist":
		return SortByArtist, nil
	case "recent":
		return SortByRecent, nil
	}
	return SortByTitle, fmt.Errorf("unknown sort order %q", value)
}

// List is the song library screen: every song, a search query and display toggles.
type List struct {
	app.State

	store         Store
	songs         []*models.Song
	search        string
	favoritesOnly bool
	order         SortOrder
}

func NewList(store Store) *List {
	return &List{store: store}
}

// Fetch reloads every song from the store.
func (l *List) Fetch(ctx context.Context) error {
	if err := l.Begin(); err != nil {
		return err
	}
	defer l.End()
	return l.fetch(ctx)
}

func (l *List) fetch(ctx context.Context) error {
	songs, err := l.store.ListSongs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch songs")
		l.songs = nil
		l.Fail(fmt.Sprintf("Failed to load songs: %v", err))
		l.Changed()
		return fmt.Errorf("fetch songs: %w", err)
	}
	l.songs = songs
	l.Changed()
	return nil
}

func (l *List) SetSearch(text string) {
	l.search = text
	l.Changed()
}

func (l *List) SetFavoritesOnly(on bool) {
	l.favoritesOnly = on
	l.Changed()
}

func (l *List) SetSortOrder(order SortOrder) {
	l.order = order
	l.Changed()
}

// Visible returns the songs matching the search and favorites toggle in the selected order.
func (l *List) Visible() []*models.Song {
	out := FilterSongs(l.songs, l.search)
	if l.favoritesOnly {
		favorites := out[:0]
		for _, song := range out {
			if song.IsFavorite {
				favorites = append(favorites, song)
			}
		}
		out = favorites
	}
	sortSongs(out, l.order)
	return out
}

// Delete removes the songs at the given positions of Visible, then reloads. Setlist entries for them go too.
func (l *List) Delete(ctx context.Context, offsets ...int) error {
	visible := l.Visible()
	if err := app.CheckOffsets(offsets, len(visible)); err != nil {
		return err
	}
	if len(offsets) == 0 {
		return nil
	}
	if err := l.Begin(); err != nil {
		return err
	}
	defer l.End()

	ids := make([]uuid.UUID, 0, len(offsets))
	seen := make(map[int]bool, len(offsets))
	for _, offset := range offsets {
		if seen[offset] {
			continue
		}
		seen[offset] = true
		ids = append(ids, visible[offset].ID)
	}

	if err := l.store.DeleteSongs(ctx, l.Now(), ids...); err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("delete songs")
		l.Fail(fmt.Sprintf("Failed to delete songs: %v", err))
		l.Changed()
		return fmt.Errorf("delete songs: %w", app.Stale(err))
	}
	return l.fetch(ctx)
}

// ToggleFavorite flips the favorite flag of one song and stores it.
func (l *List) ToggleFavorite(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	if err := l.Begin(); err != nil {
		return nil, err
	}
	defer l.End()

	song, err := l.store.GetSong(ctx, id)
	if err != nil {
		l.Fail(fmt.Sprintf("Failed to update song: %v", err))
		l.Changed()
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	song.IsFavorite = !song.IsFavorite
	song.DateModified = l.Now()
	if err := l.store.UpdateSong(ctx, song); err != nil {
		log.Error().Err(err).Str("song_id", id.String()).Msg("toggle favorite")
		l.Fail(fmt.Sprintf("Failed to update song: %v", err))
		l.Changed()
		return nil, fmt.Errorf("toggle favorite: %w", app.Stale(err))
	}

	for i, existing := range l.songs {
		if existing.ID == id {
			l.songs[i] = song.Clone()
		}
	}
	l.Changed()
	return song, nil
}

// FilterSongs keeps songs whose title or artist contains query, ignoring case.
// A blank query keeps everything.
func FilterSongs(songs []*models.Song, query string) []*models.Song {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]*models.Song, 0, len(songs))
	for _, song := range songs {
		if query == "" ||
			strings.Contains(strings.ToLower(song.Title), query) ||
			strings.Contains(strings.ToLower(song.ArtistName()), query) {
			out = append(out, song)
		}
	}
	return out
}

func sortSongs(songs []*models.Song, order SortOrder) {
	byTitle := func(a, b *models.Song) bool {
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if at != bt {
			return at < bt
		}
		return a.ID.String() < b.ID.String()
	}

	sort.SliceStable(songs, func(i, j int) bool {
		a, b := songs[i], songs[j]
		switch order {
		case SortByArtist:
			aa, ba := strings.ToLower(a.ArtistName()), strings.ToLower(b.ArtistName())
			if aa != ba {
				return aa < ba
			}
		case SortByRecent:
			if !a.DateModified.Equal(b.DateModified) {
				return a.DateModified.After(b.DateModified)
			}
		}
		return byTitle(a, b)
	})
}
