package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"worshipsongs/internal/models"
)

// Memory keeps songs and setlists in process memory. It mirrors Store and is used for local runs and tests.
type Memory struct {
	mu       sync.RWMutex
	songs    map[uuid.UUID]*models.Song
	setlists map[uuid.UUID]*models.Setlist
	items    map[uuid.UUID][]models.SetlistItem // by setlist, kept in position order
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		songs:    make(map[uuid.UUID]*models.Song),
		setlists: make(map[uuid.UUID]*models.Setlist),
		items:    make(map[uuid.UUID][]models.SetlistItem),
	}
}

// Ping always succeeds.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// ListSongs returns every song ordered by title, case-insensitively.
func (m *Memory) ListSongs(_ context.Context) ([]*models.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Song, 0, len(m.songs))
	for _, song := range m.songs {
		result = append(result, song.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].Title), strings.ToLower(result[j].Title)
		if a != b {
			return a < b
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

// GetSong returns a song by ID.
func (m *Memory) GetSong(_ context.Context, id uuid.UUID) (*models.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	song, ok := m.songs[id]
	if !ok {
		return nil, ErrSongNotFound
	}
	return song.Clone(), nil
}

// CreateSong stores a new song.
func (m *Memory) CreateSong(_ context.Context, song *models.Song) error {
	if song == nil {
		return errors.New("song is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	m.songs[song.ID] = normalizeSong(song.Clone())
	return nil
}

// UpdateSong replaces a stored song, keeping its creation date.
func (m *Memory) UpdateSong(_ context.Context, song *models.Song) error {
	if song == nil {
		return errors.New("song is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.songs[song.ID]
	if !ok {
		return ErrSongNotFound
	}
	updated := normalizeSong(song.Clone())
	updated.DateCreated = existing.DateCreated
	m.songs[song.ID] = updated
	return nil
}

// DeleteSongs removes songs and their setlist entries, renumbering and touching affected setlists.
func (m *Memory) DeleteSongs(_ context.Context, modified time.Time, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.songs[id]; ok {
			delete(m.songs, id)
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return ErrSongNotFound
	}

	for setlistID, items := range m.items {
		kept := items[:0:0]
		for _, item := range items {
			if !removed[item.SongID] {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(items) {
			m.items[setlistID] = renumber(kept)
			if setlist, ok := m.setlists[setlistID]; ok {
				setlist.DateModified = modified
			}
		}
	}
	return nil
}

// ListSetlists returns every setlist, newest first.
func (m *Memory) ListSetlists(_ context.Context) ([]*models.Setlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Setlist, 0, len(m.setlists))
	for id, setlist := range m.setlists {
		clone := setlist.Clone()
		clone.SongCount = len(m.items[id])
		result = append(result, clone)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateCreated.Equal(result[j].DateCreated) {
			return result[i].DateCreated.After(result[j].DateCreated)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return result, nil
}

// GetSetlist returns a setlist by ID.
func (m *Memory) GetSetlist(_ context.Context, id uuid.UUID) (*models.Setlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	setlist, ok := m.setlists[id]
	if !ok {
		return nil, ErrSetlistNotFound
	}
	clone := setlist.Clone()
	clone.SongCount = len(m.items[id])
	return clone, nil
}

// CreateSetlist stores a new setlist.
func (m *Memory) CreateSetlist(_ context.Context, setlist *models.Setlist) error {
	if setlist == nil {
		return errors.New("setlist is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if setlist.ID == uuid.Nil {
		setlist.ID = uuid.New()
	}
	m.setlists[setlist.ID] = normalizeSetlist(setlist.Clone())
	return nil
}

// UpdateSetlist replaces name, date and notes of a setlist.
func (m *Memory) UpdateSetlist(_ context.Context, setlist *models.Setlist) error {
	if setlist == nil {
		return errors.New("setlist is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.setlists[setlist.ID]
	if !ok {
		return ErrSetlistNotFound
	}
	updated := normalizeSetlist(setlist.Clone())
	updated.DateCreated = existing.DateCreated
	m.setlists[setlist.ID] = updated
	return nil
}

// DeleteSetlists removes setlists and their items.
func (m *Memory) DeleteSetlists(_ context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, id := range ids {
		if _, ok := m.setlists[id]; ok {
			delete(m.setlists, id)
			delete(m.items, id)
			found = true
		}
	}
	if !found {
		return ErrSetlistNotFound
	}
	return nil
}

// ListSetlistItems returns the items of a setlist in position order, joined with their songs.
func (m *Memory) ListSetlistItems(_ context.Context, setlistID uuid.UUID) ([]models.SetlistItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.items[setlistID]
	result := make([]models.SetlistItem, 0, len(items))
	for _, item := range items {
		clone := item.Clone()
		clone.Song = m.songs[item.SongID].Clone()
		result = append(result, clone)
	}
	return result, nil
}

// InsertSetlistItems adds items to a setlist atomically.
func (m *Memory) InsertSetlistItems(_ context.Context, setlistID uuid.UUID, items []models.SetlistItem, modified time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	setlist, ok := m.setlists[setlistID]
	if !ok {
		return ErrSetlistNotFound
	}

	current := m.items[setlistID]
	members := make(map[uuid.UUID]bool, len(current)+len(items))
	positions := make(map[int]bool, len(current)+len(items))
	for _, item := range current {
		members[item.SongID] = true
		positions[item.Position] = true
	}

	staged := make([]models.SetlistItem, 0, len(items))
	for _, item := range items {
		if _, ok := m.songs[item.SongID]; !ok {
			return ErrSongNotFound
		}
		if members[item.SongID] {
			return ErrDuplicateSong
		}
		if positions[item.Position] {
			return ErrOrderMismatch
		}
		members[item.SongID] = true
		positions[item.Position] = true
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SetlistID = setlistID
		item.Song = nil
		staged = append(staged, item)
	}

	merged := append(append(make([]models.SetlistItem, 0, len(current)+len(staged)), current...), staged...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Position < merged[j].Position })
	m.items[setlistID] = merged
	setlist.DateModified = modified
	return nil
}

// DeleteSetlistItems removes items and renumbers the remainder from zero.
func (m *Memory) DeleteSetlistItems(_ context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	setlist, ok := m.setlists[setlistID]
	if !ok {
		return ErrSetlistNotFound
	}

	drop := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	items := m.items[setlistID]
	kept := make([]models.SetlistItem, 0, len(items))
	for _, item := range items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return ErrSetlistItemNotFound
	}

	m.items[setlistID] = renumber(kept)
	setlist.DateModified = modified
	return nil
}

// ReorderSetlistItems assigns position i to itemIDs[i].
func (m *Memory) ReorderSetlistItems(_ context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	setlist, ok := m.setlists[setlistID]
	if !ok {
		return ErrSetlistNotFound
	}

	items := m.items[setlistID]
	if len(items) != len(itemIDs) {
		return ErrOrderMismatch
	}
	byID := make(map[uuid.UUID]models.SetlistItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	reordered := make([]models.SetlistItem, 0, len(itemIDs))
	for position, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			return ErrSetlistItemNotFound
		}
		delete(byID, id)
		item.Position = position
		item.DateModified = modified
		reordered = append(reordered, item)
	}

	m.items[setlistID] = reordered
	setlist.DateModified = modified
	return nil
}

func renumber(items []models.SetlistItem) []models.SetlistItem {
	for i := range items {
		items[i].Position = i
	}
	return items
}

// normalizeSong mirrors what the database does with empty optional columns.
func normalizeSong(song *models.Song) *models.Song {
	song.Artist = models.OptionalString(models.StringValue(song.Artist))
	song.Copyright = models.OptionalString(models.StringValue(song.Copyright))
	song.Content = models.OptionalString(models.StringValue(song.Content))
	return song
}

func normalizeSetlist(setlist *models.Setlist) *models.Setlist {
	setlist.Notes = models.OptionalString(models.StringValue(setlist.Notes))
	if setlist.Date != nil {
		d := models.CalendarDate(*setlist.Date)
		setlist.Date = &d
	}
	setlist.SongCount = 0
	return setlist
}
