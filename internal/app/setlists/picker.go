package setlists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
)

// ErrNothingSelected is returned when the picker is saved with an empty selection.
var ErrNothingSelected = errors.New("no songs selected")

const msgNothingSelected = "No songs selected"

// Picker chooses songs from the library to append to a setlist.
// Songs already in the setlist are never offered.
type Picker struct {
	app.State

	store    Store
	detail   *Detail
	songs    []*models.Song
	search   string
	selected []uuid.UUID
	chosen   map[uuid.UUID]bool
}

func NewPicker(store Store, setlistID uuid.UUID) *Picker {
	return &Picker{
		store:  store,
		detail: NewDetail(store, setlistID),
		chosen: make(map[uuid.UUID]bool),
	}
}

// Load reads the target setlist and the song library.
func (p *Picker) Load(ctx context.Context) error {
	if err := p.Begin(); err != nil {
		return err
	}
	defer p.End()

	if err := p.detail.Load(ctx); err != nil {
		p.Fail(p.detail.ErrorMessage())
		p.Changed()
		return err
	}
	songs, err := p.store.ListSongs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load picker songs")
		p.Fail(fmt.Sprintf("Failed to load songs: %v", err))
		p.Changed()
		return fmt.Errorf("load songs: %w", err)
	}
	p.songs = songs
	p.refilter()
	return nil
}

// Detail returns the membership manager of the target setlist.
func (p *Picker) Detail() *Detail {
	return p.detail
}

// Known reports whether songID is in the loaded library.
func (p *Picker) Known(songID uuid.UUID) bool {
	for _, song := range p.songs {
		if song.ID == songID {
			return true
		}
	}
	return false
}

// IsInSetlist reports whether songID is already a member of the target setlist.
func (p *Picker) IsInSetlist(songID uuid.UUID) bool {
	return p.detail.Contains(songID)
}

// Available returns library songs not yet in the setlist.
func (p *Picker) Available() []*models.Song {
	out := make([]*models.Song, 0, len(p.songs))
	for _, song := range p.songs {
		if !p.detail.Contains(song.ID) {
			out = append(out, song)
		}
	}
	return out
}

// Visible returns available songs whose title, artist or key contains the search text.
func (p *Picker) Visible() []*models.Song {
	query := strings.ToLower(strings.TrimSpace(p.search))
	available := p.Available()
	if query == "" {
		return available
	}
	out := available[:0]
	for _, song := range available {
		if strings.Contains(strings.ToLower(song.Title), query) ||
			strings.Contains(strings.ToLower(song.ArtistName()), query) ||
			strings.Contains(strings.ToLower(song.Key), query) {
			out = append(out, song)
		}
	}
	return out
}

// SetSearch changes the filter and drops selected songs that are no longer visible.
func (p *Picker) SetSearch(text string) {
	p.search = text
	p.refilter()
}

func (p *Picker) refilter() {
	visible := make(map[uuid.UUID]bool)
	for _, song := range p.Visible() {
		visible[song.ID] = true
	}
	kept := p.selected[:0]
	for _, id := range p.selected {
		if visible[id] {
			kept = append(kept, id)
		} else {
			delete(p.chosen, id)
		}
	}
	p.selected = kept
	p.Changed()
}

// Toggle selects or deselects a visible song. Other IDs are ignored.
func (p *Picker) Toggle(songID uuid.UUID) {
	if p.chosen[songID] {
		delete(p.chosen, songID)
		for i, id := range p.selected {
			if id == songID {
				p.selected = append(p.selected[:i], p.selected[i+1:]...)
				break
			}
		}
		p.Changed()
		return
	}
	for _, song := range p.Visible() {
		if song.ID == songID {
			p.chosen[songID] = true
			p.selected = append(p.selected, songID)
			p.Changed()
			return
		}
	}
}

func (p *Picker) IsSelected(songID uuid.UUID) bool {
	return p.chosen[songID]
}

func (p *Picker) HasSelection() bool {
	return len(p.selected) > 0
}

// Selected returns the selected songs in the order they were picked.
func (p *Picker) Selected() []*models.Song {
	byID := make(map[uuid.UUID]*models.Song, len(p.songs))
	for _, song := range p.songs {
		byID[song.ID] = song
	}
	out := make([]*models.Song, 0, len(p.selected))
	for _, id := range p.selected {
		if song, ok := byID[id]; ok {
			out = append(out, song)
		}
	}
	return out
}

func (p *Picker) allSelected() bool {
	return len(p.selected) == len(p.Visible())
}

// ToggleSelectAll selects every visible song, or clears the selection if all are already selected.
func (p *Picker) ToggleSelectAll() {
	if p.allSelected() {
		p.selected = nil
		p.chosen = make(map[uuid.UUID]bool)
		p.Changed()
		return
	}
	for _, song := range p.Visible() {
		if !p.chosen[song.ID] {
			p.chosen[song.ID] = true
			p.selected = append(p.selected, song.ID)
		}
	}
	p.Changed()
}

func (p *Picker) SelectAllButtonTitle() string {
	if p.allSelected() {
		return "Deselect All"
	}
	return "Select All"
}

func (p *Picker) SaveButtonTitle() string {
	if len(p.selected) == 1 {
		return "Add 1 Song"
	}
	return fmt.Sprintf("Add %d Songs", len(p.selected))
}

// Save appends the selection to the setlist in pick order and clears it. The selection
// survives only when nothing was stored.
func (p *Picker) Save(ctx context.Context) (int, error) {
	if !p.HasSelection() {
		p.Fail(msgNothingSelected)
		p.Changed()
		return 0, ErrNothingSelected
	}
	if err := p.Begin(); err != nil {
		return 0, err
	}
	defer p.End()
	p.ClearError()

	added, err := p.detail.AddSongs(ctx, p.Selected()...)
	if added > 0 {
		p.selected = nil
		p.chosen = make(map[uuid.UUID]bool)
		p.refilter()
	}
	if err != nil {
		p.Fail(fmt.Sprintf("Failed to add songs: %v", err))
		p.Changed()
		return added, err
	}
	return added, nil
}
