package setlists

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
)

// Detail manages the ordered membership of one setlist.
type Detail struct {
	app.State

	store     Store
	setlistID uuid.UUID
	setlist   *models.Setlist
	items     []models.SetlistItem
	search    string
}

func NewDetail(store Store, setlistID uuid.UUID) *Detail {
	return &Detail{store: store, setlistID: setlistID}
}

// Load reads the setlist header and its items in position order.
func (d *Detail) Load(ctx context.Context) error {
	if err := d.Begin(); err != nil {
		return err
	}
	defer d.End()
	return d.reload(ctx)
}

func (d *Detail) reload(ctx context.Context) error {
	setlist, err := d.store.GetSetlist(ctx, d.setlistID)
	if err != nil {
		d.Fail(fmt.Sprintf("Failed to load setlist: %v", err))
		d.Changed()
		return fmt.Errorf("load setlist: %w", app.Stale(err))
	}
	items, err := d.store.ListSetlistItems(ctx, d.setlistID)
	if err != nil {
		log.Error().Err(err).Str("setlist_id", d.setlistID.String()).Msg("load setlist items")
		d.Fail(fmt.Sprintf("Failed to load setlist: %v", err))
		d.Changed()
		return fmt.Errorf("load setlist items: %w", err)
	}
	d.setlist = setlist
	d.items = items
	d.setlist.SongCount = len(items)
	d.Changed()
	return nil
}

// Setlist returns a copy of the loaded header, or nil before Load.
func (d *Detail) Setlist() *models.Setlist {
	return d.setlist.Clone()
}

// Items returns every item in position order.
func (d *Detail) Items() []models.SetlistItem {
	out := make([]models.SetlistItem, len(d.items))
	for i, item := range d.items {
		out[i] = item.Clone()
	}
	return out
}

// View bundles the header and items.
func (d *Detail) View() *View {
	return &View{Setlist: d.Setlist(), Items: d.Items()}
}

// Contains reports whether songID is already in the setlist.
func (d *Detail) Contains(songID uuid.UUID) bool {
	for _, item := range d.items {
		if item.SongID == songID {
			return true
		}
	}
	return false
}

func (d *Detail) SetSearch(text string) {
	d.search = text
	d.Changed()
}

// Visible returns the items whose song title or artist contains the search text.
func (d *Detail) Visible() []models.SetlistItem {
	query := strings.ToLower(strings.TrimSpace(d.search))
	out := make([]models.SetlistItem, 0, len(d.items))
	for _, item := range d.items {
		if query == "" || (item.Song != nil &&
			(strings.Contains(strings.ToLower(item.Song.Title), query) ||
				strings.Contains(strings.ToLower(item.Song.ArtistName()), query))) {
			out = append(out, item.Clone())
		}
	}
	return out
}

func (d *Detail) SongCount() int {
	return len(d.items)
}

// SongCountText renders the count for display: "No songs", "1 song" or "N songs".
func (d *Detail) SongCountText() string {
	switch n := len(d.items); n {
	case 0:
		return "No songs"
	case 1:
		return "1 song"
	default:
		return fmt.Sprintf("%d songs", n)
	}
}

// FormattedDate renders the event date, or "No date set".
func (d *Detail) FormattedDate() string {
	if d.setlist == nil || d.setlist.Date == nil {
		return "No date set"
	}
	return d.setlist.Date.Format("Jan 2, 2006")
}

// AddSongs appends songs in the given order after the current items. Songs already present,
// and repeats within songs, are skipped. It returns how many items were added.
func (d *Detail) AddSongs(ctx context.Context, songs ...*models.Song) (int, error) {
	if err := d.Begin(); err != nil {
		return 0, err
	}
	defer d.End()
	d.ClearError()

	now := d.Now()
	seen := make(map[uuid.UUID]bool, len(d.items)+len(songs))
	for _, item := range d.items {
		seen[item.SongID] = true
	}
	position := len(d.items)
	var items []models.SetlistItem
	for _, song := range songs {
		if song == nil || seen[song.ID] {
			continue
		}
		seen[song.ID] = true
		items = append(items, models.SetlistItem{
			ID:           uuid.New(),
			SetlistID:    d.setlistID,
			SongID:       song.ID,
			Position:     position,
			DateCreated:  now,
			DateModified: now,
			Song:         song.Clone(),
		})
		position++
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := d.store.InsertSetlistItems(ctx, d.setlistID, items, now); err != nil {
		log.Error().Err(err).Str("setlist_id", d.setlistID.String()).Int("count", len(items)).Msg("add setlist songs")
		d.Fail(fmt.Sprintf("Failed to add songs to setlist: %v", err))
		d.Changed()
		return 0, fmt.Errorf("add songs: %w", app.Stale(err))
	}
	if err := d.reload(ctx); err != nil {
		// The insert is committed; keep the new items so membership stays accurate.
		d.items = append(d.items, items...)
		if d.setlist != nil {
			d.setlist.SongCount = len(d.items)
			d.setlist.DateModified = now
		}
		return len(items), err
	}
	return len(items), nil
}

// RemoveSongs removes the items at the given positions of Visible. Remaining items are
// renumbered from zero without gaps.
func (d *Detail) RemoveSongs(ctx context.Context, offsets ...int) error {
	visible := d.Visible()
	if err := app.CheckOffsets(offsets, len(visible)); err != nil {
		return err
	}
	if len(offsets) == 0 {
		return nil
	}
	if err := d.Begin(); err != nil {
		return err
	}
	defer d.End()
	d.ClearError()

	ids := make([]uuid.UUID, 0, len(offsets))
	for _, offset := range offsets {
		ids = append(ids, visible[offset].ID)
	}
	if err := d.store.DeleteSetlistItems(ctx, d.setlistID, ids, d.Now()); err != nil {
		log.Error().Err(err).Str("setlist_id", d.setlistID.String()).Msg("remove setlist songs")
		d.Fail(fmt.Sprintf("Failed to remove songs from setlist: %v", err))
		d.Changed()
		return fmt.Errorf("remove songs: %w", app.Stale(err))
	}
	return d.reload(ctx)
}

// Reorder moves the items at offsets so they land before the item at to, in the full
// (unfiltered) order, and stores the new order. If the store rejects it, the previous order is kept.
func (d *Detail) Reorder(ctx context.Context, from []int, to int) error {
	reordered, err := move(d.items, from, to)
	if err != nil {
		return err
	}
	if err := d.Begin(); err != nil {
		return err
	}
	defer d.End()
	d.ClearError()

	now := d.Now()
	previous := d.items
	ids := make([]uuid.UUID, len(reordered))
	for i := range reordered {
		reordered[i].Position = i
		reordered[i].DateModified = now
		ids[i] = reordered[i].ID
	}
	d.items = reordered
	d.Changed()

	if err := d.store.ReorderSetlistItems(ctx, d.setlistID, ids, now); err != nil {
		log.Error().Err(err).Str("setlist_id", d.setlistID.String()).Msg("reorder setlist")
		d.items = previous
		d.Fail(fmt.Sprintf("Failed to save song order: %v", err))
		d.Changed()
		return fmt.Errorf("reorder setlist: %w", app.Stale(err))
	}
	if d.setlist != nil {
		d.setlist.DateModified = now
	}
	return nil
}

// UpdateInfo renames the setlist and sets its date and notes. Blank notes are cleared.
func (d *Detail) UpdateInfo(ctx context.Context, name string, date *time.Time, notes string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		d.Fail(msgNameEmpty)
		d.Changed()
		return ErrNameRequired
	}
	if d.setlist == nil {
		return fmt.Errorf("update setlist: %w", app.ErrStaleReference)
	}
	if err := d.Begin(); err != nil {
		return err
	}
	defer d.End()
	d.ClearError()

	updated := d.setlist.Clone()
	updated.Name = name
	updated.Date = nil
	if date != nil {
		day := models.CalendarDate(*date)
		updated.Date = &day
	}
	updated.Notes = models.OptionalString(strings.TrimSpace(notes))
	updated.DateModified = d.Now()

	if err := d.store.UpdateSetlist(ctx, updated); err != nil {
		log.Error().Err(err).Str("setlist_id", d.setlistID.String()).Msg("update setlist")
		d.Fail(fmt.Sprintf("Failed to update setlist: %v", err))
		d.Changed()
		return fmt.Errorf("update setlist: %w", app.Stale(err))
	}
	d.setlist = updated
	d.Changed()
	return nil
}
