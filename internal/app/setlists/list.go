package setlists

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
)

// ErrNameRequired is returned when a setlist is created or renamed with a blank name.
var ErrNameRequired = errors.New("setlist name is required")

const (
	msgNameRequired = "Setlist name is required"
	msgNameEmpty    = "Setlist name cannot be empty"
)

// List is the setlist overview: every setlist, newest first, with a name filter.
type List struct {
	app.State

	store    Store
	setlists []*models.Setlist
	search   string
}

func NewList(store Store) *List {
	return &List{store: store}
}

// Fetch reloads every setlist from the store.
func (l *List) Fetch(ctx context.Context) error {
	if err := l.Begin(); err != nil {
		return err
	}
	defer l.End()
	return l.fetch(ctx)
}

func (l *List) fetch(ctx context.Context) error {
	setlists, err := l.store.ListSetlists(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch setlists")
		l.setlists = nil
		l.Fail(fmt.Sprintf("Failed to load setlists: %v", err))
		l.Changed()
		return fmt.Errorf("fetch setlists: %w", err)
	}
	sort.SliceStable(setlists, func(i, j int) bool {
		return setlists[i].DateCreated.After(setlists[j].DateCreated)
	})
	l.setlists = setlists
	l.Changed()
	return nil
}

func (l *List) SetSearch(text string) {
	l.search = text
	l.Changed()
}

// Visible returns the setlists whose name contains the search text, ignoring case.
func (l *List) Visible() []*models.Setlist {
	query := strings.ToLower(strings.TrimSpace(l.search))
	out := make([]*models.Setlist, 0, len(l.setlists))
	for _, setlist := range l.setlists {
		if query == "" || strings.Contains(strings.ToLower(setlist.Name), query) {
			out = append(out, setlist)
		}
	}
	return out
}

// Create stores a new empty setlist in one write and reloads the list.
// A failed reload leaves the stored setlist in place and is only recorded as a message.
func (l *List) Create(ctx context.Context, name string, date *time.Time, notes string) (*models.Setlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		l.Fail(msgNameRequired)
		l.Changed()
		return nil, ErrNameRequired
	}
	if err := l.Begin(); err != nil {
		return nil, err
	}
	defer l.End()
	l.ClearError()

	now := l.Now()
	setlist := &models.Setlist{
		ID:           uuid.New(),
		Name:         name,
		Notes:        models.OptionalString(strings.TrimSpace(notes)),
		DateCreated:  now,
		DateModified: now,
	}
	if date != nil {
		d := models.CalendarDate(*date)
		setlist.Date = &d
	}

	if err := l.store.CreateSetlist(ctx, setlist); err != nil {
		log.Error().Err(err).Str("name", name).Msg("create setlist")
		l.Fail(fmt.Sprintf("Failed to create setlist: %v", err))
		l.Changed()
		return nil, fmt.Errorf("create setlist: %w", err)
	}
	_ = l.fetch(ctx)
	return setlist, nil
}

// Delete removes the setlists at the given positions of Visible along with their items, then reloads.
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
	for _, offset := range offsets {
		ids = append(ids, visible[offset].ID)
	}
	if err := l.store.DeleteSetlists(ctx, ids...); err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("delete setlists")
		l.Fail(fmt.Sprintf("Failed to delete setlists: %v", err))
		l.Changed()
		return fmt.Errorf("delete setlists: %w", app.Stale(err))
	}
	return l.fetch(ctx)
}
