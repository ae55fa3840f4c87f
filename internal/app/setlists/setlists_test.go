package setlists

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
	"worshipsongs/internal/store"
)

var fixedNow = time.Date(2024, 5, 19, 8, 0, 0, 0, time.UTC)

type flakyStore struct {
	Store
	reorderErr   error
	insertErr    error
	createErr    error
	updateErr    error
	listItemsErr error
}

func (s *flakyStore) CreateSetlist(ctx context.Context, setlist *models.Setlist) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.Store.CreateSetlist(ctx, setlist)
}

func (s *flakyStore) UpdateSetlist(ctx context.Context, setlist *models.Setlist) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateSetlist(ctx, setlist)
}

func (s *flakyStore) ListSetlistItems(ctx context.Context, setlistID uuid.UUID) ([]models.SetlistItem, error) {
	if s.listItemsErr != nil {
		return nil, s.listItemsErr
	}
	return s.Store.ListSetlistItems(ctx, setlistID)
}

func (s *flakyStore) ReorderSetlistItems(ctx context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) error {
	if s.reorderErr != nil {
		return s.reorderErr
	}
	return s.Store.ReorderSetlistItems(ctx, setlistID, itemIDs, modified)
}

func (s *flakyStore) InsertSetlistItems(ctx context.Context, setlistID uuid.UUID, items []models.SetlistItem, modified time.Time) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.Store.InsertSetlistItems(ctx, setlistID, items, modified)
}

type fixture struct {
	store   *store.Memory
	songs   map[string]*models.Song
	setlist *models.Setlist
}

func newFixture(t *testing.T, titles ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: store.NewMemory(), songs: make(map[string]*models.Song)}
	for i, title := range titles {
		song := &models.Song{
			ID:            uuid.New(),
			Title:         title,
			Key:           []string{"G", "D", "A", "E", "C"}[i%5],
			TimeSignature: models.DefaultTimeSignature,
			DateCreated:   fixedNow,
			DateModified:  fixedNow,
		}
		require.NoError(t, f.store.CreateSong(ctx, song))
		f.songs[title] = song
	}

	list := NewList(f.store)
	setlist, err := list.Create(ctx, "Sunday Morning", nil, "")
	require.NoError(t, err)
	f.setlist = setlist
	return f
}

func (f *fixture) detail(t *testing.T, st Store) *Detail {
	t.Helper()
	d := NewDetail(st, f.setlist.ID)
	d.SetClock(func() time.Time { return fixedNow })
	require.NoError(t, d.Load(context.Background()))
	return d
}

func (f *fixture) pick(titles ...string) []*models.Song {
	out := make([]*models.Song, 0, len(titles))
	for _, title := range titles {
		out = append(out, f.songs[title])
	}
	return out
}

func itemTitles(items []models.SetlistItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Song.Title)
	}
	return out
}

func positions(items []models.SetlistItem) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.Position)
	}
	return out
}

func TestListCreateRequiresName(t *testing.T) {
	list := NewList(store.NewMemory())

	_, err := list.Create(context.Background(), "   ", nil, "")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, "Setlist name is required", list.ErrorMessage())
}

func TestServiceCreateStoresNotesInOneWrite(t *testing.T) {
	mem := store.NewMemory()
	flaky := &flakyStore{Store: mem, updateErr: errors.New("down")}
	ctx := context.Background()

	setlist, err := New(flaky).Create(ctx, Info{Name: "Sunday", Notes: "  bring capo  "})
	require.NoError(t, err)
	assert.Equal(t, "bring capo", models.StringValue(setlist.Notes))
	assert.True(t, setlist.DateCreated.Equal(setlist.DateModified))

	stored, err := mem.GetSetlist(ctx, setlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "bring capo", models.StringValue(stored.Notes))
}

func TestServiceCreateFailureLeavesNothing(t *testing.T) {
	mem := store.NewMemory()
	flaky := &flakyStore{Store: mem, createErr: errors.New("down")}
	ctx := context.Background()

	_, err := New(flaky).Create(ctx, Info{Name: "Sunday", Notes: "bring capo"})
	require.Error(t, err)

	all, err := mem.ListSetlists(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListNewestFirstAndSearch(t *testing.T) {
	st := store.NewMemory()
	list := NewList(st)
	ctx := context.Background()

	for i, name := range []string{"Easter Sunday", "Good Friday", "Youth Night"} {
		created := fixedNow.Add(time.Duration(i) * time.Hour)
		list.SetClock(func() time.Time { return created })
		_, err := list.Create(ctx, "  "+name+"  ", nil, "")
		require.NoError(t, err)
	}

	names := func() []string {
		var out []string
		for _, s := range list.Visible() {
			out = append(out, s.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Youth Night", "Good Friday", "Easter Sunday"}, names())

	list.SetSearch("SUNDAY")
	assert.Equal(t, []string{"Easter Sunday"}, names())

	require.NoError(t, list.Delete(ctx, 0))
	list.SetSearch("")
	assert.Equal(t, []string{"Youth Night", "Good Friday"}, names())
}

func TestDetailAddSongsAppendsAndSkipsDuplicates(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	d := f.detail(t, f.store)
	ctx := context.Background()

	added, err := d.AddSongs(ctx, f.pick("B", "A")...)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = d.AddSongs(ctx, f.pick("A", "C", "C", "D")...)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	assert.Equal(t, []string{"B", "A", "C", "D"}, itemTitles(d.Items()))
	assert.Equal(t, []int{0, 1, 2, 3}, positions(d.Items()))
	assert.Equal(t, 4, d.Setlist().SongCount)
	assert.Equal(t, "4 songs", d.SongCountText())
	assert.Equal(t, fixedNow, d.Setlist().DateModified)
}

func TestDetailRemoveRenumbers(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	d := f.detail(t, f.store)
	ctx := context.Background()
	_, err := d.AddSongs(ctx, f.pick("A", "B", "C", "D")...)
	require.NoError(t, err)

	require.NoError(t, d.RemoveSongs(ctx, 1, 2))
	assert.Equal(t, []string{"A", "D"}, itemTitles(d.Items()))
	assert.Equal(t, []int{0, 1}, positions(d.Items()))

	stored, err := f.store.ListSetlistItems(ctx, f.setlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, positions(stored))
}

func TestDetailRemoveUsesFilteredOffsets(t *testing.T) {
	f := newFixture(t, "Holy Holy Holy", "Cornerstone", "Holy Spirit")
	d := f.detail(t, f.store)
	ctx := context.Background()
	_, err := d.AddSongs(ctx, f.pick("Holy Holy Holy", "Cornerstone", "Holy Spirit")...)
	require.NoError(t, err)

	d.SetSearch("spirit")
	require.NoError(t, d.RemoveSongs(ctx, 0))

	d.SetSearch("")
	assert.Equal(t, []string{"Holy Holy Holy", "Cornerstone"}, itemTitles(d.Visible()))
}

func TestDetailReorder(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	d := f.detail(t, f.store)
	ctx := context.Background()
	_, err := d.AddSongs(ctx, f.pick("A", "B", "C")...)
	require.NoError(t, err)

	require.NoError(t, d.Reorder(ctx, []int{0}, 3))
	assert.Equal(t, []string{"B", "C", "A"}, itemTitles(d.Items()))

	stored, err := f.store.ListSetlistItems(ctx, f.setlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, itemTitles(stored))
	assert.Equal(t, []int{0, 1, 2}, positions(stored))
}

func TestDetailReorderFailureRestoresOrder(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	flaky := &flakyStore{Store: f.store}
	d := f.detail(t, flaky)
	ctx := context.Background()
	_, err := d.AddSongs(ctx, f.pick("A", "B", "C")...)
	require.NoError(t, err)

	flaky.reorderErr = errors.New("deadlock detected")
	err = d.Reorder(ctx, []int{2}, 0)
	require.Error(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, itemTitles(d.Items()))
	assert.Equal(t, "Failed to save song order: deadlock detected", d.ErrorMessage())
}

func TestDetailUpdateInfo(t *testing.T) {
	f := newFixture(t)
	d := f.detail(t, f.store)
	ctx := context.Background()

	err := d.UpdateInfo(ctx, "  ", nil, "")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, "Setlist name cannot be empty", d.ErrorMessage())

	date := time.Date(2024, 6, 2, 17, 45, 0, 0, time.FixedZone("EDT", -4*3600))
	require.NoError(t, d.UpdateInfo(ctx, " Pentecost ", &date, "   "))

	stored, err := f.store.GetSetlist(ctx, f.setlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pentecost", stored.Name)
	assert.Nil(t, stored.Notes)
	require.NotNil(t, stored.Date)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), *stored.Date)
	assert.Equal(t, "Jun 2, 2024", d.FormattedDate())
	assert.Empty(t, d.ErrorMessage())
}

func TestDetailLoadMissingSetlist(t *testing.T) {
	d := NewDetail(store.NewMemory(), uuid.New())

	err := d.Load(context.Background())
	assert.ErrorIs(t, err, app.ErrStaleReference)
	assert.ErrorIs(t, err, store.ErrSetlistNotFound)
}

func TestDetailDeletedSongLeavesSetlist(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	d := f.detail(t, f.store)
	ctx := context.Background()
	_, err := d.AddSongs(ctx, f.pick("A", "B", "C")...)
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteSongs(ctx, fixedNow.Add(time.Hour), f.songs["B"].ID))
	require.NoError(t, d.Load(ctx))
	assert.Equal(t, []string{"A", "C"}, itemTitles(d.Items()))
	assert.Equal(t, []int{0, 1}, positions(d.Items()))
	assert.Equal(t, 2, d.SongCount())
	assert.True(t, d.Setlist().DateModified.Equal(fixedNow.Add(time.Hour)))
}

func TestPickerExcludesMembersAndFilters(t *testing.T) {
	f := newFixture(t, "Amazing Grace", "Build My Life", "Goodness of God", "Graves Into Gardens")
	ctx := context.Background()
	_, err := f.detail(t, f.store).AddSongs(ctx, f.pick("Build My Life")...)
	require.NoError(t, err)

	p := NewPicker(f.store, f.setlist.ID)
	require.NoError(t, p.Load(ctx))

	var available []string
	for _, song := range p.Available() {
		available = append(available, song.Title)
	}
	assert.Equal(t, []string{"Amazing Grace", "Goodness of God", "Graves Into Gardens"}, available)
	assert.True(t, p.IsInSetlist(f.songs["Build My Life"].ID))

	p.Toggle(f.songs["Graves Into Gardens"].ID)
	p.Toggle(f.songs["Amazing Grace"].ID)
	assert.Equal(t, "Add 2 Songs", p.SaveButtonTitle())

	p.SetSearch("grave")
	assert.True(t, p.IsSelected(f.songs["Graves Into Gardens"].ID))
	assert.False(t, p.IsSelected(f.songs["Amazing Grace"].ID))
	assert.Equal(t, "Add 1 Song", p.SaveButtonTitle())
	assert.Equal(t, "Deselect All", p.SelectAllButtonTitle())
}

func TestPickerSearchMatchesKey(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	p := NewPicker(f.store, f.setlist.ID)
	require.NoError(t, p.Load(context.Background()))

	p.SetSearch("d")
	require.Len(t, p.Visible(), 1)
	assert.Equal(t, "B", p.Visible()[0].Title)
}

func TestPickerToggleSelectAll(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	p := NewPicker(f.store, f.setlist.ID)
	require.NoError(t, p.Load(context.Background()))

	assert.Equal(t, "Select All", p.SelectAllButtonTitle())
	p.ToggleSelectAll()
	assert.Len(t, p.Selected(), 3)
	assert.Equal(t, "Deselect All", p.SelectAllButtonTitle())

	p.ToggleSelectAll()
	assert.False(t, p.HasSelection())
}

func TestPickerSaveUsesSelectionOrder(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	ctx := context.Background()
	_, err := f.detail(t, f.store).AddSongs(ctx, f.pick("D")...)
	require.NoError(t, err)

	p := NewPicker(f.store, f.setlist.ID)
	require.NoError(t, p.Load(ctx))

	_, err = p.Save(ctx)
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.Equal(t, "No songs selected", p.ErrorMessage())

	p.Toggle(f.songs["C"].ID)
	p.Toggle(f.songs["A"].ID)
	added, err := p.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.False(t, p.HasSelection())

	items, err := f.store.ListSetlistItems(ctx, f.setlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "C", "A"}, itemTitles(items))
	assert.Equal(t, []int{0, 1, 2}, positions(items))

	var available []string
	for _, song := range p.Available() {
		available = append(available, song.Title)
	}
	assert.Equal(t, []string{"B"}, available)
}

func TestPickerSaveFailureKeepsSelection(t *testing.T) {
	f := newFixture(t, "A", "B")
	flaky := &flakyStore{Store: f.store, insertErr: errors.New("timeout")}
	p := NewPicker(flaky, f.setlist.ID)
	require.NoError(t, p.Load(context.Background()))

	p.Toggle(f.songs["A"].ID)
	_, err := p.Save(context.Background())
	require.Error(t, err)
	assert.True(t, p.HasSelection())
	assert.Contains(t, p.ErrorMessage(), "timeout")
}

func TestPickerSaveClearsSelectionWhenReloadFails(t *testing.T) {
	f := newFixture(t, "A", "B")
	flaky := &flakyStore{Store: f.store}
	p := NewPicker(flaky, f.setlist.ID)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	p.Toggle(f.songs["A"].ID)
	flaky.listItemsErr = errors.New("connection reset")
	added, err := p.Save(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, added)
	assert.False(t, p.HasSelection())
	assert.True(t, p.IsInSetlist(f.songs["A"].ID))
	assert.Equal(t, 1, p.Detail().SongCount())

	stored, err := f.store.ListSetlistItems(ctx, f.setlist.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, f.songs["A"].ID, stored[0].SongID)
}

func TestExportSheet(t *testing.T) {
	f := newFixture(t, "A", "B")
	d := f.detail(t, f.store)
	_, err := d.AddSongs(context.Background(), f.pick("B", "A")...)
	require.NoError(t, err)

	sheet := d.Sheet()
	assert.Equal(t, "Sunday Morning", sheet.Name)
	require.Len(t, sheet.Songs, 2)
	assert.Equal(t, SheetSong{Number: 1, Title: "B", Key: "D", TimeSignature: "4/4"}, sheet.Songs[0])

	var buf bytes.Buffer
	require.NoError(t, EncodeSheet(&buf, sheet))
	assert.Contains(t, buf.String(), "name: Sunday Morning")
	assert.Contains(t, buf.String(), "  - number: 2\n    title: A\n")
}
