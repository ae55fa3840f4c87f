package songs

import (
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

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

// failingStore wraps a working store and fails writes on demand.
type failingStore struct {
	Store
	err error
}

func (s *failingStore) CreateSong(ctx context.Context, song *models.Song) error {
	if s.err != nil {
		return s.err
	}
	return s.Store.CreateSong(ctx, song)
}

func (s *failingStore) UpdateSong(ctx context.Context, song *models.Song) error {
	if s.err != nil {
		return s.err
	}
	return s.Store.UpdateSong(ctx, song)
}

func newTestForm(t *testing.T, st Store) *Form {
	t.Helper()
	form := NewAddForm(st)
	form.SetClock(func() time.Time { return fixedNow })
	return form
}

func TestNewAddForm(t *testing.T) {
	form := NewAddForm(store.NewMemory())

	assert.Equal(t, ModeAdd, form.Mode())
	assert.Equal(t, "Add Song", form.NavigationTitle())
	assert.Equal(t, "Create", form.SaveButtonTitle())
	assert.Equal(t, "4/4", form.Fields.TimeSignature)
	assert.Empty(t, form.Errors())
	assert.False(t, form.IsValid())
}

func TestNewEditFormPopulatesFields(t *testing.T) {
	artist := "Traditional"
	song := &models.Song{
		ID:            uuid.New(),
		Title:         "Amazing Grace",
		Artist:        &artist,
		Key:           "G",
		TimeSignature: "3/4",
	}
	form := NewEditForm(store.NewMemory(), song)

	assert.Equal(t, ModeEdit, form.Mode())
	assert.Equal(t, "Edit Song", form.NavigationTitle())
	assert.Equal(t, "Save Changes", form.SaveButtonTitle())
	assert.Equal(t, "Amazing Grace", form.Fields.Title)
	assert.Equal(t, "Traditional", form.Fields.Artist)
	assert.Equal(t, "", form.Fields.Tempo)
	assert.Equal(t, "3/4", form.Fields.TimeSignature)
	assert.True(t, form.IsValid())
}

func TestValidateOrdersMessages(t *testing.T) {
	form := NewAddForm(store.NewMemory())
	form.Fields.Tempo = "abc"

	assert.False(t, form.Validate())
	assert.Equal(t, []string{MsgTitleRequired, MsgKeyRequired, MsgTempoNotNumber}, form.Errors())

	form.Fields.Title = "Holy"
	form.ValidateField(FieldTitle)
	assert.Equal(t, []string{MsgKeyRequired, MsgTempoNotNumber}, form.Errors())
	assert.Empty(t, form.FieldErrors(FieldTitle))

	form.Fields.Tempo = "20"
	form.ValidateField(FieldTempo)
	assert.Equal(t, []string{MsgTempoTooSlow}, form.FieldErrors(FieldTempo))
}

func TestKeySuggestionDoesNotBlockSave(t *testing.T) {
	st := store.NewMemory()
	form := newTestForm(t, st)
	form.Fields.Title = "Be Thou My Vision"
	form.Fields.Key = "d"

	suggestion, ok := form.KeySuggestion()
	assert.True(t, ok)
	assert.Equal(t, "D", suggestion)

	song, err := form.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d", song.Key)
}

func TestSaveCreatesSanitizedSong(t *testing.T) {
	st := store.NewMemory()
	form := newTestForm(t, st)
	form.Fields = Fields{
		Title:         "  Amazing Grace  ",
		Artist:        "   ",
		Key:           " G ",
		Tempo:         "72",
		TimeSignature: "",
		Copyright:     " CCLI 22025 ",
		Content:       "\n",
	}

	song, err := form.Save(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, song.ID)
	assert.Equal(t, "Amazing Grace", song.Title)
	assert.Nil(t, song.Artist)
	assert.Equal(t, "G", song.Key)
	assert.Equal(t, int16(72), song.Tempo)
	assert.Equal(t, "4/4", song.TimeSignature)
	require.NotNil(t, song.Copyright)
	assert.Equal(t, "CCLI 22025", *song.Copyright)
	assert.Nil(t, song.Content)
	assert.Equal(t, fixedNow, song.DateCreated)
	assert.Equal(t, fixedNow, song.DateModified)

	stored, err := st.GetSong(context.Background(), song.ID)
	require.NoError(t, err)
	assert.Equal(t, song, stored)

	assert.Equal(t, ModeEdit, form.Mode())
	assert.Equal(t, "Amazing Grace", form.Fields.Title)
}

func TestSavePublicDomainDropsCopyright(t *testing.T) {
	form := newTestForm(t, store.NewMemory())
	form.Fields.Title = "Doxology"
	form.Fields.Key = "G"
	form.Fields.Copyright = "Someone"
	form.SetPublicDomain(true)
	assert.Empty(t, form.Fields.Copyright)

	form.Fields.Copyright = "typed after toggling"
	song, err := form.Save(context.Background())
	require.NoError(t, err)
	assert.Nil(t, song.Copyright)
	assert.True(t, song.IsPublicDomain)
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	st := store.NewMemory()
	form := newTestForm(t, st)
	form.Fields.Title = "Great Is Thy Faithfulness"
	form.Fields.Key = "D"
	form.Fields.Tempo = "500"

	song, err := form.Save(context.Background())
	assert.Nil(t, song)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{MsgTempoTooFast}, verr.Messages)

	songs, err := st.ListSongs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestSaveRejectsMissingTitleOnly(t *testing.T) {
	st := store.NewMemory()
	form := newTestForm(t, st)
	form.Fields.Title = ""
	form.Fields.Key = "C"

	song, err := form.Save(context.Background())
	assert.Nil(t, song)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{MsgTitleRequired}, verr.Messages)
	assert.Equal(t, []string{MsgTitleRequired}, form.Errors())

	songs, err := st.ListSongs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, songs)
}

func TestSavedSongReopensWithSameFields(t *testing.T) {
	cases := []struct {
		name   string
		input  Fields
		reopen Fields
	}{
		{
			name: "full record",
			input: Fields{
				Title: "Be Thou My Vision", Artist: "Traditional Irish", Key: "Eb", Tempo: "92",
				TimeSignature: "3/4", Copyright: "Arr. 2019 Hillside Music", Content: "[Eb]Be Thou my vision",
				IsFavorite: true,
			},
		},
		{
			name: "whitespace and defaults",
			input: Fields{
				Title: "  Holy, Holy, Holy  ", Artist: "   ", Key: " D ", Tempo: "",
				TimeSignature: "", Content: "\n",
			},
			reopen: Fields{Title: "Holy, Holy, Holy", Key: "D", TimeSignature: models.DefaultTimeSignature},
		},
		{
			name: "public domain drops copyright",
			input: Fields{
				Title: "Amazing Grace", Key: "G", Tempo: "72", TimeSignature: "3/4",
				Copyright: "Public", IsPublicDomain: true,
			},
			reopen: Fields{Title: "Amazing Grace", Key: "G", Tempo: "72", TimeSignature: "3/4", IsPublicDomain: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewMemory()
			form := newTestForm(t, st)
			form.Fields = tc.input

			saved, err := form.Save(context.Background())
			require.NoError(t, err)

			stored, err := st.GetSong(context.Background(), saved.ID)
			require.NoError(t, err)

			want := tc.reopen
			if want == (Fields{}) {
				want = tc.input
			}
			assert.Equal(t, want, NewEditForm(st, stored).Fields)
		})
	}
}

func TestSaveEditKeepsCreatedDate(t *testing.T) {
	st := store.NewMemory()
	created := fixedNow.Add(-48 * time.Hour)
	original := &models.Song{
		ID:            uuid.New(),
		Title:         "How Great Thou Art",
		Key:           "Bb",
		TimeSignature: "4/4",
		DateCreated:   created,
		DateModified:  created,
	}
	require.NoError(t, st.CreateSong(context.Background(), original))

	form := NewEditForm(st, original)
	form.SetClock(func() time.Time { return fixedNow })
	form.Fields.Tempo = "68"

	song, err := form.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original.ID, song.ID)
	assert.Equal(t, created, song.DateCreated)
	assert.Equal(t, fixedNow, song.DateModified)
	assert.Equal(t, int16(68), song.Tempo)
}

func TestSaveEditDeletedSongIsStale(t *testing.T) {
	st := store.NewMemory()
	form := NewEditForm(st, &models.Song{ID: uuid.New(), Title: "Gone", Key: "C"})

	_, err := form.Save(context.Background())
	assert.ErrorIs(t, err, app.ErrStaleReference)
	assert.ErrorIs(t, err, store.ErrSongNotFound)
	assert.NotEmpty(t, form.ErrorMessage())
}

func TestSaveStoreFailure(t *testing.T) {
	st := &failingStore{Store: store.NewMemory(), err: errors.New("disk full")}
	form := newTestForm(t, st)
	form.Fields.Title = "Come Thou Fount"
	form.Fields.Key = "D"

	calls := 0
	form.SetOnChange(func() { calls++ })

	_, err := form.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to save song: disk full", form.ErrorMessage())
	assert.Equal(t, ModeAdd, form.Mode())
	assert.Positive(t, calls)
	assert.False(t, form.Loading())
}

func TestSaveWhileBusy(t *testing.T) {
	form := newTestForm(t, store.NewMemory())
	form.Fields.Title = "It Is Well"
	form.Fields.Key = "C"

	require.NoError(t, form.Begin())
	_, err := form.Save(context.Background())
	assert.ErrorIs(t, err, app.ErrBusy)
	form.End()
}

func TestCancel(t *testing.T) {
	t.Run("add form resets to blank", func(t *testing.T) {
		form := NewAddForm(store.NewMemory())
		form.Fields.Title = "Draft"
		form.Validate()

		form.Cancel()
		assert.Equal(t, BlankFields(), form.Fields)
		assert.Empty(t, form.Errors())
	})

	t.Run("edit form restores original", func(t *testing.T) {
		song := &models.Song{ID: uuid.New(), Title: "Original", Key: "E", Tempo: 120, TimeSignature: "6/8"}
		form := NewEditForm(store.NewMemory(), song)
		form.Fields.Title = ""
		form.Validate()

		form.Cancel()
		assert.Equal(t, FieldsFromSong(song), form.Fields)
		assert.Equal(t, "120", form.Fields.Tempo)
		assert.Empty(t, form.Errors())
	})

	t.Run("cancel after construction is a no-op", func(t *testing.T) {
		form := NewAddForm(store.NewMemory())
		before := form.Fields
		form.Cancel()
		assert.Equal(t, before, form.Fields)
	})
}
