package songs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"worshipsongs/internal/app"
	"worshipsongs/internal/models"
	"worshipsongs/internal/store"
)

// Mode distinguishes creating a song from editing an existing one.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

// Fields holds the raw, user-entered form values.
type Fields struct {
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	Key            string `json:"key"`
	Tempo          string `json:"tempo"`
	TimeSignature  string `json:"time_signature"`
	Copyright      string `json:"copyright"`
	Content        string `json:"content"`
	IsFavorite     bool   `json:"is_favorite"`
	IsPublicDomain bool   `json:"is_public_domain"`
}

// BlankFields returns the values of an empty add form.
func BlankFields() Fields {
	return Fields{TimeSignature: models.DefaultTimeSignature}
}

// FieldsFromSong populates form values from a stored song. An unset tempo shows as empty text.
func FieldsFromSong(song *models.Song) Fields {
	fields := Fields{
		Title:          song.Title,
		Artist:         song.ArtistName(),
		Key:            song.Key,
		TimeSignature:  song.TimeSignature,
		Copyright:      models.StringValue(song.Copyright),
		Content:        models.StringValue(song.Content),
		IsFavorite:     song.IsFavorite,
		IsPublicDomain: song.IsPublicDomain,
	}
	if song.Tempo > 0 {
		fields.Tempo = strconv.Itoa(int(song.Tempo))
	}
	if fields.TimeSignature == "" {
		fields.TimeSignature = models.DefaultTimeSignature
	}
	return fields
}

type fieldError struct {
	field   Field
	message string
}

// Form is the add/edit workflow for a single song.
type Form struct {
	app.State

	Fields Fields

	store    Store
	mode     Mode
	original *models.Song
	errors   []fieldError
}

// NewAddForm returns a blank form that creates a new song on save.
func NewAddForm(store Store) *Form {
	return &Form{
		Fields: BlankFields(),
		store:  store,
		mode:   ModeAdd,
	}
}

// NewEditForm returns a form populated from song that updates it on save.
func NewEditForm(store Store, song *models.Song) *Form {
	return &Form{
		Fields:   FieldsFromSong(song),
		store:    store,
		mode:     ModeEdit,
		original: song.Clone(),
	}
}

func (f *Form) Mode() Mode {
	return f.mode
}

func (f *Form) NavigationTitle() string {
	if f.mode == ModeEdit {
		return "Edit Song"
	}
	return "Add Song"
}

func (f *Form) SaveButtonTitle() string {
	if f.mode == ModeEdit {
		return "Save Changes"
	}
	return "Create"
}

// Song returns the record being edited, or nil for an add form that has not been saved yet.
func (f *Form) Song() *models.Song {
	return f.original.Clone()
}

// SetPublicDomain toggles the public domain flag. Turning it on clears the copyright text.
func (f *Form) SetPublicDomain(on bool) {
	f.Fields.IsPublicDomain = on
	if on {
		f.Fields.Copyright = ""
	}
	f.Changed()
}

// ValidateField re-evaluates one field, leaving messages for the other fields in place.
func (f *Form) ValidateField(field Field) {
	kept := f.errors[:0:0]
	for _, e := range f.errors {
		if e.field != field {
			kept = append(kept, e)
		}
	}
	for _, msg := range validateField(field, f.Fields) {
		kept = append(kept, fieldError{field: field, message: msg})
	}
	f.errors = kept
	f.Changed()
}

// Validate re-evaluates every field and reports whether the form is valid.
func (f *Form) Validate() bool {
	f.errors = nil
	for _, field := range validationOrder {
		for _, msg := range validateField(field, f.Fields) {
			f.errors = append(f.errors, fieldError{field: field, message: msg})
		}
	}
	f.Changed()
	return f.IsValid()
}

// Errors returns the current validation messages without duplicates.
func (f *Form) Errors() []string {
	seen := make(map[string]bool, len(f.errors))
	messages := make([]string, 0, len(f.errors))
	for _, e := range f.errors {
		if seen[e.message] {
			continue
		}
		seen[e.message] = true
		messages = append(messages, e.message)
	}
	return messages
}

// FieldErrors returns the messages recorded for one field.
func (f *Form) FieldErrors(field Field) []string {
	var messages []string
	for _, e := range f.errors {
		if e.field == field {
			messages = append(messages, e.message)
		}
	}
	return messages
}

// IsValid reports whether there are no messages and the required fields are filled in.
func (f *Form) IsValid() bool {
	return len(f.errors) == 0 &&
		strings.TrimSpace(f.Fields.Title) != "" &&
		strings.TrimSpace(f.Fields.Key) != ""
}

// KeySuggestion offers a standard key close to the entered one. It does not affect validity.
func (f *Form) KeySuggestion() (string, bool) {
	return SuggestKey(f.Fields.Key)
}

// Save validates the form and writes the song through the store.
// Invalid input returns a *ValidationError and touches nothing.
func (f *Form) Save(ctx context.Context) (*models.Song, error) {
	if !f.Validate() {
		return nil, &ValidationError{Messages: f.Errors()}
	}
	if err := f.Begin(); err != nil {
		return nil, err
	}
	defer f.End()
	f.ClearError()

	now := f.Now()
	song := f.build(now)

	var err error
	if f.mode == ModeEdit {
		err = f.store.UpdateSong(ctx, song)
	} else {
		err = f.store.CreateSong(ctx, song)
	}
	if err != nil {
		log.Error().Err(err).Str("song_id", song.ID.String()).Msg("save song")
		if errors.Is(err, store.ErrSongNotFound) {
			f.Fail("This song no longer exists")
		} else {
			f.Fail(fmt.Sprintf("Failed to save song: %v", err))
		}
		f.Changed()
		return nil, fmt.Errorf("save song: %w", app.Stale(err))
	}

	f.mode = ModeEdit
	f.original = song.Clone()
	f.Fields = FieldsFromSong(song)
	f.Changed()
	return song, nil
}

// Cancel discards edits and clears validation messages.
func (f *Form) Cancel() {
	if f.original != nil {
		f.Fields = FieldsFromSong(f.original)
	} else {
		f.Fields = BlankFields()
	}
	f.errors = nil
	f.ClearError()
	f.Changed()
}

func (f *Form) build(now time.Time) *models.Song {
	var song *models.Song
	if f.original != nil {
		song = f.original.Clone()
	} else {
		song = &models.Song{ID: uuid.New(), DateCreated: now}
	}

	song.Title = strings.TrimSpace(f.Fields.Title)
	song.Artist = models.OptionalString(strings.TrimSpace(f.Fields.Artist))
	song.Key = strings.TrimSpace(f.Fields.Key)
	song.Tempo = ParseTempo(f.Fields.Tempo)
	song.TimeSignature = strings.TrimSpace(f.Fields.TimeSignature)
	if song.TimeSignature == "" {
		song.TimeSignature = models.DefaultTimeSignature
	}
	song.IsPublicDomain = f.Fields.IsPublicDomain
	if song.IsPublicDomain {
		song.Copyright = nil
	} else {
		song.Copyright = models.OptionalString(strings.TrimSpace(f.Fields.Copyright))
	}
	song.Content = models.OptionalString(strings.TrimSpace(f.Fields.Content))
	song.IsFavorite = f.Fields.IsFavorite
	song.DateModified = now
	return song
}
