package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTimeSignature is stored when a song is saved without one.
const DefaultTimeSignature = "4/4"

// Song is a single worship song with its chart text and performance metadata.
type Song struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Artist         *string   `json:"artist,omitempty" db:"artist"`
	Key            string    `json:"key" db:"song_key"`
	Tempo          int16     `json:"tempo" db:"tempo"`
	TimeSignature  string    `json:"time_signature" db:"time_signature"`
	Copyright      *string   `json:"copyright,omitempty" db:"copyright"`
	Content        *string   `json:"content,omitempty" db:"content"`
	IsFavorite     bool      `json:"is_favorite" db:"is_favorite"`
	IsPublicDomain bool      `json:"is_public_domain" db:"is_public_domain"`
	DateCreated    time.Time `json:"date_created" db:"date_created"`
	DateModified   time.Time `json:"date_modified" db:"date_modified"`
}

// ArtistName returns the artist or an empty string when unset.
func (s *Song) ArtistName() string {
	return StringValue(s.Artist)
}

// Clone returns a deep copy of the song.
func (s *Song) Clone() *Song {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Artist = cloneString(s.Artist)
	clone.Copyright = cloneString(s.Copyright)
	clone.Content = cloneString(s.Content)
	return &clone
}

// StringValue dereferences an optional string.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// OptionalString returns nil for an empty string.
func OptionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
