package models

import (
	"time"

	"github.com/google/uuid"
)

// Setlist is a named, ordered collection of songs for one service or event.
type Setlist struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Date         *time.Time `json:"date,omitempty" db:"event_date"`
	Notes        *string    `json:"notes,omitempty" db:"notes"`
	DateCreated  time.Time  `json:"date_created" db:"date_created"`
	DateModified time.Time  `json:"date_modified" db:"date_modified"`
	SongCount    int        `json:"song_count" db:"song_count"`
}

// SetlistItem fixes one song's position within one setlist.
type SetlistItem struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SetlistID    uuid.UUID `json:"setlist_id" db:"setlist_id"`
	SongID       uuid.UUID `json:"song_id" db:"song_id"`
	Position     int       `json:"position" db:"position"`
	DateCreated  time.Time `json:"date_created" db:"date_created"`
	DateModified time.Time `json:"date_modified" db:"date_modified"`
	Song         *Song     `json:"song,omitempty"`
}

// Clone returns a deep copy of the setlist.
func (s *Setlist) Clone() *Setlist {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Date != nil {
		d := *s.Date
		clone.Date = &d
	}
	clone.Notes = cloneString(s.Notes)
	return &clone
}

// Clone returns a copy of the item including its joined song.
func (i SetlistItem) Clone() SetlistItem {
	i.Song = i.Song.Clone()
	return i
}

// CalendarDate truncates t to midnight UTC on the same calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
