package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"worshipsongs/internal/models"
)

const songColumns = `id, title, artist, song_key, tempo, time_signature, copyright, content,
		       is_favorite, is_public_domain, date_created, date_modified`

// ListSongs returns every song ordered by title, case-insensitively.
func (s *Store) ListSongs(ctx context.Context) ([]*models.Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		ORDER BY lower(title) ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

// GetSong returns a song by ID.
func (s *Store) GetSong(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+songColumns+`
		FROM songs
		WHERE id = $1`, id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	return song, nil
}

// CreateSong inserts a new song, assigning an ID when the caller has not.
func (s *Store) CreateSong(ctx context.Context, song *models.Song) error {
	if song == nil {
		return errors.New("song is required")
	}
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (id, title, artist, song_key, tempo, time_signature, copyright, content,
		                   is_favorite, is_public_domain, date_created, date_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		song.ID, song.Title, nullIfEmpty(song.Artist), song.Key, song.Tempo, song.TimeSignature,
		nullIfEmpty(song.Copyright), nullIfEmpty(song.Content), song.IsFavorite, song.IsPublicDomain,
		song.DateCreated, song.DateModified,
	); err != nil {
		return fmt.Errorf("insert song: %w", err)
	}
	return nil
}

// UpdateSong overwrites the editable fields of an existing song. DateCreated is never changed.
func (s *Store) UpdateSong(ctx context.Context, song *models.Song) error {
	if song == nil {
		return errors.New("song is required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE songs
		SET title = $2, artist = $3, song_key = $4, tempo = $5, time_signature = $6, copyright = $7,
		    content = $8, is_favorite = $9, is_public_domain = $10, date_modified = $11
		WHERE id = $1`,
		song.ID, song.Title, nullIfEmpty(song.Artist), song.Key, song.Tempo, song.TimeSignature,
		nullIfEmpty(song.Copyright), nullIfEmpty(song.Content), song.IsFavorite, song.IsPublicDomain,
		song.DateModified,
	)
	if err != nil {
		return fmt.Errorf("update song: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}
	return nil
}

// DeleteSongs removes songs along with their setlist entries, closes the resulting position gaps
// and stamps the affected setlists with modified.
func (s *Store) DeleteSongs(ctx context.Context, modified time.Time, ids ...uuid.UUID) (err error) {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT setlist_id
		FROM setlist_items
		WHERE song_id = ANY($1::uuid[])`, idArray(ids))
	if err != nil {
		return fmt.Errorf("find affected setlists: %w", err)
	}
	var affectedSetlists []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan setlist id: %w", err)
		}
		affectedSetlists = append(affectedSetlists, id)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate setlist ids: %w", err)
	}
	rows.Close()

	res, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE id = ANY($1::uuid[])`, idArray(ids))
	if err != nil {
		return fmt.Errorf("delete songs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotFound
	}

	if err = renumberItemsTx(ctx, tx, affectedSetlists); err != nil {
		return err
	}
	if len(affectedSetlists) > 0 {
		if _, err = tx.ExecContext(ctx, `
			UPDATE setlists
			SET date_modified = $2
			WHERE id = ANY($1::uuid[])`, idArray(affectedSetlists), modified); err != nil {
			return fmt.Errorf("touch setlists: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit song delete: %w", err)
	}
	return nil
}

func scanSong(row rowScanner) (*models.Song, error) {
	var (
		song                       models.Song
		artist, copyright, content sql.NullString
	)
	if err := row.Scan(&song.ID, &song.Title, &artist, &song.Key, &song.Tempo, &song.TimeSignature,
		&copyright, &content, &song.IsFavorite, &song.IsPublicDomain, &song.DateCreated, &song.DateModified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan song: %w", err)
	}
	song.Artist = stringPtr(artist)
	song.Copyright = stringPtr(copyright)
	song.Content = stringPtr(content)
	return &song, nil
}
