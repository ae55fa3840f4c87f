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

// ListSetlists returns every setlist, newest first, with its song count.
func (s *Store) ListSetlists(ctx context.Context) ([]*models.Setlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.event_date, s.notes, s.date_created, s.date_modified, COUNT(si.id)
		FROM setlists s
		LEFT JOIN setlist_items si ON si.setlist_id = s.id
		GROUP BY s.id
		ORDER BY s.date_created DESC, s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list setlists: %w", err)
	}
	defer rows.Close()

	var setlists []*models.Setlist
	for rows.Next() {
		setlist, err := scanSetlist(rows)
		if err != nil {
			return nil, err
		}
		setlists = append(setlists, setlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setlists: %w", err)
	}
	return setlists, nil
}

// GetSetlist returns a single setlist by ID.
func (s *Store) GetSetlist(ctx context.Context, id uuid.UUID) (*models.Setlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.event_date, s.notes, s.date_created, s.date_modified, COUNT(si.id)
		FROM setlists s
		LEFT JOIN setlist_items si ON si.setlist_id = s.id
		WHERE s.id = $1
		GROUP BY s.id`, id)
	setlist, err := scanSetlist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSetlistNotFound
	}
	if err != nil {
		return nil, err
	}
	return setlist, nil
}

// CreateSetlist persists a new, empty setlist.
func (s *Store) CreateSetlist(ctx context.Context, setlist *models.Setlist) error {
	if setlist == nil {
		return errors.New("setlist is required")
	}
	if setlist.ID == uuid.Nil {
		setlist.ID = uuid.New()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO setlists (id, name, event_date, notes, date_created, date_modified)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		setlist.ID, setlist.Name, nullDate(setlist.Date), nullIfEmpty(setlist.Notes),
		setlist.DateCreated, setlist.DateModified,
	); err != nil {
		return fmt.Errorf("insert setlist: %w", err)
	}
	return nil
}

// UpdateSetlist overwrites the name, date and notes of a setlist.
func (s *Store) UpdateSetlist(ctx context.Context, setlist *models.Setlist) error {
	if setlist == nil {
		return errors.New("setlist is required")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE setlists
		SET name = $2, event_date = $3, notes = $4, date_modified = $5
		WHERE id = $1`,
		setlist.ID, setlist.Name, nullDate(setlist.Date), nullIfEmpty(setlist.Notes), setlist.DateModified)
	if err != nil {
		return fmt.Errorf("update setlist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSetlistNotFound
	}
	return nil
}

// DeleteSetlists removes setlists; their items go with them.
func (s *Store) DeleteSetlists(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM setlists WHERE id = ANY($1::uuid[])`, idArray(ids))
	if err != nil {
		return fmt.Errorf("delete setlists: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSetlistNotFound
	}
	return nil
}

// ListSetlistItems returns the items of a setlist in performance order, each joined with its song.
func (s *Store) ListSetlistItems(ctx context.Context, setlistID uuid.UUID) ([]models.SetlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT si.id, si.setlist_id, si.song_id, si.position, si.date_created, si.date_modified,
		       s.id, s.title, s.artist, s.song_key, s.tempo, s.time_signature, s.copyright, s.content,
		       s.is_favorite, s.is_public_domain, s.date_created, s.date_modified
		FROM setlist_items si
		JOIN songs s ON s.id = si.song_id
		WHERE si.setlist_id = $1
		ORDER BY si.position ASC, si.id ASC`, setlistID)
	if err != nil {
		return nil, fmt.Errorf("list setlist items: %w", err)
	}
	defer rows.Close()

	items := make([]models.SetlistItem, 0)
	for rows.Next() {
		var (
			item                       models.SetlistItem
			song                       models.Song
			artist, copyright, content sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.SetlistID, &item.SongID, &item.Position, &item.DateCreated, &item.DateModified,
			&song.ID, &song.Title, &artist, &song.Key, &song.Tempo, &song.TimeSignature, &copyright, &content,
			&song.IsFavorite, &song.IsPublicDomain, &song.DateCreated, &song.DateModified); err != nil {
			return nil, fmt.Errorf("scan setlist item: %w", err)
		}
		song.Artist = stringPtr(artist)
		song.Copyright = stringPtr(copyright)
		song.Content = stringPtr(content)
		item.Song = &song
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setlist items: %w", err)
	}
	return items, nil
}

// InsertSetlistItems adds items to a setlist and stamps the setlist as modified, all in one transaction.
// Positions are taken from the items as given.
func (s *Store) InsertSetlistItems(ctx context.Context, setlistID uuid.UUID, items []models.SetlistItem, modified time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockSetlist(ctx, tx, setlistID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO setlist_items (id, setlist_id, song_id, position, date_created, date_modified)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("prepare insert setlist item: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if _, err = stmt.ExecContext(ctx, item.ID, setlistID, item.SongID, item.Position,
			item.DateCreated, item.DateModified); err != nil {
			switch {
			case isUniqueViolation(err):
				return ErrDuplicateSong
			case isForeignKeyViolation(err):
				return ErrSongNotFound
			}
			return fmt.Errorf("insert setlist item: %w", err)
		}
	}

	if err = touchSetlistTx(ctx, tx, setlistID, modified); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit setlist items: %w", err)
	}
	return nil
}

// DeleteSetlistItems removes items from a setlist and renumbers the remainder densely from zero.
func (s *Store) DeleteSetlistItems(ctx context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) (err error) {
	if len(itemIDs) == 0 {
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

	if err = lockSetlist(ctx, tx, setlistID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM setlist_items
		WHERE setlist_id = $1 AND id = ANY($2::uuid[])`, setlistID, idArray(itemIDs))
	if err != nil {
		return fmt.Errorf("delete setlist items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSetlistItemNotFound
	}

	if err = renumberItemsTx(ctx, tx, []uuid.UUID{setlistID}); err != nil {
		return err
	}
	if err = touchSetlistTx(ctx, tx, setlistID, modified); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit setlist item delete: %w", err)
	}
	return nil
}

// ReorderSetlistItems assigns position i to itemIDs[i]. The list must cover every item of the setlist.
func (s *Store) ReorderSetlistItems(ctx context.Context, setlistID uuid.UUID, itemIDs []uuid.UUID, modified time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockSetlist(ctx, tx, setlistID); err != nil {
		return err
	}

	var count int
	if err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM setlist_items
		WHERE setlist_id = $1`, setlistID).Scan(&count); err != nil {
		return fmt.Errorf("count setlist items: %w", err)
	}
	if count != len(itemIDs) {
		return ErrOrderMismatch
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE setlist_items
		SET position = $1, date_modified = $2
		WHERE setlist_id = $3 AND id = $4`)
	if err != nil {
		return fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()

	for position, id := range itemIDs {
		res, execErr := stmt.ExecContext(ctx, position, modified, setlistID, id)
		if execErr != nil {
			return fmt.Errorf("update item position: %w", execErr)
		}
		affected, rowsErr := res.RowsAffected()
		if rowsErr != nil {
			return fmt.Errorf("rows affected: %w", rowsErr)
		}
		if affected == 0 {
			return ErrSetlistItemNotFound
		}
	}

	if err = touchSetlistTx(ctx, tx, setlistID, modified); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrOrderMismatch
		}
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

func touchSetlistTx(ctx context.Context, tx *sql.Tx, setlistID uuid.UUID, modified time.Time) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE setlists
		SET date_modified = $2
		WHERE id = $1`, setlistID, modified); err != nil {
		return fmt.Errorf("touch setlist: %w", err)
	}
	return nil
}

func scanSetlist(row rowScanner) (*models.Setlist, error) {
	var (
		setlist models.Setlist
		date    sql.NullTime
		notes   sql.NullString
	)
	if err := row.Scan(&setlist.ID, &setlist.Name, &date, &notes, &setlist.DateCreated, &setlist.DateModified,
		&setlist.SongCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan setlist: %w", err)
	}
	if date.Valid {
		d := models.CalendarDate(date.Time)
		setlist.Date = &d
	}
	setlist.Notes = stringPtr(notes)
	return &setlist, nil
}

func nullDate(date *time.Time) interface{} {
	if date == nil {
		return nil
	}
	return models.CalendarDate(*date)
}
