package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrSongNotFound indicates the referenced song no longer exists.
	ErrSongNotFound = errors.New("song not found")
	// ErrSetlistNotFound indicates the referenced setlist no longer exists.
	ErrSetlistNotFound = errors.New("setlist not found")
	// ErrSetlistItemNotFound indicates a setlist entry is missing.
	ErrSetlistItemNotFound = errors.New("setlist item not found")
	// ErrDuplicateSong signals a song is already part of the setlist.
	ErrDuplicateSong = errors.New("song already in setlist")
	// ErrOrderMismatch means a reorder did not name every item of the setlist exactly once.
	ErrOrderMismatch = errors.New("reorder must list every setlist item exactly once")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for schema migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// lockSetlist takes a row lock on the setlist so concurrent item edits serialise.
func lockSetlist(ctx context.Context, tx *sql.Tx, setlistID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM setlists WHERE id = $1 FOR UPDATE`, setlistID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSetlistNotFound
	}
	if err != nil {
		return fmt.Errorf("lock setlist: %w", err)
	}
	return nil
}

// renumberItemsTx closes gaps left in item positions for the given setlists.
func renumberItemsTx(ctx context.Context, tx *sql.Tx, setlistIDs []uuid.UUID) error {
	if len(setlistIDs) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE setlist_items AS si
		SET position = ranked.new_position
		FROM (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY setlist_id ORDER BY position, id) - 1 AS new_position
			FROM setlist_items
			WHERE setlist_id = ANY($1::uuid[])
		) AS ranked
		WHERE si.id = ranked.id AND si.position <> ranked.new_position`,
		idArray(setlistIDs)); err != nil {
		return fmt.Errorf("renumber setlist items: %w", err)
	}
	return nil
}

func idArray(ids []uuid.UUID) any {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = id.String()
	}
	return pq.Array(values)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}

func nullIfEmpty(value *string) interface{} {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
