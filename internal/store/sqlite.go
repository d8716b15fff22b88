package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobpulse/internal/model"
)

// Ensure SQLiteStore implements model.ListingStore.
var _ model.ListingStore = (*SQLiteStore)(nil)

// SQLiteStore keeps listings in a SQLite table ordered by insertion sequence.
type SQLiteStore struct {
	db     *sql.DB
	limit  int
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// listings table exists.
func NewSQLiteStore(dbPath string, limit int, logger *slog.Logger) (*SQLiteStore, error) {
	if limit <= 0 {
		limit = DefaultRetention
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS listings (
		link       TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		company    TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		snippet    TEXT NOT NULL DEFAULT '',
		date_found TEXT NOT NULL DEFAULT '',
		seq        INTEGER NOT NULL
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating listings table: %w", err)
	}

	return &SQLiteStore{db: db, limit: limit, logger: logger}, nil
}

// Load returns the stored listings, newest first.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Listing, error) {
	return loadListings(ctx, s.db)
}

// Merge inserts the incoming listings not yet stored and trims the table to
// the retention cap, all in one transaction.
func (s *SQLiteStore) Merge(ctx context.Context, incoming []model.Listing) ([]model.Listing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning merge: %w", err)
	}
	defer tx.Rollback()

	existing, err := loadListings(ctx, tx)
	if err != nil {
		return nil, err
	}

	_, added := Merge(existing, incoming, s.limit)
	if len(added) == 0 {
		s.logger.Info("no new listings to save", "stored", len(existing))
		return added, nil
	}

	var maxSeq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM listings").Scan(&maxSeq); err != nil {
		return nil, fmt.Errorf("reading max sequence: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO listings
		(link, title, company, location, snippet, date_found, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	// The first added listing gets the highest sequence so it sorts first.
	for i, l := range added {
		seq := maxSeq + int64(len(added)-i)
		if _, err := insert.ExecContext(ctx, l.Link, l.Title, l.Company, l.Location, l.Snippet, l.DateFound, seq); err != nil {
			return nil, fmt.Errorf("inserting listing %s: %w", l.Link, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM listings WHERE link NOT IN (SELECT link FROM listings ORDER BY seq DESC LIMIT ?)",
		s.limit,
	); err != nil {
		return nil, fmt.Errorf("trimming listings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing merge: %w", err)
	}
	s.logger.Info("saved listings", "added", len(added))
	return added, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadListings(ctx context.Context, q queryer) ([]model.Listing, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT title, company, location, link, snippet, date_found FROM listings ORDER BY seq DESC")
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(&l.Title, &l.Company, &l.Location, &l.Link, &l.Snippet, &l.DateFound); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}
	return listings, nil
}
