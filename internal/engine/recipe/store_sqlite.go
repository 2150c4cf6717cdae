package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed-width so created_at sorts lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps results in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultSQLitePath is ~/.go_recipe/recipes.db.
func DefaultSQLitePath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_recipe", "recipes.db")
}

// OpenSQLiteStore opens (or creates) the database at path. Empty path uses DefaultSQLitePath.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("recipe store: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recipe store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("recipe store: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS recipes (
		id               TEXT PRIMARY KEY,
		video_id         TEXT,
		source_reference TEXT NOT NULL,
		title            TEXT,
		status           TEXT NOT NULL,
		cuisine          TEXT,
		demo             INTEGER NOT NULL DEFAULT 0,
		payload          TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS recipes_created_at ON recipes (created_at DESC);`)
	return err
}

// Save inserts r or replaces the row with the same ID.
func (s *SQLiteStore) Save(ctx context.Context, r *RecipeResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("recipe store: marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO recipes
		(id, video_id, source_reference, title, status, cuisine, demo, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			cuisine = excluded.cuisine,
			title = excluded.title,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		r.ID, r.VideoID, r.SourceReference, r.Title, string(r.Status), cuisineColumn(r), r.Demo,
		string(payload), r.CreatedAt.UTC().Format(sqliteTimeLayout), r.UpdatedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("recipe store: save %s: %w", r.ID, err)
	}
	return nil
}

// Get loads one result by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*RecipeResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM recipes WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recipe store: get %s: %w", id, err)
	}
	return decodeStored(payload)
}

// List returns results newest first.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]*RecipeResult, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Cuisine != "" {
		where = append(where, "cuisine = ?")
		args = append(args, string(f.Cuisine))
	}
	query := `SELECT payload FROM recipes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recipe store: list: %w", err)
	}
	defer rows.Close()

	var out []*RecipeResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("recipe store: scan: %w", err)
		}
		r, err := decodeStored(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeStored(payload string) (*RecipeResult, error) {
	var r RecipeResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("recipe store: decode: %w", err)
	}
	return &r, nil
}
