package recipe

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// PostgresStore keeps results in PostgreSQL, shared between replicas.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgresStore creates a pgx pool and runs schema migrations.
func ConnectPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("recipe postgres connected", slog.String("addr", config.ConnConfig.Host))
	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", entry.Name(), err)
		}
		slog.Debug("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// Save inserts r or replaces the row with the same ID.
func (s *PostgresStore) Save(ctx context.Context, r *RecipeResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("recipe store: marshal: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO recipes
		(id, video_id, source_reference, title, status, cuisine, demo, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			cuisine = EXCLUDED.cuisine,
			title = EXCLUDED.title,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		r.ID, r.VideoID, r.SourceReference, r.Title, string(r.Status), cuisineColumn(r), r.Demo,
		payload, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("recipe store: save %s: %w", r.ID, err)
	}
	return nil
}

// Get loads one result by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*RecipeResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM recipes WHERE id::text = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recipe store: get %s: %w", id, err)
	}
	return decodeStored(string(payload))
}

// List returns results newest first.
func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]*RecipeResult, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Cuisine != "" {
		args = append(args, string(f.Cuisine))
		where = append(where, fmt.Sprintf("cuisine = $%d", len(args)))
	}
	query := `SELECT payload FROM recipes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.limit())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recipe store: list: %w", err)
	}
	defer rows.Close()

	var out []*RecipeResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("recipe store: scan: %w", err)
		}
		r, err := decodeStored(string(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
