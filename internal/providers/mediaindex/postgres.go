package mediaindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
)

const schema = `
CREATE TABLE IF NOT EXISTS media_entries (
	id            TEXT PRIMARY KEY,
	collection    TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	content_type  TEXT NOT NULL,
	size          BIGINT NOT NULL DEFAULT 0,
	pending       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL,
	modified_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS media_entries_collection ON media_entries (collection, pending);
`

const selectColumns = `SELECT id, collection, relative_path, display_name, content_type, size, pending, created_at, modified_at FROM media_entries`

// PostgresCatalog stores entries in PostgreSQL.
type PostgresCatalog struct {
	db *sql.DB
}

// OpenPostgres connects to databaseURL and creates the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresCatalog{db: db}, nil
}

// Insert implements Catalog
func (c *PostgresCatalog) Insert(ctx context.Context, e Entry) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO media_entries (id, collection, relative_path, display_name, content_type, size, pending, created_at, modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Collection.String(), e.RelativePath, e.DisplayName, e.ContentType, e.Size, e.Pending, e.Created, e.Modified)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Update implements Catalog
func (c *PostgresCatalog) Update(ctx context.Context, e Entry) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE media_entries SET collection = $2, relative_path = $3, display_name = $4, content_type = $5,
		 size = $6, pending = $7, modified_at = $8 WHERE id = $1`,
		e.ID, e.Collection.String(), e.RelativePath, e.DisplayName, e.ContentType, e.Size, e.Pending, e.Modified)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s does not exist", e.ID)
	}
	return nil
}

// Get implements Catalog
func (c *PostgresCatalog) Get(ctx context.Context, id string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// Delete implements Catalog
func (c *PostgresCatalog) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM media_entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	return n > 0, nil
}

// List implements Catalog
func (c *PostgresCatalog) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := selectColumns + ` WHERE ($1 OR NOT pending)`
	args := []interface{}{f.IncludePending}
	if f.Collection != nil {
		query += ` AND collection = $2`
		args = append(args, f.Collection.String())
	}
	query += ` ORDER BY relative_path COLLATE "C", display_name COLLATE "C", id COLLATE "C"`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Close implements Catalog
func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var coll string
	if err := s.Scan(&e.ID, &coll, &e.RelativePath, &e.DisplayName, &e.ContentType, &e.Size, &e.Pending, &e.Created, &e.Modified); err != nil {
		return nil, err
	}
	c, ok := collection.Parse(coll)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", coll)
	}
	e.Collection = c
	return &e, nil
}
