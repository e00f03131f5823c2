// Package catalog maps vector index internal ids back to the chunks they
// were derived from. The vector index itself stores only numbers; the
// catalog holds the chunk text, its source document and ordinal, so search
// results can be resolved to something readable.
//
// The catalog is advisory: the vector index is the source of truth, and a
// catalog write failure never fails an ingest.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Entry is one indexed chunk.
type Entry struct {
	InternalID int
	SourceID   string
	Ordinal    int
	Text       string
	Metadata   map[string]string
}

// Catalog is a SQLite-backed chunk store keyed by vector index internal id.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open creates or opens a catalog database at the given path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}

	c := &Catalog{db: db, path: path}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := c.db.Exec(p); err != nil {
			return fmt.Errorf("catalog: pragma failed: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS chunks (
			internal_id INTEGER PRIMARY KEY,
			source_id   TEXT NOT NULL,
			ordinal     INTEGER NOT NULL,
			text        TEXT NOT NULL,
			metadata    TEXT
		);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("catalog: schema creation failed: %w", err)
	}
	return nil
}

// Put stores entries, replacing any previous rows with the same internal id.
func (c *Catalog) Put(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO chunks (internal_id, source_id, ordinal, text, metadata) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		var metaJSON []byte
		if e.Metadata != nil {
			metaJSON, _ = json.Marshal(e.Metadata)
		}
		if _, err := stmt.ExecContext(ctx, e.InternalID, e.SourceID, e.Ordinal, e.Text, metaJSON); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get returns the entries for the given internal ids, in the order the ids
// were requested. Missing ids are skipped.
func (c *Catalog) Get(ctx context.Context, ids []int) ([]Entry, error) {
	byID := make(map[int]Entry, len(ids))

	stmt, err := c.db.PrepareContext(ctx,
		"SELECT internal_id, source_id, ordinal, text, metadata FROM chunks WHERE internal_id = ?")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, id := range ids {
		var e Entry
		var metaJSON sql.NullString
		err := stmt.QueryRowContext(ctx, id).Scan(&e.InternalID, &e.SourceID, &e.Ordinal, &e.Text, &metaJSON)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		if metaJSON.Valid && metaJSON.String != "" {
			json.Unmarshal([]byte(metaJSON.String), &e.Metadata)
		}
		byID[id] = e
	}

	out := make([]Entry, 0, len(byID))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Size returns the number of cataloged chunks.
func (c *Catalog) Size(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}
