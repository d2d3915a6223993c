// Package db stores the site index: every built page and its headings.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the index file written into the site directory.
const FileName = "index.db"

// ErrNotFound is returned when a page is not in the index.
var ErrNotFound = errors.New("db: not found")

// DB wraps a sql.DB with site index helpers.
type DB struct {
	*sql.DB
	mu   sync.Mutex
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every connection would get its own empty database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the database location.
func (d *DB) Path() string { return d.path }

func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS pages (
    path TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    built_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS headings (
    page TEXT NOT NULL REFERENCES pages(path) ON DELETE CASCADE,
    ord INTEGER NOT NULL,
    level INTEGER NOT NULL,
    anchor TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    parent INTEGER NOT NULL DEFAULT -1,
    PRIMARY KEY(page, ord)
);

CREATE INDEX IF NOT EXISTS idx_headings_anchor ON headings(anchor);
`

// Page is one built HTML page.
type Page struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	ContentHash string    `json:"content_hash"`
	BuiltAt     time.Time `json:"built_at"`
}

// Heading is one TOC entry of a page, in document order.
type Heading struct {
	Page   string `json:"page"`
	Order  int    `json:"order"`
	Level  int    `json:"level"`
	Anchor string `json:"anchor"`
	Title  string `json:"title"`
	// Parent is the Order of the enclosing heading, -1 at the top.
	Parent int `json:"parent"`
}

// ReplacePage stores p and its headings, replacing any previous entry.
func (d *DB) ReplacePage(ctx context.Context, p Page, headings []Heading) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.BuiltAt.IsZero() {
		p.BuiltAt = time.Now().UTC()
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM headings WHERE page = ?`, p.Path); err != nil {
		return fmt.Errorf("clearing headings of %s: %w", p.Path, err)
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO pages (path, title, source, content_hash, built_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET title = excluded.title, source = excluded.source,
    content_hash = excluded.content_hash, built_at = excluded.built_at`,
		p.Path, p.Title, p.Source, p.ContentHash, p.BuiltAt)
	if err != nil {
		return fmt.Errorf("storing page %s: %w", p.Path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO headings (page, ord, level, anchor, title, parent) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing heading insert: %w", err)
	}
	defer stmt.Close()
	for i, h := range headings {
		if _, err := stmt.ExecContext(ctx, p.Path, i, h.Level, h.Anchor, h.Title, h.Parent); err != nil {
			return fmt.Errorf("storing heading %q of %s: %w", h.Anchor, p.Path, err)
		}
	}

	return tx.Commit()
}

// PrunePages removes every page not listed in keep.
func (d *DB) PrunePages(ctx context.Context, keep []string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, err := d.pagePaths(ctx)
	if err != nil {
		return 0, err
	}
	wanted := make(map[string]bool, len(keep))
	for _, k := range keep {
		wanted[k] = true
	}

	removed := 0
	for _, path := range existing {
		if wanted[path] {
			continue
		}
		if _, err := d.ExecContext(ctx, `DELETE FROM headings WHERE page = ?`, path); err != nil {
			return removed, fmt.Errorf("pruning headings of %s: %w", path, err)
		}
		if _, err := d.ExecContext(ctx, `DELETE FROM pages WHERE path = ?`, path); err != nil {
			return removed, fmt.Errorf("pruning page %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

func (d *DB) pagePaths(ctx context.Context) ([]string, error) {
	rows, err := d.QueryContext(ctx, `SELECT path FROM pages ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing page paths: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPages returns all pages ordered by path.
func (d *DB) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := d.QueryContext(ctx, `SELECT path, title, source, content_hash, built_at FROM pages ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.Path, &p.Title, &p.Source, &p.ContentHash, &p.BuiltAt); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetPage returns one page or ErrNotFound.
func (d *DB) GetPage(ctx context.Context, path string) (Page, error) {
	var p Page
	err := d.QueryRowContext(ctx, `SELECT path, title, source, content_hash, built_at FROM pages WHERE path = ?`, path).
		Scan(&p.Path, &p.Title, &p.Source, &p.ContentHash, &p.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, fmt.Errorf("%w: page %s", ErrNotFound, path)
	}
	if err != nil {
		return Page{}, fmt.Errorf("reading page %s: %w", path, err)
	}
	return p, nil
}

// PageHeadings returns the headings of page in document order.
func (d *DB) PageHeadings(ctx context.Context, page string) ([]Heading, error) {
	if _, err := d.GetPage(ctx, page); err != nil {
		return nil, err
	}
	return d.queryHeadings(ctx, `SELECT page, ord, level, anchor, title, parent FROM headings WHERE page = ? ORDER BY ord`, page)
}

// FindAnchor returns every heading with the given anchor, ordered by page.
func (d *DB) FindAnchor(ctx context.Context, anchor string) ([]Heading, error) {
	return d.queryHeadings(ctx, `SELECT page, ord, level, anchor, title, parent FROM headings WHERE anchor = ? ORDER BY page, ord`, anchor)
}

func (d *DB) queryHeadings(ctx context.Context, query string, args ...any) ([]Heading, error) {
	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying headings: %w", err)
	}
	defer rows.Close()

	out := []Heading{}
	for rows.Next() {
		var h Heading
		if err := rows.Scan(&h.Page, &h.Order, &h.Level, &h.Anchor, &h.Title, &h.Parent); err != nil {
			return nil, fmt.Errorf("scanning heading: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
