package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/wikichunk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.FieldStoreFactory = (*Factory)(nil)
	_ driven.LinkStoreFactory  = (*Factory)(nil)
	_ driven.PageLookupFactory = (*Factory)(nil)
	_ driven.FieldStore        = (*FieldStore)(nil)
	_ driven.LinkStore         = (*LinkStore)(nil)
	_ driven.PageLookup        = (*PageLookup)(nil)
)

// pragmas is appended to every database path.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// lookupBatch bounds the number of bound parameters per lookup query.
const lookupBatch = 500

// Factory opens SQLite databases for the storage ports.
type Factory struct{}

// NewFactory creates a SQLite store factory.
func NewFactory() *Factory {
	return &Factory{}
}

// OpenFieldStore opens (creating if needed) an infobox database at target.
func (f *Factory) OpenFieldStore(ctx context.Context, target string) (driven.FieldStore, error) {
	db, err := open(ctx, target, migrations.Infobox)
	if err != nil {
		return nil, err
	}
	return &FieldStore{db: db, path: target}, nil
}

// OpenLinkStore opens (creating if needed) a link-graph database at target.
func (f *Factory) OpenLinkStore(ctx context.Context, target string) (driven.LinkStore, error) {
	db, err := open(ctx, target, migrations.LinkGraph)
	if err != nil {
		return nil, err
	}
	return &LinkStore{db: db, path: target}, nil
}

// OpenPageLookup opens an existing page metadata database read-only.
func (f *Factory) OpenPageLookup(ctx context.Context, path string) (driven.PageLookup, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	db, err := sql.Open("sqlite", path+pragmas+"&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrStorage, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrStorage, path, err)
	}
	return &PageLookup{db: db}, nil
}

// open creates the parent directory, opens the database and applies migrations.
func open(ctx context.Context, path string, fsys fs.FS) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating directory: %v", domain.ErrStorage, err)
	}

	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrStorage, path, err)
	}

	if err := migrate(ctx, db, fsys); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrating %s: %v", domain.ErrStorage, path, err)
	}

	return db, nil
}

// migrate applies every NNN_*.up.sql file newer than the recorded version.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStorage, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStorage, err)
	}
	return nil
}

// ==================== FieldStore ====================

// FieldStore writes infobox fields to one database.
type FieldStore struct {
	db   *sql.DB
	path string
}

// SaveFields upserts all fields in a single transaction.
func (s *FieldStore) SaveFields(ctx context.Context, fields []domain.ExtractedField) error {
	if len(fields) == 0 {
		return nil
	}
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO infobox (docid, key, value) VALUES (?, ?, ?)
			ON CONFLICT(docid, key) DO UPDATE SET value = excluded.value
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range fields {
			if _, err := stmt.ExecContext(ctx, f.DocumentID, f.Key, f.Value); err != nil {
				return fmt.Errorf("saving field %d/%s to %s: %w", f.DocumentID, f.Key, s.path, err)
			}
		}
		return nil
	})
}

// Fields returns the stored fields of a document ordered by key.
func (s *FieldStore) Fields(ctx context.Context, docID int64) ([]domain.ExtractedField, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT docid, key, value FROM infobox WHERE docid = ? ORDER BY key", docID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var fields []domain.ExtractedField
	for rows.Next() {
		var f domain.ExtractedField
		if err := rows.Scan(&f.DocumentID, &f.Key, &f.Value); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Close closes the database connection.
func (s *FieldStore) Close() error {
	return s.db.Close()
}

// ==================== LinkStore ====================

// LinkStore writes link-graph edges to one database.
type LinkStore struct {
	db   *sql.DB
	path string
}

// SaveLinks upserts all links in a single transaction.
func (s *LinkStore) SaveLinks(ctx context.Context, links []domain.Link) error {
	if len(links) == 0 {
		return nil
	}
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO links (source_docid, target_title, target_docid) VALUES (?, ?, ?)
			ON CONFLICT(source_docid, target_title) DO UPDATE SET target_docid = excluded.target_docid
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, l := range links {
			var target sql.NullInt64
			if l.TargetID != nil {
				target = sql.NullInt64{Int64: *l.TargetID, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, l.SourceID, l.Target, target); err != nil {
				return fmt.Errorf("saving link %d -> %s to %s: %w", l.SourceID, l.Target, s.path, err)
			}
		}
		return nil
	})
}

// Links returns the stored outgoing links of a document ordered by target.
func (s *LinkStore) Links(ctx context.Context, sourceID int64) ([]domain.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_docid, target_title, target_docid FROM links WHERE source_docid = ? ORDER BY target_title",
		sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var l domain.Link
		var target sql.NullInt64
		if err := rows.Scan(&l.SourceID, &l.Target, &target); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		if target.Valid {
			id := target.Int64
			l.TargetID = &id
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Close closes the database connection.
func (s *LinkStore) Close() error {
	return s.db.Close()
}

// ==================== PageLookup ====================

// PageLookup resolves titles against a page_meta(page_id, title) table.
type PageLookup struct {
	db *sql.DB
}

// Lookup returns the page ids of the known titles.
func (p *PageLookup) Lookup(ctx context.Context, titles []string) (map[string]int64, error) {
	found := make(map[string]int64, len(titles))
	for start := 0; start < len(titles); start += lookupBatch {
		batch := titles[start:min(start+lookupBatch, len(titles))]

		args := make([]any, len(batch))
		for i, t := range batch {
			args[i] = t
		}
		query := "SELECT page_id, title FROM page_meta WHERE title IN (?" +
			strings.Repeat(",?", len(batch)-1) + ")"

		if err := p.scan(ctx, found, query, args); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (p *PageLookup) scan(ctx context.Context, found map[string]int64, query string, args []any) error {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: page lookup: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return fmt.Errorf("%w: page lookup: %v", domain.ErrStorage, err)
		}
		found[title] = id
	}
	return rows.Err()
}

// Close closes the database connection.
func (p *PageLookup) Close() error {
	return p.db.Close()
}
