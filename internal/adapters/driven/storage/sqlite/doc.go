// Package sqlite provides SQLite-backed implementations of the field,
// link and page lookup ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Each input file gets its own database:
//
//   - FieldStore: infobox(docid, key, value) in <stem>_infobox.db
//   - LinkStore: links(source_docid, target_title, target_docid) in <stem>_linkgraph.db
//   - PageLookup: read-only title lookups against a page_meta(page_id, title) table
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory, one subdirectory per database kind. Each migration
// is a pair of .up.sql and .down.sql files.
//
// # Thread Safety
//
// A store is written by one job at a time. Databases open in WAL mode with a
// busy timeout so concurrent readers do not fail.
package sqlite
