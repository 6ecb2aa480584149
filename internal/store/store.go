// Package store implements the per-project SQLite search and embedding
// store: schema, FTS5 triggers, metadata upsert, embedding BLOB I/O, tag
// collection, full-text search, cosine search, and the tag-Jaccard fallback.
package store

import (
	"database/sql"
	"fmt"

	"github.com/deco-run/deco-core/internal/sqliteutil"
)

// Store is a handle to one project's {project}/.deco/search.db.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
	path        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '',
	style       TEXT NOT NULL DEFAULT '',
	mood        TEXT NOT NULL DEFAULT '',
	colors      TEXT NOT NULL DEFAULT '',
	era         TEXT NOT NULL DEFAULT ''
);

CREATE VIRTUAL TABLE IF NOT EXISTS images_fts USING fts5(
	path UNINDEXED,
	name, description, tags, style, mood, era,
	content='images',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS images_ai AFTER INSERT ON images BEGIN
	INSERT INTO images_fts(rowid, path, name, description, tags, style, mood, era)
	VALUES (new.rowid, new.path, new.name, new.description, new.tags, new.style, new.mood, new.era);
END;

CREATE TRIGGER IF NOT EXISTS images_ad AFTER DELETE ON images BEGIN
	INSERT INTO images_fts(images_fts, rowid, path, name, description, tags, style, mood, era)
	VALUES ('delete', old.rowid, old.path, old.name, old.description, old.tags, old.style, old.mood, old.era);
END;

CREATE TRIGGER IF NOT EXISTS images_au AFTER UPDATE ON images BEGIN
	INSERT INTO images_fts(images_fts, rowid, path, name, description, tags, style, mood, era)
	VALUES ('delete', old.rowid, old.path, old.name, old.description, old.tags, old.style, old.mood, old.era);
	INSERT INTO images_fts(rowid, path, name, description, tags, style, mood, era)
	VALUES (new.rowid, new.path, new.name, new.description, new.tags, new.style, new.mood, new.era);
END;

CREATE TABLE IF NOT EXISTS embeddings (
	path       TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	vector     BLOB NOT NULL,
	dimensions INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens or creates {project}/.deco/search.db, applies the schema
// idempotently, and sets WAL mode. Fails only on filesystem permission errors
// or a SQLite open failure.
func Open(dbPath string) (*Store, error) {
	db, err := sqliteutil.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close checkpoints the WAL and closes the underlying connection.
func (s *Store) Close() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		// best-effort: checkpoint failures don't prevent closing
		_ = err
	}
	return s.db.Close()
}
