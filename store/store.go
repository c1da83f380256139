// Package store persists snapshot, diff and merge artifacts in a SQLite
// database keyed by BLAKE3 content digest.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"nodediff/cas"
)

// Kind classifies a stored artifact.
type Kind string

const (
	KindScript Kind = "script"
	KindDiff   Kind = "diff"
	KindMerge  Kind = "merge"
)

// Artifact is one stored blob plus its bookkeeping columns.
type Artifact struct {
	Digest    string
	Kind      Kind
	Name      string
	Content   []byte
	CreatedAt int64
}

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	digest     TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	content    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts(kind, created_at);
`

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Put stores content under its digest, idempotently, and returns the
// digest. The name is a human label (typically the source file path).
func (db *DB) Put(kind Kind, name string, content []byte) (string, error) {
	digest := cas.SumHex(content)

	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO artifacts (digest, kind, name, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		digest, string(kind), name, content, cas.NowMs(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting artifact: %w", err)
	}
	return digest, nil
}

// Get retrieves an artifact by digest, content included. Digest prefixes
// of at least four characters are accepted when unambiguous.
func (db *DB) Get(digest string) (*Artifact, error) {
	if len(digest) < 4 {
		return nil, fmt.Errorf("digest %q too short", digest)
	}

	rows, err := db.conn.Query(
		`SELECT digest, kind, name, content, created_at FROM artifacts WHERE digest LIKE ?`,
		digest+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("querying artifact: %w", err)
	}
	defer rows.Close()

	var found *Artifact
	for rows.Next() {
		a := &Artifact{}
		var kind string
		if err := rows.Scan(&a.Digest, &kind, &a.Name, &a.Content, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Kind = Kind(kind)
		if found != nil {
			return nil, fmt.Errorf("digest %q is ambiguous", digest)
		}
		found = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading artifacts: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("artifact %q not found", digest)
	}
	return found, nil
}

// List returns artifact metadata (no content), newest first. An empty kind
// lists everything.
func (db *DB) List(kind Kind) ([]*Artifact, error) {
	query := `SELECT digest, kind, name, created_at FROM artifacts ORDER BY created_at DESC`
	args := []interface{}{}
	if kind != "" {
		query = `SELECT digest, kind, name, created_at FROM artifacts WHERE kind = ? ORDER BY created_at DESC`
		args = append(args, string(kind))
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*Artifact
	for rows.Next() {
		a := &Artifact{}
		var k string
		if err := rows.Scan(&a.Digest, &k, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.Kind = Kind(k)
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading artifacts: %w", err)
	}
	return artifacts, nil
}
