// Package sqlite3 implements a Sqlite-based record-and-edge store.
package sqlite3

import (
	"context"
	"database/sql"
	stderrs "errors"
	"time"

	"github.com/bobg/sqlutil"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store"
)

var _ timedex.Store = &Store{}

// Store is a Sqlite-based store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `blobs` and `edges` tables if they do not exist.
// (If they do exist, they must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS blobs (
  ref BLOB PRIMARY KEY NOT NULL,
  data BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS edges (
  source BLOB NOT NULL,
  target BLOB NOT NULL,
  tag TEXT NOT NULL,
  author TEXT NOT NULL,
  kind TEXT NOT NULL,
  at TEXT NOT NULL,
  PRIMARY KEY (source, target, tag, author, kind, at)
);

CREATE INDEX IF NOT EXISTS edge_idx ON edges (source, tag);
`

// New produces a new Store using `db` for storage.
// It expects to create tables `blobs` and `edges`,
// or for those tables already to exist with the correct schema.
// (See variable Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, err
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(ctx context.Context, ref timedex.Ref) (timedex.Blob, error) {
	const q = `SELECT data FROM blobs WHERE ref = $1`

	var b []byte
	err := s.db.QueryRowContext(ctx, q, ref[:]).Scan(&b)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, timedex.ErrNotFound
	}
	return timedex.Blob(b), errors.Wrap(err, "querying blob")
}

// Put adds a blob to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, b timedex.Blob) (timedex.Ref, bool, error) {
	const q = `INSERT OR IGNORE INTO blobs (ref, data) VALUES ($1, $2)`

	ref := b.Ref()
	res, err := s.db.ExecContext(ctx, q, ref[:], []byte(b))
	if err != nil {
		return timedex.Zero, false, errors.Wrap(err, "inserting blob")
	}
	aff, err := res.RowsAffected()
	return ref, aff > 0, errors.Wrap(err, "counting affected rows")
}

// CreateEdge appends an edge. Re-creating an identical edge is a no-op.
func (s *Store) CreateEdge(ctx context.Context, e timedex.Edge) error {
	const q = `INSERT OR IGNORE INTO edges (source, target, tag, author, kind, at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, q, e.Source[:], e.Target[:], e.Tag, e.Author, string(e.Kind), e.At.UTC().Format(time.RFC3339Nano))
	return errors.Wrap(err, "inserting edge")
}

// Edges returns the outgoing edges of source, optionally filtered by tag.
func (s *Store) Edges(ctx context.Context, source timedex.Ref, tag string) ([]timedex.Edge, error) {
	const (
		qAll = `SELECT target, tag, author, kind, at FROM edges WHERE source = $1`
		qTag = `SELECT target, tag, author, kind, at FROM edges WHERE source = $1 AND tag = $2`
	)

	var (
		out []timedex.Edge
		err error
	)
	scan := func(target []byte, tag, author, kind, atstr string) error {
		at, err := time.Parse(time.RFC3339Nano, atstr)
		if err != nil {
			return errors.Wrapf(err, "parsing time %s", atstr)
		}
		out = append(out, timedex.Edge{
			Source: source,
			Target: timedex.RefFromBytes(target),
			Tag:    tag,
			Author: author,
			Kind:   timedex.Kind(kind),
			At:     at,
		})
		return nil
	}
	if tag == "" {
		err = sqlutil.ForQueryRows(ctx, s.db, qAll, source[:], scan)
	} else {
		err = sqlutil.ForQueryRows(ctx, s.db, qTag, source[:], tag, scan)
	}
	return out, errors.Wrap(err, "querying edges")
}

// ListRefs produces all blob refs in the store, in lexicographic order.
func (s *Store) ListRefs(ctx context.Context, start timedex.Ref, f func(timedex.Ref) error) error {
	const q = `SELECT ref FROM blobs WHERE ref > $1 ORDER BY ref`
	return sqlutil.ForQueryRows(ctx, s.db, q, start[:], func(ref []byte) error {
		return f(timedex.RefFromBytes(ref))
	})
}

// ListEdges produces every edge in the store.
func (s *Store) ListEdges(ctx context.Context, f func(timedex.Edge) error) error {
	const q = `SELECT source, target, tag, author, kind, at FROM edges ORDER BY source, target`
	return sqlutil.ForQueryRows(ctx, s.db, q, func(source, target []byte, tag, author, kind, atstr string) error {
		at, err := time.Parse(time.RFC3339Nano, atstr)
		if err != nil {
			return errors.Wrapf(err, "parsing time %s", atstr)
		}
		return f(timedex.Edge{
			Source: timedex.RefFromBytes(source),
			Target: timedex.RefFromBytes(target),
			Tag:    tag,
			Author: author,
			Kind:   timedex.Kind(kind),
			At:     at,
		})
	})
}

func init() {
	store.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (timedex.Store, error) {
		conn, ok := conf["conn"].(string)
		if !ok {
			return nil, errors.New(`missing "conn" parameter`)
		}
		db, err := sql.Open("sqlite3", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
