package sqlite3

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/graphtide/timedex/testutil"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	withTestStore(ctx, t, func(s *Store) {
		testutil.ReadWrite(ctx, t, s)
	})
}

func TestEdges(t *testing.T) {
	ctx := context.Background()
	withTestStore(ctx, t, func(s *Store) {
		testutil.Edges(ctx, t, s)
	})
}

func withTestStore(ctx context.Context, t *testing.T, fn func(*Store)) {
	f, err := os.CreateTemp("", "timedexsqlite3test")
	if err != nil {
		t.Fatal(err)
	}

	tmpfile := f.Name()
	f.Close()
	defer os.Remove(tmpfile)

	db, err := sql.Open("sqlite3", tmpfile)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s, err := New(ctx, db)
	if err != nil {
		t.Fatal(err)
	}

	fn(s)
}
