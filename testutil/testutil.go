// Package testutil has helpers for exercising Store implementations.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"testing/quick"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/graphtide/timedex"
)

// ReadWrite writes blobs to a store and reads them back: a Put returns the
// content hash, a second Put of the same bytes reports added=false, and a
// Get of an absent ref fails with timedex.ErrNotFound.
func ReadWrite(ctx context.Context, t *testing.T, s timedex.Store) {
	blobs := []timedex.Blob{
		timedex.Blob("what hath god wrought"),
		timedex.Blob("mr watson, come here"),
		timedex.Blob(""),
	}

	for _, b := range blobs {
		ref, added, err := s.Put(ctx, b)
		if err != nil {
			t.Fatal(err)
		}
		if ref != b.Ref() {
			t.Errorf("got ref %s, want %s", ref, b.Ref())
		}
		if !added {
			t.Errorf("blob %q not added", b)
		}

		_, added, err = s.Put(ctx, b)
		if err != nil {
			t.Fatal(err)
		}
		if added {
			t.Errorf("blob %q added twice", b)
		}

		got, err := s.Get(ctx, ref)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, b) {
			t.Errorf("got %q, want %q", got, b)
		}
	}

	if _, err := s.Get(ctx, timedex.Ref{0xff}); !errors.Is(err, timedex.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

// Edges writes a small edge set to a store, re-creates one edge to check
// idempotency, and queries it back by source and tag.
func Edges(ctx context.Context, t *testing.T, s timedex.Store) {
	var (
		src   = timedex.Ref{1}
		other = timedex.Ref{2}
		at    = time.Date(2021, 6, 15, 13, 45, 57, 0, time.UTC)
	)
	edges := []timedex.Edge{
		{Source: src, Target: timedex.Ref{0xa}, Tag: "entry", Author: "alice", Kind: timedex.KindDirect, At: at},
		{Source: src, Target: timedex.Ref{0xb}, Tag: "entry", Author: "alice", Kind: timedex.KindDirect, At: at.Add(time.Second)},
		{Source: src, Target: timedex.Ref{0xc}, Tag: "note", Author: "bob", Kind: timedex.KindDirect, At: at},
		{Source: other, Target: timedex.Ref{0xd}, Tag: "entry", Author: "alice", Kind: timedex.KindChain, At: at},
	}
	for _, e := range edges {
		if err := s.CreateEdge(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	// Identical edges collapse.
	if err := s.CreateEdge(ctx, edges[0]); err != nil {
		t.Fatal(err)
	}

	got, err := s.Edges(ctx, src, "")
	if err != nil {
		t.Fatal(err)
	}
	timedex.SortEdges(got)
	want := []timedex.Edge{edges[0], edges[2], edges[1]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("edges of source mismatch (-want +got):\n%s", diff)
	}

	got, err = s.Edges(ctx, src, "note")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]timedex.Edge{edges[2]}, got); diff != "" {
		t.Errorf("tagged edges mismatch (-want +got):\n%s", diff)
	}

	got, err = s.Edges(ctx, timedex.Ref{0xee}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d edges for unknown source, want 0", len(got))
	}

	var all []timedex.Edge
	err = s.ListEdges(ctx, func(e timedex.Edge) error {
		all = append(all, e)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(edges) {
		t.Errorf("ListEdges produced %d edges, want %d", len(all), len(edges))
	}
}

// AllRefs writes a random set of random blobs to an empty store
// and makes sure that the right set of refs comes back in a call to ListRefs.
func AllRefs(ctx context.Context, t *testing.T, storeFactory func() timedex.Store) {
	if err := quick.Check(allRefsHelper(ctx, t, storeFactory), nil); err != nil {
		t.Error(err)
	}
}

func allRefsHelper(ctx context.Context, t *testing.T, storeFactory func() timedex.Store) func([]timedex.Blob) bool {
	return func(blobs []timedex.Blob) bool {
		var (
			s    = storeFactory()
			want []timedex.Ref
		)
		for _, blob := range blobs {
			ref, added, err := s.Put(ctx, blob)
			if err != nil {
				t.Fatal(err)
			}
			if added {
				want = append(want, ref)
			}
		}
		var got []timedex.Ref
		err := s.ListRefs(ctx, timedex.Zero, func(r timedex.Ref) error {
			got = append(got, r)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		sort.Slice(want, func(i, j int) bool { return want[i].Less(want[j]) })
		sort.Slice(got, func(i, j int) bool { return got[i].Less(got[j]) })

		if diff := cmp.Diff(want, got); diff != "" {
			t.Logf("mismatch (-want +got):\n%s", diff)
			return false
		}
		return true
	}
}
