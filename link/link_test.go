package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store/mem"
)

// tick is a clock advancing one second per reading, so every edge gets a
// distinct timestamp and collection order follows attachment order.
func tick() timedex.Clock {
	t := time.Unix(0, 0).UTC()
	return timedex.ClockFunc(func() time.Time {
		t = t.Add(time.Second)
		return t
	})
}

func testAttacher(s timedex.Store) *Attacher {
	cfg := timedex.Config{Interval: 100 * time.Second, DirectLimit: 2, SpamLimit: 5}
	return NewAttacher(s, cfg, tick())
}

func TestAddDirectThenChain(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	a := testAttacher(s)
	chunkRef := timedex.Ref{1}

	targets := make([]timedex.Ref, 5)
	for i := range targets {
		targets[i] = timedex.Ref{2, byte(i)}
		if err := a.Add(ctx, chunkRef, targets[i], "entry", "alice"); err != nil {
			t.Fatalf("add %d: %v", i+1, err)
		}
	}

	// Edges 1-2 hang directly off the chunk.
	direct, err := s.Edges(ctx, chunkRef, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(direct) != 2 {
		t.Fatalf("got %d direct edges, want 2", len(direct))
	}
	for _, e := range direct {
		if e.Kind != timedex.KindDirect {
			t.Errorf("chunk edge has kind %s", e.Kind)
		}
	}

	// Edges 3-5 chain: each hangs off the previous target.
	for i := 1; i < 4; i++ {
		hops, err := s.Edges(ctx, targets[i], "")
		if err != nil {
			t.Fatal(err)
		}
		if len(hops) != 1 || hops[0].Kind != timedex.KindChain || hops[0].Target != targets[i+1] {
			t.Errorf("node %d: chain edges %+v", i, hops)
		}
	}

	// The 6th attachment hits the spam limit.
	err = a.Add(ctx, chunkRef, timedex.Ref{9}, "entry", "alice")
	var verr timedex.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("6th add: got %v, want ValidationError", err)
	}

	// Another author is unaffected by alice's limits.
	if err := a.Add(ctx, chunkRef, timedex.Ref{3}, "entry", "bob"); err != nil {
		t.Fatal(err)
	}
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	a := testAttacher(s)
	chunkRef := timedex.Ref{1}

	var want []timedex.Ref
	for i := 0; i < 5; i++ {
		r := timedex.Ref{2, byte(i)}
		want = append(want, r)
		if err := a.Add(ctx, chunkRef, r, "entry", "alice"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := a.Collect(ctx, chunkRef, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Truncated at limit.
	got, err = a.Collect(ctx, chunkRef, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(got, want[:3]) {
		t.Errorf("limited collect: got %v, want %v", got, want[:3])
	}
}

func TestCollectDedupesAcrossAuthors(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	a := testAttacher(s)
	chunkRef := timedex.Ref{1}

	shared := timedex.Ref{7}
	if err := a.Add(ctx, chunkRef, shared, "entry", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := a.Add(ctx, chunkRef, shared, "entry", "bob"); err != nil {
		t.Fatal(err)
	}

	got, err := a.Collect(ctx, chunkRef, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != shared {
		t.Errorf("got %v, want just %s", got, shared)
	}
}

func TestCollectTagFilter(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	a := testAttacher(s)
	chunkRef := timedex.Ref{1}

	r1, r2, r3 := timedex.Ref{2}, timedex.Ref{3}, timedex.Ref{4}
	if err := a.Add(ctx, chunkRef, r1, "post", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := a.Add(ctx, chunkRef, r2, "comment", "alice"); err != nil {
		t.Fatal(err)
	}
	// Third attachment overflows into the chain, still tagged.
	if err := a.Add(ctx, chunkRef, r3, "post", "alice"); err != nil {
		t.Fatal(err)
	}

	got, err := a.Collect(ctx, chunkRef, "post", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []timedex.Ref{r1, r3}
	if !cmp.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAddRejectsReservedTags(t *testing.T) {
	ctx := context.Background()
	a := testAttacher(mem.New())

	var verr timedex.ValidationError
	for _, tag := range []string{timedex.TagPath, timedex.TagChunk, timedex.TagGenesis} {
		err := a.Add(ctx, timedex.Ref{1}, timedex.Ref{2}, tag, "alice")
		if !errors.As(err, &verr) {
			t.Errorf("tag %q: got %v, want ValidationError", tag, err)
		}
	}
	err := a.Add(ctx, timedex.Ref{1}, timedex.Ref{2}, "entry", "")
	if !errors.As(err, &verr) {
		t.Errorf("empty author: got %v, want ValidationError", err)
	}
}
