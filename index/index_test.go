package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store/mem"
)

var epoch = time.Unix(0, 0).UTC()

func at(sec int64) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

type entry struct {
	at  time.Time
	ref timedex.Ref
}

func (e entry) Time() time.Time  { return e.at }
func (e entry) Ref() timedex.Ref { return e.ref }

func testIndex(t *testing.T, s timedex.Store, now time.Time) *Index {
	t.Helper()
	cfg := timedex.Config{Interval: 100 * time.Second, DirectLimit: 2, SpamLimit: 5}
	ix, err := New("posts", s, cfg, timedex.ClockFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestAddBootstrapsGenesis(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	ix := testIndex(t, s, at(350))

	e := entry{at: at(42), ref: timedex.Ref{1}}
	if err := ix.Add(ctx, e, "entry", "alice"); err != nil {
		t.Fatal(err)
	}

	genesis, ok, err := ix.Chunks().Genesis(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !genesis.From.Equal(at(0)) {
		t.Fatalf("genesis = %+v, ok = %v", genesis, ok)
	}
}

func TestCurrentAndMostRecent(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	ix := testIndex(t, s, at(350))

	// Nothing yet: both lookups miss without error.
	if _, ok, err := ix.Current(ctx, "", 0); err != nil || ok {
		t.Fatalf("empty Current: ok = %v, err = %v", ok, err)
	}
	if _, ok, err := ix.MostRecent(ctx, "", 0); err != nil || ok {
		t.Fatalf("empty MostRecent: ok = %v, err = %v", ok, err)
	}

	old := entry{at: at(10), ref: timedex.Ref{1}}
	if err := ix.Add(ctx, old, "entry", "alice"); err != nil {
		t.Fatal(err)
	}
	cur := entry{at: at(320), ref: timedex.Ref{2}}
	if err := ix.Add(ctx, cur, "entry", "alice"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := ix.Current(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !got.Chunk.From.Equal(at(300)) {
		t.Fatalf("current chunk = %+v, ok = %v", got.Chunk, ok)
	}
	if !cmp.Equal(got.Links, []timedex.Ref{cur.ref}) {
		t.Errorf("current links = %v", got.Links)
	}

	recent, ok, err := ix.MostRecent(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !recent.Chunk.From.Equal(at(300)) {
		t.Fatalf("most recent chunk = %+v, ok = %v", recent.Chunk, ok)
	}

	// An index clock past the last committed window: Current misses but
	// MostRecent still finds the newest chunk.
	later := testIndex(t, s, at(7200))
	if _, ok, err := later.Current(ctx, "", 0); err != nil || ok {
		t.Fatalf("Current outside committed window: ok = %v, err = %v", ok, err)
	}
	recent, ok, err = later.MostRecent(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !recent.Chunk.From.Equal(at(300)) {
		t.Fatalf("most recent after clock advance = %+v, ok = %v", recent.Chunk, ok)
	}
}

func TestBetween(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	ix := testIndex(t, s, at(350))

	entries := []entry{
		{at: at(10), ref: timedex.Ref{1}},
		{at: at(50), ref: timedex.Ref{2}},
		{at: at(120), ref: timedex.Ref{3}},
		{at: at(310), ref: timedex.Ref{4}},
	}
	for _, e := range entries {
		if err := ix.Add(ctx, e, "entry", "alice"); err != nil {
			t.Fatal(err)
		}
	}

	// Too-narrow windows are rejected outright.
	if _, err := ix.Between(ctx, at(0), at(99), "", 0); !errors.Is(err, timedex.ErrRange) {
		t.Fatalf("narrow window: got %v, want ErrRange", err)
	}

	got, err := ix.Between(ctx, at(0), at(200), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if !got[0].Chunk.From.Equal(at(0)) || !got[1].Chunk.From.Equal(at(100)) {
		t.Errorf("chunks out of order: %+v", got)
	}
	if !cmp.Equal(got[0].Links, []timedex.Ref{{1}, {2}}) {
		t.Errorf("first chunk links = %v", got[0].Links)
	}
	if !cmp.Equal(got[1].Links, []timedex.Ref{{3}}) {
		t.Errorf("second chunk links = %v", got[1].Links)
	}

	// The whole history.
	got, err = ix.Between(ctx, at(0), at(400), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
}

func TestSpamLimitThroughIndex(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	ix := testIndex(t, s, at(350))

	for i := 0; i < 5; i++ {
		e := entry{at: at(10 + int64(i)), ref: timedex.Ref{byte(i + 1)}}
		if err := ix.Add(ctx, e, "entry", "alice"); err != nil {
			t.Fatalf("add %d: %v", i+1, err)
		}
	}

	err := ix.Add(ctx, entry{at: at(20), ref: timedex.Ref{9}}, "entry", "alice")
	var verr timedex.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("6th add: got %v, want ValidationError", err)
	}
}
