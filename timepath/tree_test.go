package timepath

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store/mem"
)

func TestEnsureChildrenNewest(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	tree := New(s, time.Hour) // day depth

	mustParse := func(v string) time.Time {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			t.Fatal(err)
		}
		return ts
	}

	times := []time.Time{
		mustParse("2020-12-31T10:00:00Z"),
		mustParse("2021-06-15T13:00:00Z"),
		mustParse("2021-06-17T09:00:00Z"),
	}
	for _, ts := range times {
		if _, err := tree.Ensure(ctx, tree.For("posts", ts)); err != nil {
			t.Fatal(err)
		}
	}

	// Ensure is idempotent: repeating it adds nothing new.
	leaf, err := tree.Ensure(ctx, tree.For("posts", times[0]))
	if err != nil {
		t.Fatal(err)
	}
	if leaf != tree.For("posts", times[0]).Ref() {
		t.Error("Ensure returned a ref different from the leaf path's own")
	}

	root := tree.Root("posts")
	years, err := tree.Children(ctx, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 {
		t.Fatalf("got %d year children, want 2", len(years))
	}

	newest, err := tree.NewestChild(ctx, root, Year)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := newest.Component(Year); v != 2021 {
		t.Errorf("newest year = %d, want 2021", v)
	}

	// Descend the whole way down by newest child.
	p := root
	for _, l := range tree.Levels() {
		p, err = tree.NewestChild(ctx, p, l)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !p.Time().Equal(mustParse("2021-06-17T00:00:00Z")) {
		t.Errorf("newest leaf = %s", p.Time())
	}

	// A pruned level returns the path unchanged.
	same, err := tree.NewestChild(ctx, p, Minute)
	if err != nil {
		t.Fatal(err)
	}
	if same.Ref() != p.Ref() {
		t.Error("pruned level should return the path unchanged")
	}

	// An empty materialized level is a not-found.
	_, err = tree.NewestChild(ctx, tree.Root("empty"), Year)
	if !errors.Is(err, timedex.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestEnsureConcurrentConverges(t *testing.T) {
	ctx := context.Background()
	s := mem.New()
	tree := New(s, time.Hour)

	ts := time.Date(2021, 6, 15, 13, 0, 0, 0, time.UTC)
	p := tree.For("posts", ts)

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := tree.Ensure(ctx, p)
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}

	parent := Path{Index: p.Index, Comps: p.Comps[:len(p.Comps)-1]}
	days, err := tree.Children(ctx, parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 {
		t.Errorf("got %d day children, want 1", len(days))
	}
}
