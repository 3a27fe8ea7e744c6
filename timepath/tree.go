package timepath

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
)

// Tree navigates the materialized time hierarchy for one dataset.
type Tree struct {
	s      timedex.Store
	levels []Level
}

// New produces a Tree whose depth is derived from the chunk interval.
func New(s timedex.Store, interval time.Duration) *Tree {
	return &Tree{s: s, levels: LevelsFor(interval)}
}

// Levels returns the materialized levels, coarsest first.
func (t *Tree) Levels() []Level {
	return t.levels
}

// Materialized reports whether the level is part of the active depth.
func (t *Tree) Materialized(l Level) bool {
	for _, have := range t.levels {
		if have == l {
			return true
		}
	}
	return false
}

// Root returns the path node every path of the named index descends from.
func (t *Tree) Root(index string) Path {
	return Path{Index: index}
}

// For maps a timestamp to its full path: one component per materialized
// level, levels beyond the active depth omitted entirely.
func (t *Tree) For(index string, ts time.Time) Path {
	p := t.Root(index)
	for _, l := range t.levels {
		p = p.Child(l, component(ts, l))
	}
	return p
}

// Ensure idempotently creates the path node records and parent-to-child
// edges for every prefix of p. Content-addressed node identity makes
// repeated or concurrent calls converge on the same records, so this is
// safe with no locking.
//
// Path edges carry the zero timestamp and no author: that keeps them
// byte-identical across writers, which is what makes re-creation a no-op.
func (t *Tree) Ensure(ctx context.Context, p Path) (timedex.Ref, error) {
	parent := t.Root(p.Index)
	if err := t.put(ctx, parent); err != nil {
		return timedex.Zero, err
	}
	for i := range p.Comps {
		child := Path{Index: p.Index, Comps: p.Comps[:i+1]}
		if err := t.put(ctx, child); err != nil {
			return timedex.Zero, err
		}
		err := t.s.CreateEdge(ctx, timedex.Edge{
			Source: parent.Ref(),
			Target: child.Ref(),
			Tag:    timedex.TagPath,
			Kind:   timedex.KindDirect,
		})
		if err != nil {
			return timedex.Zero, errors.Wrapf(err, "linking path level %s", child.Comps[i].Level)
		}
		parent = child
	}
	return parent.Ref(), nil
}

func (t *Tree) put(ctx context.Context, p Path) error {
	b, err := p.Blob()
	if err != nil {
		return err
	}
	_, _, err = t.s.Put(ctx, b)
	return errors.Wrap(err, "storing path node")
}

// Children enumerates the path nodes one level below p.
func (t *Tree) Children(ctx context.Context, p Path) ([]Path, error) {
	edges, err := t.s.Edges(ctx, p.Ref(), timedex.TagPath)
	if err != nil {
		return nil, errors.Wrap(err, "getting path edges")
	}
	var (
		out  []Path
		seen = make(map[timedex.Ref]bool)
	)
	for _, e := range edges {
		if seen[e.Target] {
			continue
		}
		seen[e.Target] = true
		var rec pathRecord
		if err := timedex.GetRecord(ctx, t.s, e.Target, &rec); err != nil {
			return nil, errors.Wrapf(err, "resolving child path %s", e.Target)
		}
		out = append(out, Path{Index: rec.Index, Comps: rec.Comps})
	}
	return out, nil
}

// NewestChild descends one level from p, selecting the child with the
// greatest numeric component at the given level. When the level is not
// materialized it returns p unchanged: there is nothing deeper to search.
// When the level is materialized but p has no children it returns
// timedex.ErrNotFound.
func (t *Tree) NewestChild(ctx context.Context, p Path, l Level) (Path, error) {
	if !t.Materialized(l) {
		return p, nil
	}
	children, err := t.Children(ctx, p)
	if err != nil {
		return Path{}, err
	}
	if len(children) == 0 {
		return Path{}, errors.Wrapf(timedex.ErrNotFound, "no %s children", l)
	}
	newest := children[0]
	best, _ := newest.Component(l)
	for _, c := range children[1:] {
		if v, ok := c.Component(l); ok && v > best {
			newest, best = c, v
		}
	}
	return newest, nil
}

// Boundaries computes the start-of-period boundaries of from and until at
// the given level. ok is false when the level is pruned from the active
// depth, signaling callers to skip it when walking the tree.
func (t *Tree) Boundaries(from, until time.Time, l Level) (time.Time, time.Time, bool) {
	if !t.Materialized(l) {
		return time.Time{}, time.Time{}, false
	}
	return Truncate(from, l), Truncate(until, l), true
}
