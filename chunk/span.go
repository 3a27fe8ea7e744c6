package chunk

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/timepath"
)

// Span returns every chunk of the named index whose interval intersects
// [from, until), ordered by start time. A window narrower than one chunk
// interval can never be satisfied and is rejected with timedex.ErrRange.
//
// The walk is top-down: at each materialized level it truncates the
// window boundaries, keeps the child paths whose period intersects the
// window, and descends; chunks are collected from the "chunk" edges of
// the qualifying leaves.
func (m *Manager) Span(ctx context.Context, index string, from, until time.Time) ([]Chunk, error) {
	if until.Sub(from) < m.cfg.Interval {
		return nil, timedex.ErrRange
	}

	frontier := []timepath.Path{m.tree.Root(index)}
	for _, level := range m.tree.Levels() {
		fromBound, _, ok := m.tree.Boundaries(from, until, level)
		if !ok {
			// Levels() only yields materialized levels.
			return nil, timedex.InternalError("boundary computed for unmaterialized level")
		}
		var next []timepath.Path
		for _, p := range frontier {
			children, err := m.tree.Children(ctx, p)
			if err != nil {
				return nil, errors.Wrapf(err, "descending to %s level", level)
			}
			for _, child := range children {
				if _, ok := child.Component(level); !ok {
					continue
				}
				start := child.Time()
				end := timepath.PeriodEnd(start, level)
				if end.After(fromBound) && start.Before(until) {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil, nil
		}
		frontier = next
	}

	var (
		out  []Chunk
		seen = make(map[timedex.Ref]bool)
	)
	for _, leaf := range frontier {
		edges, err := m.s.Edges(ctx, leaf.Ref(), timedex.TagChunk)
		if err != nil {
			return nil, errors.Wrap(err, "getting chunk edges")
		}
		for _, e := range edges {
			if seen[e.Target] {
				continue
			}
			seen[e.Target] = true
			var rec chunkRecord
			if err := timedex.GetRecord(ctx, m.s, e.Target, &rec); err != nil {
				return nil, errors.Wrapf(err, "resolving chunk %s", e.Target)
			}
			c := fromRecord(rec)
			if c.Until.After(from) && c.From.Before(until) {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From.Before(out[j].From) })
	return out, nil
}

// Newest finds the most recently committed chunk of the named index
// regardless of the current time window: it descends the tree choosing
// the newest child at every materialized level, then picks the newest
// chunk at that leaf. ok is false only when the index holds no chunks at
// all.
func (m *Manager) Newest(ctx context.Context, index string) (Chunk, bool, error) {
	p := m.tree.Root(index)
	for _, level := range m.tree.Levels() {
		next, err := m.tree.NewestChild(ctx, p, level)
		if errors.Is(err, timedex.ErrNotFound) {
			return Chunk{}, false, nil
		}
		if err != nil {
			return Chunk{}, false, err
		}
		p = next
	}
	return m.newestAt(ctx, p.Ref())
}

// Owning resolves the chunk that owns ts under the named index, creating
// it if it was never committed. With no genesis yet, the owning chunk
// becomes the genesis chunk: its start is ts truncated to an interval
// multiple, fixing the alignment epoch for the whole dataset. After that,
// every owning chunk start is genesis.From plus a whole number of
// intervals, floor-aligned so timestamps before genesis still land on the
// grid.
func (m *Manager) Owning(ctx context.Context, index string, ts time.Time) (Chunk, error) {
	genesis, ok, err := m.Genesis(ctx)
	if err != nil {
		return Chunk{}, err
	}
	if !ok {
		c := Chunk{From: ts.UTC().Truncate(m.cfg.Interval)}
		c.Until = c.From.Add(m.cfg.Interval)
		if err := m.Create(ctx, index, c, true); err != nil {
			return Chunk{}, errors.Wrap(err, "creating genesis chunk")
		}
		return c, nil
	}

	offset := ts.Sub(genesis.From)
	steps := offset / m.cfg.Interval
	if offset < 0 && offset%m.cfg.Interval != 0 {
		steps--
	}
	c := Chunk{From: genesis.From.Add(steps * m.cfg.Interval)}
	c.Until = c.From.Add(m.cfg.Interval)

	// The record may exist globally but not yet be linked under this
	// index; Create is idempotent, so re-running it covers both cases.
	if err := m.Create(ctx, index, c, false); err != nil {
		return Chunk{}, errors.Wrap(err, "creating owning chunk")
	}
	return c, nil
}
