package chunk

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/timepath"
)

// Manager creates, validates and finds chunks for one dataset.
type Manager struct {
	s     timedex.Store
	tree  *timepath.Tree
	cfg   timedex.Config
	clock timedex.Clock
}

// NewManager produces a Manager over the given store.
func NewManager(s timedex.Store, tree *timepath.Tree, cfg timedex.Config, clock timedex.Clock) *Manager {
	return &Manager{s: s, tree: tree, cfg: cfg, clock: clock}
}

// Tree returns the time tree the manager addresses chunks through.
func (m *Manager) Tree() *timepath.Tree { return m.tree }

// Validate checks a chunk against the dataset rules. It is a pure replay:
// given the same chunk, the same visible genesis and a clock at or after
// the original author's, every validator reaches the same verdict.
//
// The genesis chunk itself cannot satisfy the alignment rule (there is no
// earlier genesis to align to), so that check alone is skipped for it;
// width and not-in-the-future always apply.
func (m *Manager) Validate(ctx context.Context, c Chunk, isGenesis bool) error {
	if c.Until.Sub(c.From) != m.cfg.Interval {
		return timedex.Validationf("chunk width %s, want interval %s", c.Until.Sub(c.From), m.cfg.Interval)
	}
	if c.From.After(m.clock.Now()) {
		return timedex.Validationf("chunk cannot start in the future")
	}
	if isGenesis {
		return nil
	}
	genesis, ok, err := m.Genesis(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving genesis chunk")
	}
	if !ok {
		return timedex.Validationf("chunk cannot be created until the genesis chunk exists")
	}
	if c.From.Sub(genesis.From)%m.cfg.Interval != 0 {
		return timedex.Validationf("chunk does not follow the interval ordering since genesis")
	}
	return nil
}

// Create validates and commits a chunk: it stores the chunk record,
// ensures the time path for the chunk's start under the named index, and
// links path to chunk. For the genesis chunk it additionally creates the
// genesis anchor and its edge.
//
// Every step is an idempotent put or edge creation (structural edges
// carry no author and the zero timestamp, so retries reproduce identical
// bytes). There is no multi-write primitive: a failure partway leaves
// nothing observable as committed, because a chunk counts as committed
// only once its "chunk" edge exists, and re-running Create completes the
// remaining steps.
func (m *Manager) Create(ctx context.Context, index string, c Chunk, isGenesis bool) error {
	if err := m.Validate(ctx, c, isGenesis); err != nil {
		return err
	}
	if isGenesis {
		if _, ok, err := m.Genesis(ctx); err != nil {
			return errors.Wrap(err, "checking for existing genesis")
		} else if ok {
			return timedex.Validationf("genesis chunk already exists")
		}
	}

	b, err := c.Blob()
	if err != nil {
		return err
	}
	ref, _, err := m.s.Put(ctx, b)
	if err != nil {
		return errors.Wrap(err, "storing chunk")
	}

	leaf, err := m.tree.Ensure(ctx, m.tree.For(index, c.From))
	if err != nil {
		return errors.Wrap(err, "ensuring time path")
	}
	err = m.s.CreateEdge(ctx, timedex.Edge{
		Source: leaf,
		Target: ref,
		Tag:    timedex.TagChunk,
		Kind:   timedex.KindDirect,
	})
	if err != nil {
		return errors.Wrap(err, "linking path to chunk")
	}

	if isGenesis {
		ab, err := timedex.Marshal(genesisAnchor())
		if err != nil {
			return err
		}
		anchorRef, _, err := m.s.Put(ctx, ab)
		if err != nil {
			return errors.Wrap(err, "storing genesis anchor")
		}
		err = m.s.CreateEdge(ctx, timedex.Edge{
			Source: anchorRef,
			Target: ref,
			Tag:    timedex.TagGenesis,
			Kind:   timedex.KindDirect,
		})
		if err != nil {
			return errors.Wrap(err, "linking anchor to genesis chunk")
		}
	}
	return nil
}

// Get fetches the chunk record at ref. ok is false when no such record
// exists, which is a normal outcome, not an error.
func (m *Manager) Get(ctx context.Context, ref timedex.Ref) (Chunk, bool, error) {
	var rec chunkRecord
	err := timedex.GetRecord(ctx, m.s, ref, &rec)
	if errors.Is(err, timedex.ErrNotFound) {
		return Chunk{}, false, nil
	}
	if err != nil {
		return Chunk{}, false, err
	}
	return fromRecord(rec), true, nil
}

// Genesis resolves the well-known anchor and follows its single
// "genesis"-tagged edge to the genesis chunk. ok is false only before any
// chunk has ever been created.
func (m *Manager) Genesis(ctx context.Context) (Chunk, bool, error) {
	edges, err := m.s.Edges(ctx, AnchorRef(), timedex.TagGenesis)
	if err != nil {
		return Chunk{}, false, errors.Wrap(err, "getting genesis edges")
	}
	if len(edges) == 0 {
		return Chunk{}, false, nil
	}
	e, _ := timedex.Newest(edges)
	var rec chunkRecord
	if err := timedex.GetRecord(ctx, m.s, e.Target, &rec); err != nil {
		return Chunk{}, false, errors.Wrap(err, "resolving genesis chunk")
	}
	return fromRecord(rec), true, nil
}

// Previous computes the chunk n intervals before c and looks it up by its
// deterministic content hash; no traversal is needed. ok is false when
// that chunk was never committed.
func (m *Manager) Previous(ctx context.Context, c Chunk, n int) (Chunk, bool, error) {
	back := time.Duration(n) * m.cfg.Interval
	prev := Chunk{From: c.From.Add(-back), Until: c.Until.Add(-back)}
	return m.Get(ctx, prev.Ref())
}

// Latest returns the chunk committed for the current time window of the
// named index: it builds the full current-time path and inspects only
// that leaf, so it may find nothing even when older chunks exist
// elsewhere in the tree. Among several chunks at the leaf it picks the
// one with the greatest start, a choice every reader reproduces from the
// chunk records alone.
func (m *Manager) Latest(ctx context.Context, index string) (Chunk, bool, error) {
	leaf := m.tree.For(index, m.clock.Now())
	return m.newestAt(ctx, leaf.Ref())
}

// newestAt picks the chunk with the greatest From among the "chunk" edges
// of a leaf path node.
func (m *Manager) newestAt(ctx context.Context, leaf timedex.Ref) (Chunk, bool, error) {
	edges, err := m.s.Edges(ctx, leaf, timedex.TagChunk)
	if err != nil {
		return Chunk{}, false, errors.Wrap(err, "getting chunk edges")
	}
	var (
		newest Chunk
		found  bool
		seen   = make(map[timedex.Ref]bool)
	)
	for _, e := range edges {
		if seen[e.Target] {
			continue
		}
		seen[e.Target] = true
		var rec chunkRecord
		if err := timedex.GetRecord(ctx, m.s, e.Target, &rec); err != nil {
			return Chunk{}, false, errors.Wrapf(err, "resolving chunk %s", e.Target)
		}
		c := fromRecord(rec)
		if !found || c.From.After(newest.From) {
			newest, found = c, true
		}
	}
	return newest, found, nil
}
