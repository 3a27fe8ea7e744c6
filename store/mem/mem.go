// Package mem implements an in-memory record-and-edge store.
package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store"
)

var _ timedex.Store = &Store{}

// Store is a memory-based implementation of a store,
// suitable for testing and single-process use.
type Store struct {
	mu    sync.Mutex
	blobs map[timedex.Ref]timedex.Blob
	edges map[timedex.Ref][]timedex.Edge
}

// New produces a new Store.
func New() *Store {
	return &Store{
		blobs: make(map[timedex.Ref]timedex.Blob),
		edges: make(map[timedex.Ref][]timedex.Edge),
	}
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(_ context.Context, ref timedex.Ref) (timedex.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.blobs[ref]; ok {
		return b, nil
	}
	return nil, timedex.ErrNotFound
}

// Put adds a blob to the store if it wasn't already present.
func (s *Store) Put(_ context.Context, b timedex.Blob) (timedex.Ref, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added bool
	r := b.Ref()
	if _, ok := s.blobs[r]; !ok {
		s.blobs[r] = b
		added = true
	}
	return r, added, nil
}

// CreateEdge appends an edge. Re-creating an identical edge is a no-op.
func (s *Store) CreateEdge(_ context.Context, e timedex.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Round(0) strips the monotonic reading so identical edges compare equal.
	e.At = e.At.Round(0).UTC()
	for _, have := range s.edges[e.Source] {
		if have == e {
			return nil
		}
	}
	s.edges[e.Source] = append(s.edges[e.Source], e)
	return nil
}

// Edges returns the outgoing edges of source, optionally filtered by tag.
func (s *Store) Edges(_ context.Context, source timedex.Ref, tag string) ([]timedex.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []timedex.Edge
	for _, e := range s.edges[source] {
		if tag == "" || e.Tag == tag {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRefs produces all blob refs in the store, in lexicographic order.
func (s *Store) ListRefs(_ context.Context, start timedex.Ref, f func(timedex.Ref) error) error {
	s.mu.Lock()
	refs := make([]timedex.Ref, 0, len(s.blobs))
	for ref := range s.blobs {
		if start.Less(ref) {
			refs = append(refs, ref)
		}
	}
	s.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	for _, ref := range refs {
		if err := f(ref); err != nil {
			return err
		}
	}
	return nil
}

// ListEdges produces every edge in the store.
func (s *Store) ListEdges(_ context.Context, f func(timedex.Edge) error) error {
	s.mu.Lock()
	var all []timedex.Edge
	for _, es := range s.edges {
		all = append(all, es...)
	}
	s.mu.Unlock()

	for _, e := range all {
		if err := f(e); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	store.Register("mem", func(_ context.Context, _ map[string]interface{}) (timedex.Store, error) {
		return New(), nil
	})
}
