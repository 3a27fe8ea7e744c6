package timedex

import (
	"sort"
	"time"
)

// Kind distinguishes the two edge variants: an edge either hangs directly
// off its source record, or extends an author's overflow chain.
type Kind string

const (
	// KindDirect is an ordinary edge from a record to a target.
	KindDirect Kind = "direct"

	// KindChain is a link in an author's overflow chain: its source is
	// the previous chain position, not the chunk.
	KindChain Kind = "chain"
)

// Reserved tags used by the index structure itself.
// Attachment edges made on behalf of callers must not use these.
const (
	// TagPath links a time-path node to a child node one level deeper.
	TagPath = "path"

	// TagChunk links a leaf time-path node to a chunk in its period.
	TagChunk = "chunk"

	// TagGenesis links the genesis anchor to the genesis chunk.
	TagGenesis = "genesis"
)

// Edge is an immutable, append-only edge in the graph store.
type Edge struct {
	Source Ref
	Target Ref
	Tag    string
	Author string
	Kind   Kind
	At     time.Time
}

// Before defines the canonical edge order: by timestamp, ties broken by
// target ref. Every validator ordering the same edge set gets the same
// sequence regardless of the order a store returned it in.
func (e Edge) Before(other Edge) bool {
	if !e.At.Equal(other.At) {
		return e.At.Before(other.At)
	}
	return e.Target.Less(other.Target)
}

// SortEdges sorts edges into canonical order (see Edge.Before).
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Before(edges[j])
	})
}

// Newest returns the canonically greatest edge in the slice,
// and false if the slice is empty.
func Newest(edges []Edge) (Edge, bool) {
	if len(edges) == 0 {
		return Edge{}, false
	}
	newest := edges[0]
	for _, e := range edges[1:] {
		if newest.Before(e) {
			newest = e
		}
	}
	return newest, true
}
