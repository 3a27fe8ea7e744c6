package timedex

import (
	"context"
	"errors"
)

// Getter is a read-only Store (qv).
type Getter interface {
	// Get gets a blob by its ref.
	Get(context.Context, Ref) (Blob, error)

	// Edges returns the outgoing edges of the given source ref.
	// A non-empty tag restricts the result to edges carrying that tag.
	// A source with no matching edges yields an empty slice, not an error.
	// No result order is guaranteed; callers that care sort by (At, Target).
	Edges(ctx context.Context, source Ref, tag string) ([]Edge, error)

	// ListRefs calls a function for each blob ref in the store in
	// lexicographic order, beginning with the first ref _after_ the
	// specified one.
	//
	// The calls reflect at least the set of refs known at the moment
	// ListRefs was called. It is unspecified whether later changes,
	// that happen concurrently with ListRefs, are reflected.
	//
	// If the callback function returns an error,
	// ListRefs exits with that error.
	ListRefs(context.Context, Ref, func(Ref) error) error
}

// Store is a content-addressed record-and-edge store.
// Records are byte sequences - "blobs" - retrieved by their ref,
// the SHA2-256 hash of the content. Edges are append-only: there is no
// update or delete, and re-creating an identical edge is a no-op.
type Store interface {
	Getter

	// Put adds b to the store if it was not already present.
	// It returns b's ref and a boolean that is true iff the blob had to be added.
	Put(ctx context.Context, b Blob) (ref Ref, added bool, err error)

	// CreateEdge appends an edge. Creating an edge identical in all
	// fields to an existing one is an idempotent no-op.
	CreateEdge(context.Context, Edge) error

	// ListEdges calls a function for every edge in the store.
	// Order is unspecified.
	ListEdges(context.Context, func(Edge) error) error
}

// ErrNotFound is the error returned
// when a Getter tries to access a non-existent ref.
var ErrNotFound = errors.New("not found")
