// Package index is the public face of the time-chunked link index: it
// resolves the chunk owning a payload's timestamp, attaches the payload
// there, and answers time-window queries with chunks plus their links.
package index

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/chunk"
	"github.com/graphtide/timedex/link"
	"github.com/graphtide/timedex/timepath"
)

// Entry is the capability a payload type needs to be time-indexed:
// a timestamp to index under and a content address to link to. The index
// has no other relationship to the payload.
type Entry interface {
	Time() time.Time
	Ref() timedex.Ref
}

// ChunkLinks pairs a chunk with the link targets collected from it.
type ChunkLinks struct {
	Chunk chunk.Chunk
	Links []timedex.Ref
}

// Index is a named time index over one dataset.
type Index struct {
	name   string
	chunks *chunk.Manager
	links  *link.Attacher
}

// New produces an Index. The Config must be the one fixed at dataset
// genesis: validation replays under the parameters in force when each
// record was created.
func New(name string, s timedex.Store, cfg timedex.Config, clock timedex.Clock) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tree := timepath.New(s, cfg.Interval)
	return &Index{
		name:   name,
		chunks: chunk.NewManager(s, tree, cfg, clock),
		links:  link.NewAttacher(s, cfg, clock),
	}, nil
}

// Name returns the index name.
func (ix *Index) Name() string { return ix.name }

// Chunks exposes the chunk manager, for callers that work with chunks
// directly (validation replay, manual chunk creation).
func (ix *Index) Chunks() *chunk.Manager { return ix.chunks }

// Links exposes the link attacher.
func (ix *Index) Links() *link.Attacher { return ix.links }

// Add indexes an entry: it resolves or creates the chunk owning the
// entry's timestamp, then attaches the entry's ref under tag on behalf of
// author. Indexing the very first entry of a dataset bootstraps the
// genesis chunk.
func (ix *Index) Add(ctx context.Context, e Entry, tag, author string) error {
	c, err := ix.chunks.Owning(ctx, ix.name, e.Time())
	if err != nil {
		return err
	}
	return ix.links.Add(ctx, c.Ref(), e.Ref(), tag, author)
}

// Current returns the chunk serving the current time window plus its
// links. ok is false when the window has no committed chunk; that is a
// normal outcome, not an error.
func (ix *Index) Current(ctx context.Context, tag string, limit int) (ChunkLinks, bool, error) {
	c, ok, err := ix.chunks.Latest(ctx, ix.name)
	if err != nil || !ok {
		return ChunkLinks{}, false, err
	}
	return ix.withLinks(ctx, c, tag, limit)
}

// MostRecent returns the most recently committed chunk regardless of the
// current time window, plus its links. ok is false only when no chunk has
// ever been committed for this index.
func (ix *Index) MostRecent(ctx context.Context, tag string, limit int) (ChunkLinks, bool, error) {
	c, ok, err := ix.chunks.Newest(ctx, ix.name)
	if err != nil || !ok {
		return ChunkLinks{}, false, err
	}
	return ix.withLinks(ctx, c, tag, limit)
}

func (ix *Index) withLinks(ctx context.Context, c chunk.Chunk, tag string, limit int) (ChunkLinks, bool, error) {
	links, err := ix.links.Collect(ctx, c.Ref(), tag, limit)
	if err != nil {
		return ChunkLinks{}, false, errors.Wrapf(err, "collecting links of chunk %s", c.Ref())
	}
	return ChunkLinks{Chunk: c, Links: links}, true, nil
}

// Between returns every chunk intersecting [from, until) with its links,
// ordered by chunk start. Windows narrower than one chunk interval are
// rejected with timedex.ErrRange. Link collection fans out across chunks;
// limit bounds the links collected per chunk.
func (ix *Index) Between(ctx context.Context, from, until time.Time, tag string, limit int) ([]ChunkLinks, error) {
	chunks, err := ix.chunks.Span(ctx, ix.name, from, until)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	out := make([]ChunkLinks, len(chunks))
	eg, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		eg.Go(func() error {
			links, err := ix.links.Collect(gctx, c.Ref(), tag, limit)
			if err != nil {
				return errors.Wrapf(err, "collecting links of chunk %s", c.Ref())
			}
			out[i] = ChunkLinks{Chunk: c, Links: links}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
