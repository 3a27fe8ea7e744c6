package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/graphtide/timedex"
)

// Sync synchronizes two or more stores. Every blob and every edge present
// in any store ends up in all of them. Blobs and edges are immutable and
// idempotent to re-add, so replication needs no conflict handling: the
// union is the answer.
func Sync(ctx context.Context, stores []timedex.Store) error {
	if len(stores) < 2 {
		return nil
	}

	// Gather each store's ref set concurrently.
	var (
		mu   sync.Mutex
		refs = make([]map[timedex.Ref]bool, len(stores))
	)
	eg, gctx := errgroup.WithContext(ctx)
	for i, s := range stores {
		i, s := i, s
		set := make(map[timedex.Ref]bool)
		eg.Go(func() error {
			err := s.ListRefs(gctx, timedex.Zero, func(r timedex.Ref) error {
				set[r] = true
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "listing refs of store %d", i)
			}
			mu.Lock()
			refs[i] = set
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	union := make(map[timedex.Ref]int) // ref -> index of a store that has it
	for i, set := range refs {
		for r := range set {
			if _, ok := union[r]; !ok {
				union[r] = i
			}
		}
	}

	for r, src := range union {
		var blob timedex.Blob
		for i, dst := range stores {
			if refs[i][r] {
				continue
			}
			if blob == nil {
				var err error
				blob, err = stores[src].Get(ctx, r)
				if err != nil {
					return errors.Wrapf(err, "getting %s from store %d", r, src)
				}
			}
			if _, _, err := dst.Put(ctx, blob); err != nil {
				return errors.Wrapf(err, "putting %s to store %d", r, i)
			}
		}
	}

	// Edges: replay every store's edges into every other store.
	// CreateEdge is an idempotent no-op for duplicates.
	for i, src := range stores {
		err := src.ListEdges(ctx, func(e timedex.Edge) error {
			for j, dst := range stores {
				if j == i {
					continue
				}
				if err := dst.CreateEdge(ctx, e); err != nil {
					return errors.Wrapf(err, "replaying edge into store %d", j)
				}
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "listing edges of store %d", i)
		}
	}
	return nil
}
