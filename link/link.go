// Package link attaches targets to chunks without letting any single
// author create unbounded direct fan-out.
//
// An author's first attachments on a chunk are direct edges off the chunk
// itself, up to the configured direct limit. Past that, attachments chain
// through overflow edges: each new target hangs off the previous one, so
// the chunk's own edge set stays bounded while readers can still
// reconstruct every attachment from public data. A total spam limit caps
// the chain. No counter or lock is shared between authors; each author's
// counts are recomputed from the edge set at attachment time.
package link

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
)

// Attacher adds and collects links under chunks.
type Attacher struct {
	s     timedex.Store
	cfg   timedex.Config
	clock timedex.Clock
}

// NewAttacher produces an Attacher over the given store.
func NewAttacher(s timedex.Store, cfg timedex.Config, clock timedex.Clock) *Attacher {
	return &Attacher{s: s, cfg: cfg, clock: clock}
}

func reserved(tag string) bool {
	switch tag {
	case timedex.TagPath, timedex.TagChunk, timedex.TagGenesis:
		return true
	}
	return false
}

// Add attaches target under the chunk at chunkRef, tagged tag, on behalf
// of author. While the author's direct edge count is under the direct
// limit the edge goes straight on the chunk; afterwards it is appended to
// the author's overflow chain. Once the author's total (direct plus
// chain) reaches the spam limit the attachment is rejected with a
// ValidationError.
func (a *Attacher) Add(ctx context.Context, chunkRef, target timedex.Ref, tag, author string) error {
	if reserved(tag) {
		return timedex.Validationf("tag %q is reserved", tag)
	}
	if author == "" {
		return timedex.Validationf("attachment requires an author")
	}

	direct, err := a.directEdges(ctx, chunkRef, author)
	if err != nil {
		return err
	}
	if len(direct) < a.cfg.DirectLimit {
		return errors.Wrap(a.s.CreateEdge(ctx, timedex.Edge{
			Source: chunkRef,
			Target: target,
			Tag:    tag,
			Author: author,
			Kind:   timedex.KindDirect,
			At:     a.clock.Now(),
		}), "creating direct link")
	}

	head, _ := timedex.Newest(direct)
	tail, chainLen, err := a.chainTail(ctx, head.Target, author)
	if err != nil {
		return err
	}
	if len(direct)+chainLen >= a.cfg.SpamLimit {
		return timedex.Validationf("author %q reached the spam limit of %d links on this chunk", author, a.cfg.SpamLimit)
	}
	return errors.Wrap(a.s.CreateEdge(ctx, timedex.Edge{
		Source: tail,
		Target: target,
		Tag:    tag,
		Author: author,
		Kind:   timedex.KindChain,
		At:     a.clock.Now(),
	}), "creating chain link")
}

// directEdges returns the author's direct attachment edges on the chunk,
// in canonical order.
func (a *Attacher) directEdges(ctx context.Context, chunkRef timedex.Ref, author string) ([]timedex.Edge, error) {
	edges, err := a.s.Edges(ctx, chunkRef, "")
	if err != nil {
		return nil, errors.Wrap(err, "getting chunk links")
	}
	var out []timedex.Edge
	for _, e := range edges {
		if e.Author == author && e.Kind == timedex.KindDirect && !reserved(e.Tag) {
			out = append(out, e)
		}
	}
	timedex.SortEdges(out)
	return out, nil
}

// chainTail walks the author's overflow chain from head and returns the
// current tail node and the number of chain links traversed. The chain
// head is the target of the author's canonically last direct edge; each
// step follows the author's single outgoing chain edge, taking the
// canonically greatest one if a self-concurrency race produced more. Any
// two validators reading the same edge set select the same tail.
func (a *Attacher) chainTail(ctx context.Context, head timedex.Ref, author string) (timedex.Ref, int, error) {
	var (
		cur     = head
		n       int
		visited = map[timedex.Ref]bool{head: true}
	)
	for {
		next, ok, err := a.chainStep(ctx, cur, author)
		if err != nil {
			return timedex.Zero, 0, err
		}
		if !ok {
			return cur, n, nil
		}
		if visited[next] {
			return timedex.Zero, 0, timedex.InternalError("overflow chain contains a cycle")
		}
		visited[next] = true
		cur = next
		n++
		if n > a.cfg.SpamLimit {
			return timedex.Zero, 0, timedex.InternalError("overflow chain longer than the spam limit")
		}
	}
}

// chainStep resolves the author's next hop from cur, if any.
func (a *Attacher) chainStep(ctx context.Context, cur timedex.Ref, author string) (timedex.Ref, bool, error) {
	edges, err := a.s.Edges(ctx, cur, "")
	if err != nil {
		return timedex.Zero, false, errors.Wrap(err, "getting chain links")
	}
	var hops []timedex.Edge
	for _, e := range edges {
		if e.Author == author && e.Kind == timedex.KindChain {
			hops = append(hops, e)
		}
	}
	e, ok := timedex.Newest(hops)
	return e.Target, ok, nil
}

// Collect fetches every target attached under the chunk: all direct
// edges, then each author's overflow chain walked sequentially. The
// result is a deduplicated, order-preserving union (direct targets in
// canonical edge order, then chain targets per author). A non-empty tag
// restricts results to that tag; a positive limit truncates them.
func (a *Attacher) Collect(ctx context.Context, chunkRef timedex.Ref, tag string, limit int) ([]timedex.Ref, error) {
	edges, err := a.s.Edges(ctx, chunkRef, "")
	if err != nil {
		return nil, errors.Wrap(err, "getting chunk links")
	}
	var direct []timedex.Edge
	byAuthor := make(map[string][]timedex.Edge)
	for _, e := range edges {
		if e.Kind != timedex.KindDirect || reserved(e.Tag) {
			continue
		}
		direct = append(direct, e)
		byAuthor[e.Author] = append(byAuthor[e.Author], e)
	}
	timedex.SortEdges(direct)

	var (
		out  []timedex.Ref
		seen = make(map[timedex.Ref]bool)
	)
	add := func(r timedex.Ref) bool {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
		return limit > 0 && len(out) >= limit
	}

	for _, e := range direct {
		if tag != "" && e.Tag != tag {
			continue
		}
		if add(e.Target) {
			return out, nil
		}
	}

	// Only authors who exhausted their direct budget can have chains.
	authors := make([]string, 0, len(byAuthor))
	for author, own := range byAuthor {
		if len(own) >= a.cfg.DirectLimit {
			authors = append(authors, author)
		}
	}
	sort.Strings(authors)

	for _, author := range authors {
		own := byAuthor[author]
		timedex.SortEdges(own)
		cur := own[len(own)-1].Target
		visited := map[timedex.Ref]bool{cur: true}
		for steps := 0; steps <= a.cfg.SpamLimit; steps++ {
			hops, err := a.s.Edges(ctx, cur, "")
			if err != nil {
				return nil, errors.Wrap(err, "getting chain links")
			}
			var chain []timedex.Edge
			for _, e := range hops {
				if e.Author == author && e.Kind == timedex.KindChain {
					chain = append(chain, e)
				}
			}
			e, ok := timedex.Newest(chain)
			if !ok {
				break
			}
			if visited[e.Target] {
				return nil, timedex.InternalError("overflow chain contains a cycle")
			}
			visited[e.Target] = true
			if tag == "" || e.Tag == tag {
				if add(e.Target) {
					return out, nil
				}
			}
			cur = e.Target
		}
	}
	return out, nil
}
