// Package lru implements a read-through cache in front of another store.
// Blobs are immutable and content-addressed, so caching them is always
// safe; edge sets grow over time and are never cached.
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store"
)

var _ timedex.Store = &Store{}

type Store struct {
	c *lru.Cache // Ref->Blob
	s timedex.Store
}

func New(s timedex.Store, size int) (*Store, error) {
	c, err := lru.New(size)
	return &Store{s: s, c: c}, err
}

func (s *Store) Get(ctx context.Context, ref timedex.Ref) (timedex.Blob, error) {
	if got, ok := s.c.Get(ref); ok {
		return got.(timedex.Blob), nil
	}
	got, err := s.s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.c.Add(ref, got)
	return got, nil
}

func (s *Store) Put(ctx context.Context, b timedex.Blob) (timedex.Ref, bool, error) {
	ref, added, err := s.s.Put(ctx, b)
	if err != nil {
		return ref, added, err
	}
	s.c.Add(ref, b)
	return ref, added, nil
}

func (s *Store) CreateEdge(ctx context.Context, e timedex.Edge) error {
	return s.s.CreateEdge(ctx, e)
}

func (s *Store) Edges(ctx context.Context, source timedex.Ref, tag string) ([]timedex.Edge, error) {
	return s.s.Edges(ctx, source, tag)
}

func (s *Store) ListRefs(ctx context.Context, start timedex.Ref, f func(timedex.Ref) error) error {
	return s.s.ListRefs(ctx, start, f)
}

func (s *Store) ListEdges(ctx context.Context, f func(timedex.Edge) error) error {
	return s.s.ListEdges(ctx, f)
}

func init() {
	store.Register("lru", func(ctx context.Context, conf map[string]interface{}) (timedex.Store, error) {
		size, ok := conf["size"].(float64)
		if !ok {
			return nil, errors.New(`missing "size" parameter`)
		}
		nested, ok := conf["nested"].(map[string]interface{})
		if !ok {
			return nil, errors.New(`missing "nested" parameter`)
		}
		ntype, ok := nested["type"].(string)
		if !ok {
			return nil, errors.New(`nested config missing "type" parameter`)
		}
		ns, err := store.Create(ctx, ntype, nested)
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		return New(ns, int(size))
	})
}
