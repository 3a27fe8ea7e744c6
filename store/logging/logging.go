// Package logging implements a store that delegates everything to a nested store,
// logging operations as they happen.
package logging

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store"
)

var _ timedex.Store = &Store{}

type Store struct {
	s timedex.Store
}

func New(s timedex.Store) *Store {
	return &Store{s: s}
}

func (s *Store) Get(ctx context.Context, ref timedex.Ref) (timedex.Blob, error) {
	b, err := s.s.Get(ctx, ref)
	if err != nil {
		log.Printf("ERROR Get %s: %s", ref, err)
	} else {
		log.Printf("Get %s", ref)
	}
	return b, err
}

func (s *Store) Put(ctx context.Context, b timedex.Blob) (timedex.Ref, bool, error) {
	ref, added, err := s.s.Put(ctx, b)
	if err != nil {
		log.Printf("ERROR in Put: %s", err)
	} else {
		log.Printf("Put %s, added=%v", ref, added)
	}
	return ref, added, err
}

func (s *Store) CreateEdge(ctx context.Context, e timedex.Edge) error {
	err := s.s.CreateEdge(ctx, e)
	if err != nil {
		log.Printf("ERROR in CreateEdge %s -> %s [%s]: %s", e.Source, e.Target, e.Tag, err)
	} else {
		log.Printf("CreateEdge %s -> %s [%s] author=%q kind=%s", e.Source, e.Target, e.Tag, e.Author, e.Kind)
	}
	return err
}

func (s *Store) Edges(ctx context.Context, source timedex.Ref, tag string) ([]timedex.Edge, error) {
	edges, err := s.s.Edges(ctx, source, tag)
	if err != nil {
		log.Printf("ERROR in Edges %s [%s]: %s", source, tag, err)
	} else {
		log.Printf("Edges %s [%s]: %d", source, tag, len(edges))
	}
	return edges, err
}

func (s *Store) ListRefs(ctx context.Context, start timedex.Ref, f func(timedex.Ref) error) error {
	log.Printf("ListRefs, start=%s", start)
	return s.s.ListRefs(ctx, start, func(ref timedex.Ref) error {
		err := f(ref)
		if err != nil {
			log.Printf("  ERROR in ListRefs: %s: %s", ref, err)
		} else {
			log.Printf("  ListRefs: %s", ref)
		}
		return err
	})
}

func (s *Store) ListEdges(ctx context.Context, f func(timedex.Edge) error) error {
	log.Print("ListEdges")
	return s.s.ListEdges(ctx, f)
}

func init() {
	store.Register("logging", func(ctx context.Context, conf map[string]interface{}) (timedex.Store, error) {
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
		return New(ns), nil
	})
}
