// Package metrics implements a store that delegates everything to a
// nested store, counting operations and errors with Prometheus metrics.
package metrics

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/graphtide/timedex"
	"github.com/graphtide/timedex/store"
)

var _ timedex.Store = &Store{}

var (
	ops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timedex_store_ops_total",
		Help: "Store operations by method.",
	}, []string{"method"})

	opErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timedex_store_op_errors_total",
		Help: "Failed store operations by method.",
	}, []string{"method"})

	blobsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timedex_store_blobs_added_total",
		Help: "Blobs added by Put (excluding already-present no-ops).",
	})
)

type Store struct {
	s timedex.Store
}

func New(s timedex.Store) *Store {
	return &Store{s: s}
}

func count(method string, err error) {
	ops.WithLabelValues(method).Inc()
	if err != nil {
		opErrors.WithLabelValues(method).Inc()
	}
}

func (s *Store) Get(ctx context.Context, ref timedex.Ref) (timedex.Blob, error) {
	b, err := s.s.Get(ctx, ref)
	count("get", err)
	return b, err
}

func (s *Store) Put(ctx context.Context, b timedex.Blob) (timedex.Ref, bool, error) {
	ref, added, err := s.s.Put(ctx, b)
	count("put", err)
	if added {
		blobsAdded.Inc()
	}
	return ref, added, err
}

func (s *Store) CreateEdge(ctx context.Context, e timedex.Edge) error {
	err := s.s.CreateEdge(ctx, e)
	count("create_edge", err)
	return err
}

func (s *Store) Edges(ctx context.Context, source timedex.Ref, tag string) ([]timedex.Edge, error) {
	edges, err := s.s.Edges(ctx, source, tag)
	count("edges", err)
	return edges, err
}

func (s *Store) ListRefs(ctx context.Context, start timedex.Ref, f func(timedex.Ref) error) error {
	err := s.s.ListRefs(ctx, start, f)
	count("list_refs", err)
	return err
}

func (s *Store) ListEdges(ctx context.Context, f func(timedex.Edge) error) error {
	err := s.s.ListEdges(ctx, f)
	count("list_edges", err)
	return err
}

func init() {
	store.Register("metrics", func(ctx context.Context, conf map[string]interface{}) (timedex.Store, error) {
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
