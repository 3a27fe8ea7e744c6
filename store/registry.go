// Package store holds the backend registry and cross-store helpers.
// Backends register themselves from their init functions; importing a
// backend package for side effects makes it creatable by name from a
// decoded config map.
package store

import (
	"context"
	"fmt"

	"github.com/graphtide/timedex"
)

type Factory func(context.Context, map[string]interface{}) (timedex.Store, error)

var registry = make(map[string]Factory)

func Register(key string, f Factory) {
	registry[key] = f
}

func Create(ctx context.Context, key string, conf map[string]interface{}) (timedex.Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}
