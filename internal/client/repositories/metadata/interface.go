// Package metadata is the local key/value repository backing the session
// store. Values are opaque sealed blobs.
package metadata

import (
	"context"
)

type Repository interface {
	// Lookup returns the values stored under keys. Missing keys are absent
	// from the result.
	Lookup(ctx context.Context, keys ...string) (map[string][]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
