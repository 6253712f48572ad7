// Package kv stores the client's cached entries (session marker, user,
// settings) as opaque values under string keys.
package kv

import "context"

// Repository reads and writes single entries. Get returns (nil, nil) when
// key is absent; deleting an absent key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
