// Package storage provides the persistent key-value store behind the
// dashboard cache, backed by NATS KV in production and an in-memory map in
// tests and offline runs.
package storage

import "context"

// KeyValue is the string-keyed persistence contract the cache layer builds
// on. Get returns ErrNotFound for missing keys.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
