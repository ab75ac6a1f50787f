package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Bucket holding all cached dashboard payloads.
const CacheBucket = "DASHSYNC_CACHE"

// NATSKV is a KeyValue backed by a NATS JetStream KV bucket.
type NATSKV struct {
	nc *nats.Conn
	kv jetstream.KeyValue

	// ownsConn marks connections dialed by OpenNATSKV, closed on Close.
	ownsConn bool
}

// NewNATSKV wraps an existing JetStream context. The bucket is created if it
// doesn't exist.
func NewNATSKV(ctx context.Context, js jetstream.JetStream) (*NATSKV, error) {
	kv, err := getOrCreateBucket(ctx, js, CacheBucket)
	if err != nil {
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}
	return &NATSKV{kv: kv}, nil
}

// OpenNATSKV dials a NATS server and wraps its KV bucket. Close releases the
// connection.
func OpenNATSKV(ctx context.Context, url string) (*NATSKV, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	store, err := NewNATSKV(ctx, js)
	if err != nil {
		nc.Close()
		return nil, err
	}
	store.nc = nc
	store.ownsConn = true
	return store, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Dashsync cached dashboard payloads",
		History:     1,
	})
}

// Get implements KeyValue.
func (s *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// Put implements KeyValue.
func (s *NATSKV) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete implements KeyValue. Deleting a missing key is not an error.
func (s *NATSKV) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close implements KeyValue.
func (s *NATSKV) Close() error {
	if s.ownsConn && s.nc != nil {
		s.nc.Close()
	}
	return nil
}

// isNotFound matches the JetStream KV not-found error.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
