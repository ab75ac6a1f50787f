// Package cache provides the per-subject dashboard cache: a thin TTL layer
// over a storage.KeyValue. Cache failures never propagate; reads degrade to a
// miss and writes to a logged no-op, so the sync flow falls back to fetching
// fresh data instead of crashing.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brightpath/dashsync/model"
	"github.com/brightpath/dashsync/storage"
)

// entry is the persisted envelope for one cached payload.
type entry struct {
	Payload   json.RawMessage `json:"payload"`
	WrittenAt time.Time       `json:"written_at"`
}

// Store caches dashboard payloads for a single subject.
type Store struct {
	kv        storage.KeyValue
	subjectID string
	logger    *slog.Logger
	now       func() time.Time
	overrides map[model.EntityType]time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock sets the time source, used by tests to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithTTLOverrides replaces the default TTL for the listed entity types.
func WithTTLOverrides(overrides map[model.EntityType]time.Duration) Option {
	return func(s *Store) {
		s.overrides = overrides
	}
}

// New creates a cache store for one subject over the given key-value store.
func New(kv storage.KeyValue, subjectID string, opts ...Option) *Store {
	s := &Store{
		kv:        kv,
		subjectID: subjectID,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the namespaced storage key for an entity type.
func (s *Store) Key(t model.EntityType) string {
	return fmt.Sprintf("dashboard.%s.%s", s.subjectID, t)
}

// ttl returns the effective time-to-live for an entity type.
func (s *Store) ttl(t model.EntityType) time.Duration {
	if d, ok := s.overrides[t]; ok {
		return d
	}
	return model.TTL(t)
}

// Get returns the cached payload for an entity type, or nil on a miss. An
// expired or undecodable entry counts as a miss and is evicted as a side
// effect, so a repeated Get stays a miss.
func (s *Store) Get(ctx context.Context, t model.EntityType) model.Payload {
	key := s.Key(t)

	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if err != storage.ErrNotFound {
			s.logger.Warn("Cache read failed, treating as miss",
				"key", key,
				"error", err)
		}
		return nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Warn("Corrupt cache entry, evicting",
			"key", key,
			"error", err)
		s.evict(ctx, key)
		return nil
	}

	if s.now().Sub(e.WrittenAt) > s.ttl(t) {
		s.evict(ctx, key)
		return nil
	}

	payload, err := model.DecodePayload(t, e.Payload)
	if err != nil {
		s.logger.Warn("Undecodable cache payload, evicting",
			"key", key,
			"error", err)
		s.evict(ctx, key)
		return nil
	}
	return payload
}

// Set writes a payload with the current timestamp. Failures are logged and
// dropped.
func (s *Store) Set(ctx context.Context, t model.EntityType, payload model.Payload) {
	key := s.Key(t)

	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("Cache write failed to encode payload",
			"key", key,
			"error", err)
		return
	}

	data, err := json.Marshal(entry{Payload: raw, WrittenAt: s.now()})
	if err != nil {
		s.logger.Warn("Cache write failed to encode entry",
			"key", key,
			"error", err)
		return
	}

	if err := s.kv.Put(ctx, key, data); err != nil {
		s.logger.Warn("Cache write failed, dropping",
			"key", key,
			"error", err)
	}
}

func (s *Store) evict(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Warn("Cache eviction failed",
			"key", key,
			"error", err)
	}
}
