// Package fetch defines the remote entity fetcher contract and its HTTP
// implementation. Fetchers are opaque to the orchestrator: each either
// resolves with a typed payload or fails with an error. Retry policy lives in
// the dashboard layer, not here.
package fetch

import (
	"context"
	"fmt"

	"github.com/brightpath/dashsync/model"
)

// Fetcher retrieves one entity type for a subject.
type Fetcher interface {
	// EntityType identifies which dashboard entity this fetcher serves.
	EntityType() model.EntityType

	// Fetch retrieves the current payload for a subject. It must honor ctx
	// cancellation: a superseded fetch session cancels its context.
	Fetch(ctx context.Context, subjectID string) (model.Payload, error)
}

// Set maps each entity type to its fetcher.
type Set map[model.EntityType]Fetcher

// NewSet builds a Set, requiring exactly one fetcher per entity type.
func NewSet(fetchers ...Fetcher) (Set, error) {
	set := make(Set, len(fetchers))
	for _, f := range fetchers {
		t := f.EntityType()
		if !t.Valid() {
			return nil, fmt.Errorf("fetcher has unknown entity type: %s", t)
		}
		if _, dup := set[t]; dup {
			return nil, fmt.Errorf("duplicate fetcher for entity type: %s", t)
		}
		set[t] = f
	}
	for _, t := range model.EntityTypes() {
		if _, ok := set[t]; !ok {
			return nil, fmt.Errorf("missing fetcher for entity type: %s", t)
		}
	}
	return set, nil
}

// Func adapts a function into a Fetcher. Used by tests and side-channel
// integrations.
type Func struct {
	Entity model.EntityType
	Fn     func(ctx context.Context, subjectID string) (model.Payload, error)
}

// EntityType implements Fetcher.
func (f Func) EntityType() model.EntityType { return f.Entity }

// Fetch implements Fetcher.
func (f Func) Fetch(ctx context.Context, subjectID string) (model.Payload, error) {
	return f.Fn(ctx, subjectID)
}

// Error describes a failed remote fetch.
type Error struct {
	Entity model.EntityType
	Status int // HTTP status, 0 for transport errors
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Entity, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Entity, e.Err)
}

// Unwrap supports errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }
