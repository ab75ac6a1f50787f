// Package dashboard implements the dashboard synchronization engine: one
// active fetch session at a time, cache hydration, concurrently issued but
// priority-ordered merges, bounded retry, and a subscribable snapshot store.
package dashboard

import (
	"sync"
	"time"

	"github.com/brightpath/dashsync/model"
)

// View is the read model handed to subscribers: the merged snapshot plus the
// engine's status flags. It never carries a raw exception from the fetch
// path; failures surface only through Err.
type View struct {
	Snapshot      model.Snapshot
	Loading       bool
	Refreshing    bool
	Err           error
	LastFetchTime time.Time
	RetryCount    int
}

// Store holds the current View and fans updates out to subscribers. All
// mutations come from the owning Service's single active session or from
// optimistic updates; subscribers only read.
type Store struct {
	mu      sync.RWMutex
	view    View
	gen     uint64
	subs    map[int]chan View
	nextSub int
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan View)}
}

// View returns a copy of the current view.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

// Subscribe registers a buffered update channel. When a subscriber falls
// behind, the oldest buffered view is dropped so the channel always ends on
// the newest state. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan View, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan View, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// generation returns the active session generation.
func (s *Store) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// nextGeneration supersedes the active generation and returns the new one.
// Cycle writes carrying an older generation are dropped.
func (s *Store) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Store) cloneLocked() View {
	v := s.view
	v.Snapshot = s.view.Snapshot.Clone()
	return v
}

// publishLocked sends the current view to every subscriber, dropping the
// oldest buffered view for slow consumers.
func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		v := s.cloneLocked()
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// beginCycle marks a new fetch cycle as in flight and clears the prior error.
func (s *Store) beginCycle(refresh bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if refresh {
		s.view.Refreshing = true
	} else {
		s.view.Loading = true
	}
	s.view.Err = nil
	s.publishLocked()
}

// merge applies a payload and publishes the updated view. The stale-session
// check and the write share one critical section, so a superseded session
// can never land data in a newer snapshot, even when the supersession races
// the merge.
func (s *Store) merge(p model.Payload, sessionKey string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.view.Snapshot.Apply(p)
	s.view.Snapshot.SessionKey = sessionKey
	s.publishLocked()
}

// applyLocal applies an optimistic update. Unlike merge it leaves the
// session key alone: no fetch cycle produced this value.
func (s *Store) applyLocal(p model.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Snapshot.Apply(p)
	s.publishLocked()
}

// completeCycle records a finished cycle: flags cleared, retry counter reset.
// Superseded generations are dropped.
func (s *Store) completeCycle(now time.Time, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.view.Snapshot.LastUpdated = now
	s.view.LastFetchTime = now
	s.view.Loading = false
	s.view.Refreshing = false
	s.view.RetryCount = 0
	s.publishLocked()
}

// fail surfaces a cycle failure with the current retry attempt count.
// Superseded generations are dropped.
func (s *Store) fail(err error, retryCount int, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.view.Err = err
	s.view.Loading = false
	s.view.Refreshing = false
	s.view.RetryCount = retryCount
	s.publishLocked()
}

// setRetryCount updates the surfaced retry counter.
func (s *Store) setRetryCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.RetryCount = n
	s.publishLocked()
}

// reset discards the snapshot, used when the subject changes. The generation
// bump makes any in-flight cycle stale before the new state is visible.
func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.view = View{}
	s.publishLocked()
}
