package dashboard

import (
	"context"

	"github.com/google/uuid"
)

// session is one orchestration cycle. At most one session is current at a
// time: starting a new one supersedes the previous, cancelling its context so
// in-flight fetches abort at the transport, and the generation guard discards
// any result that still arrives afterwards.
type session struct {
	token   string
	gen     uint64
	refresh bool
	ctx     context.Context
	cancel  context.CancelFunc

	// current reads the store's active generation; the store compares it
	// against gen again under its own lock on every cycle write.
	current func() uint64
}

// newSession wraps an already-claimed generation; the caller supersedes the
// previous session by advancing the store's generation first.
func newSession(parent context.Context, gen uint64, current func() uint64, refresh bool) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		token:   uuid.New().String(),
		gen:     gen,
		refresh: refresh,
		ctx:     ctx,
		cancel:  cancel,
		current: current,
	}
}

// isCurrent reports whether this session is still the active one. It is a
// fast-path check to skip work; the store's generation-gated writes are what
// guarantee stale results never land.
func (s *session) isCurrent() bool {
	return s.current() == s.gen
}
