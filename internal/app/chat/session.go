/*
Package chat contains the live-delivery core.

This file defines the Session, the process-local state of one connection, and the
Registry that owns every session and its room subscriptions.
Lock order is Session.mu, then a Router shard.
*/
package chat

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"chatcore/internal/app/user"
	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/logx"
	"chatcore/internal/pkg/randx"
)

// DefaultQueueSize is the outbound queue capacity used when none is configured.
const DefaultQueueSize = 256

// Session is one live connection. Its outbound queue is never closed; Done
// is closed instead once the session is torn down or found too slow.
type Session struct {
	id string

	// outbound queue drained by the write pump.
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	// slow is set when the outbound queue overflowed.
	slow atomic.Bool

	// evict is called once when the session turns out to be a slow consumer.
	evict func()

	mu        sync.Mutex
	principal *user.Principal
	rooms     map[string]struct{}
	closed    bool

	logger zerolog.Logger
}

func newSession(parent context.Context, id string, queueSize int) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		id:     id,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		rooms:  make(map[string]struct{}),
		logger: logx.Logger().With().Str("session_id", id).Logger(),
	}
}

// SessionID implements Subscriber.
func (s *Session) SessionID() string { return s.id }

// Deliver implements Subscriber. A full queue marks the session slow and closes it.
func (s *Session) Deliver(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- data:
		return true
	default:
		if s.slow.CompareAndSwap(false, true) {
			s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, closing slow consumer.")
			s.close()
			if s.evict != nil {
				go s.evict()
			}
		}
		return false
	}
}

// Send returns the outbound queue.
func (s *Session) Send() <-chan []byte { return s.send }

// Done is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Context is cancelled when the session is torn down.
func (s *Session) Context() context.Context { return s.ctx }

// Slow reports whether the session was closed for overflowing its queue.
func (s *Session) Slow() bool { return s.slow.Load() }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *zerolog.Logger { return &s.logger }

// Principal returns the identity bound to the session, if any.
func (s *Session) Principal() (user.Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.principal == nil {
		return user.Principal{}, false
	}
	return *s.principal, true
}

// Rooms returns the joined room ids, sorted.
func (s *Session) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.rooms))
}

// Joined reports whether the session is subscribed to roomID.
func (s *Session) Joined(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
	})
}

// Registry is the presence/session registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	router    *Router
	queueSize int

	// structured logger with Registry context.
	logger zerolog.Logger
}

// NewRegistry constructs a Registry whose subscriptions live in router.
func NewRegistry(router *Router, queueSize int) *Registry {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		router:    router,
		queueSize: queueSize,
		logger:    logx.Component("Registry"),
	}
}

// Connect allocates a session for a new connection. The session context derives from parent.
func (r *Registry) Connect(parent context.Context) (*Session, error) {
	id, err := randx.SessionID()
	if err != nil {
		return nil, err
	}

	s := newSession(parent, id, r.queueSize)
	s.evict = func() { r.Disconnect(id) }

	r.mu.Lock()
	r.sessions[id] = s
	total := len(r.sessions)
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", id).Int("total_sessions", total).Msg("Session connected.")
	return s, nil
}

// Get returns the live session with id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Authenticate binds principal to the session. Rebinding to another identity is rejected.
func (r *Registry) Authenticate(id string, principal user.Principal) *errs.CustomError {
	if principal.ID == "" {
		return errs.NewError(errs.ErrUnauthorized)
	}

	s, ok := r.Get(id)
	if !ok {
		return errs.NewError(errs.ErrSessionClosed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.NewError(errs.ErrSessionClosed)
	}
	if s.principal != nil && s.principal.ID != principal.ID {
		return errs.NewError(errs.ErrUnauthorized)
	}

	s.principal = &principal
	return nil
}

// Join subscribes the session to roomID. It is idempotent; added reports whether
// a new subscription was made.
func (r *Registry) Join(id, roomID string) (added bool, customErr *errs.CustomError) {
	s, ok := r.Get(id)
	if !ok {
		return false, errs.NewError(errs.ErrSessionClosed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, errs.NewError(errs.ErrSessionClosed)
	}
	if s.principal == nil {
		return false, errs.NewError(errs.ErrUnauthorized)
	}
	if _, joined := s.rooms[roomID]; joined {
		return false, nil
	}

	r.router.Subscribe(roomID, s)
	s.rooms[roomID] = struct{}{}
	return true, nil
}

// Leave unsubscribes the session from roomID. Leaving a room never joined is a no-op.
func (r *Registry) Leave(id, roomID string) (removed bool, customErr *errs.CustomError) {
	s, ok := r.Get(id)
	if !ok {
		return false, errs.NewError(errs.ErrSessionClosed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, joined := s.rooms[roomID]; !joined {
		return false, nil
	}

	delete(s.rooms, roomID)
	r.router.Unsubscribe(roomID, s.id)
	return true, nil
}

// Disconnect removes the session and all its subscriptions, then closes it.
// It is idempotent; only the first call reports true.
func (r *Registry) Disconnect(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	total := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return false
	}

	s.mu.Lock()
	s.closed = true
	rooms := s.rooms
	s.rooms = make(map[string]struct{})
	for roomID := range rooms {
		r.router.Unsubscribe(roomID, s.id)
	}
	s.mu.Unlock()

	s.close()

	r.logger.Debug().
		Str("session_id", id).
		Int("rooms", len(rooms)).
		Int("total_sessions", total).
		Msg("Session disconnected.")
	return true
}

// DisconnectAll tears down every live session.
func (r *Registry) DisconnectAll() int {
	r.mu.RLock()
	ids := slices.Collect(maps.Keys(r.sessions))
	r.mu.RUnlock()

	n := 0
	for _, id := range ids {
		if r.Disconnect(id) {
			n++
		}
	}
	return n
}
