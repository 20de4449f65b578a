package gateway

import (
	"sync"
	"time"

	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
)

// Session binds an authenticated user identity to a live connection.
// A session exists only after the IDENTIFY handshake succeeds.
type Session struct {
	Conn     Conn
	UserID   string
	LastPong time.Time
}

// Registry exclusively owns the connection -> session mapping and the
// userID -> connection reverse index used for targeted delivery. All
// operations hold the registry lock for their full duration.
type Registry struct {
	mu       sync.Mutex
	sessions map[Conn]*Session
	byUser   map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[Conn]*Session),
		byUser:   make(map[string]Conn),
	}
}

// Register binds userID to conn. Fails if the connection already carries a
// session. A fresh login for a user replaces the reverse mapping, so
// targeted sends reach the newest connection.
func (r *Registry) Register(conn Conn, userID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn]; ok {
		return nil, apperrors.ErrAlreadyAuthenticated
	}

	ss := &Session{
		Conn:     conn,
		UserID:   userID,
		LastPong: time.Now(),
	}
	r.sessions[conn] = ss
	r.byUser[userID] = conn

	return ss, nil
}

// Unregister removes any session bound to conn. Idempotent: safe to call
// from both the disconnect handler and the liveness sweep.
func (r *Registry) Unregister(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unregisterLocked(conn)
}

func (r *Registry) unregisterLocked(conn Conn) {
	ss, ok := r.sessions[conn]
	if !ok {
		return
	}

	delete(r.sessions, conn)
	if r.byUser[ss.UserID] == conn {
		delete(r.byUser, ss.UserID)
	}
}

// Touch records a liveness response. No-op for unauthenticated connections.
func (r *Registry) Touch(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ss, ok := r.sessions[conn]; ok {
		ss.LastPong = time.Now()
	}
}

// UserID returns the identity bound to conn, if any.
func (r *Registry) UserID(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ss, ok := r.sessions[conn]
	if !ok {
		return "", false
	}
	return ss.UserID, true
}

// FindByUserIDs resolves live connections for the given ids. Ids without a
// session are silently skipped.
func (r *Registry) FindByUserIDs(ids []string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]Conn, 0, len(ids))
	for _, id := range ids {
		if conn, ok := r.byUser[id]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Conns snapshots every authenticated connection.
func (r *Registry) Conns() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]Conn, 0, len(r.sessions))
	for conn := range r.sessions {
		conns = append(conns, conn)
	}
	return conns
}

// Len reports the number of authenticated sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// SweepExpired evicts every session whose last pong is older than
// maxSilence and returns the evicted sessions so the caller can close the
// transports and tear down per-user state.
func (r *Registry) SweepExpired(maxSilence time.Duration) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := time.Now().Add(-maxSilence)

	var evicted []*Session
	for _, ss := range r.sessions {
		if ss.LastPong.Before(deadline) {
			evicted = append(evicted, ss)
		}
	}

	for _, ss := range evicted {
		r.unregisterLocked(ss.Conn)
	}

	return evicted
}
