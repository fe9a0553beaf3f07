/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	sessionIDPrefix = "room-"
	sessionIDLen    = 12
	idLetters       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// idByteLimit is the largest multiple of len(idLetters) that fits in a
// byte. Bytes at or above it are discarded so every letter is equally likely.
const idByteLimit = 256 - 256%len(idLetters)

// newSessionID returns "room-" followed by 12 crypto-random alphanumerics.
func newSessionID() string {
	id, err := sessionIDFrom(rand.Reader)
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return id
}

func sessionIDFrom(src io.Reader) (string, error) {
	out := make([]byte, 0, sessionIDLen)
	buf := make([]byte, sessionIDLen)

	for len(out) < sessionIDLen {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= idByteLimit {
				continue
			}
			out = append(out, idLetters[int(b)%len(idLetters)])
			if len(out) == sessionIDLen {
				break
			}
		}
	}

	return sessionIDPrefix + string(out), nil
}

// Registry is the process-wide store of live sessions. It also indexes
// which session each connection belongs to, so a disconnect never has to
// scan every session.
//
// Lock order: a Session's mu may be held while calling into the Registry,
// never the other way around.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byConn   map[ConnID]string
	members  map[string]map[ConnID]struct{}

	log   zerolog.Logger
	newID func() string
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[ConnID]string),
		members:  make(map[string]map[ConnID]struct{}),
		log:      log.With().Str("module", "party.registry").Logger(),
		newID:    newSessionID,
	}
}

// Create inserts a new session whose only participant is the host on conn.
// The session is fully formed before any other caller can look it up.
func (r *Registry) Create(hostName, movieName, videoLink string, conn ConnID, now time.Time) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, exists := r.sessions[id]; !exists {
			break
		}
		r.log.Warn().Str("room", id).Msg("session id collision, regenerating")
		id = r.newID()
	}

	s := newSession(id, hostName, movieName, videoLink, now)
	s.participants[conn] = hostName

	r.sessions[id] = s
	r.bindLocked(conn, id)

	r.log.Info().Str("room", id).Str("conn", string(conn)).Msg("session created")

	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes the session and every connection binding pointing at it.
// Only the session's own connections are visited. Deleting an unknown
// session is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)

	for conn := range r.members[id] {
		if r.byConn[conn] == id {
			delete(r.byConn, conn)
		}
	}
	delete(r.members, id)

	r.log.Info().Str("room", id).Msg("session deleted")
}

// SessionOf returns the ID of the session conn currently belongs to.
func (r *Registry) SessionOf(conn ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byConn[conn]
	return id, ok
}

func (r *Registry) bind(conn ConnID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindLocked(conn, id)
}

func (r *Registry) bindLocked(conn ConnID, id string) {
	if prev, ok := r.byConn[conn]; ok && prev != id {
		r.forgetMember(prev, conn)
	}
	r.byConn[conn] = id

	set, ok := r.members[id]
	if !ok {
		set = make(map[ConnID]struct{})
		r.members[id] = set
	}
	set[conn] = struct{}{}
}

// unbind drops the binding of conn, but only if it still points at id.
func (r *Registry) unbind(conn ConnID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byConn[conn] == id {
		delete(r.byConn, conn)
		r.forgetMember(id, conn)
	}
}

func (r *Registry) forgetMember(id string, conn ConnID) {
	set, ok := r.members[id]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.members, id)
	}
}

// boundTo returns the connections currently bound to session id.
func (r *Registry) boundTo(id string) []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ConnID, 0, len(r.members[id]))
	for conn := range r.members[id] {
		out = append(out, conn)
	}
	return out
}

// Sessions returns the live sessions at the time of the call.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Stats returns the number of live sessions and of bound connections.
func (r *Registry) Stats() (sessions, participants int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.byConn)
}
