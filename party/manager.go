/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Manager applies client requests to the Registry and publishes the
// resulting frames through the Relay. Each request is fully applied under
// the target session's lock before the next one on that session starts.
type Manager struct {
	sessions *Registry
	relay    *Relay
	metrics  *Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func NewManager(sessions *Registry, relay *Relay, metrics *Metrics, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: sessions,
		relay:    relay,
		metrics:  metrics,
		log:      log.With().Str("module", "party.manager").Logger(),
		now:      time.Now,
	}
}

func (m *Manager) Registry() *Registry { return m.sessions }
func (m *Manager) Relay() *Relay       { return m.relay }

// Host creates a session with conn as its first participant and answers
// conn with party-hosted. It only fails on invalid input.
func (m *Manager) Host(conn ConnID, req HostRequest) (string, error) {
	if err := req.normalize(); err != nil {
		m.metrics.rejected("validation")
		return "", err
	}

	prev, hadPrev := m.sessions.SessionOf(conn)

	s := m.sessions.Create(req.HostName, req.MovieName, req.VideoLink, conn, m.now())

	s.mu.Lock()
	m.relay.Subscribe(s.id, conn)
	m.relay.Unicast(conn, RoomIDMessage{Type: TypePartyHosted, RoomID: s.id})
	s.mu.Unlock()

	m.metrics.sessionOpened()
	m.metrics.participantsChanged(1)
	m.metrics.event(TypeHostParty)

	m.log.Info().Str("room", s.id).Str("conn", string(conn)).Str("host", req.HostName).Msg("party hosted")

	if hadPrev {
		m.leaveSession(conn, prev)
	}

	return s.id, nil
}

// Join adds conn to an existing session under the given display name and
// broadcasts the new snapshot to every member, the newcomer included.
func (m *Manager) Join(conn ConnID, req JoinRequest) error {
	if err := req.normalize(); err != nil {
		m.metrics.rejected("validation")
		return err
	}

	prev, hadPrev := m.sessions.SessionOf(conn)

	if err := m.join(conn, req); err != nil {
		return err
	}

	if hadPrev && prev != req.RoomID {
		m.leaveSession(conn, prev)
	}

	return nil
}

func (m *Manager) join(conn ConnID, req JoinRequest) error {
	s, ok := m.sessions.Get(req.RoomID)
	if !ok {
		m.metrics.rejected("room_not_found")
		return fmt.Errorf("join %s: %w", req.RoomID, ErrRoomNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		m.metrics.rejected("room_not_found")
		return fmt.Errorf("join %s: %w", req.RoomID, ErrRoomNotFound)
	}

	// a full room refuses every join, including a rename by a member
	if len(s.participants) >= Capacity {
		m.metrics.rejected("room_full")
		m.log.Info().Str("room", s.id).Str("conn", string(conn)).Msg("join refused, room full")
		return fmt.Errorf("join %s: %w", req.RoomID, ErrRoomFull)
	}

	_, existing := s.participants[conn]
	s.participants[conn] = req.ParticipantName
	s.lastActive = m.now()

	m.sessions.bind(conn, s.id)
	m.relay.Subscribe(s.id, conn)
	m.relay.Unicast(conn, RoomIDMessage{Type: TypePartyJoined, RoomID: s.id})
	m.relay.BroadcastRoomSnapshot(s.id, s.snapshotLocked())

	if !existing {
		m.metrics.participantsChanged(1)
	}
	m.metrics.event(TypeJoinParty)

	m.log.Info().Str("room", s.id).Str("conn", string(conn)).Str("name", req.ParticipantName).Int("participants", len(s.participants)).Msg("party joined")

	return nil
}

// Rejoin re-subscribes a connection that is already a participant and
// answers it alone with the current snapshot.
func (m *Manager) Rejoin(conn ConnID, roomID string) error {
	roomID = strings.TrimSpace(roomID)

	s, ok := m.sessions.Get(roomID)
	if !ok {
		m.metrics.rejected("room_not_found")
		return fmt.Errorf("rejoin %s: %w", roomID, ErrRoomNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		m.metrics.rejected("room_not_found")
		return fmt.Errorf("rejoin %s: %w", roomID, ErrRoomNotFound)
	}

	name, ok := s.participants[conn]
	if !ok {
		m.metrics.rejected("not_a_participant")
		return fmt.Errorf("rejoin %s: %w", roomID, ErrNotAParticipant)
	}

	s.lastActive = m.now()

	m.relay.Subscribe(s.id, conn)
	m.relay.Unicast(conn, s.snapshotLocked())
	m.metrics.event(TypeRejoinParty)

	m.log.Info().Str("room", s.id).Str("conn", string(conn)).Str("name", name).Msg("party rejoined")

	return nil
}

// Leave removes conn from whatever session it is in. It reports the
// session it left and whether that session was destroyed as a result.
func (m *Manager) Leave(conn ConnID) (string, bool) {
	id, ok := m.sessions.SessionOf(conn)
	if !ok {
		return "", false
	}
	return id, m.leaveSession(conn, id)
}

func (m *Manager) leaveSession(conn ConnID, id string) bool {
	s, ok := m.sessions.Get(id)
	if !ok {
		m.sessions.unbind(conn, id)
		m.relay.Unsubscribe(id, conn)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.sessions.unbind(conn, id)
	m.relay.Unsubscribe(id, conn)

	if s.closed {
		return false
	}

	name, ok := s.participants[conn]
	if !ok {
		return false
	}
	delete(s.participants, conn)
	s.lastActive = m.now()
	m.metrics.participantsChanged(-1)

	m.log.Info().Str("room", id).Str("conn", string(conn)).Str("name", name).Int("participants", len(s.participants)).Msg("participant left")

	if len(s.participants) == 0 {
		s.closed = true
		m.sessions.Delete(id)
		m.relay.DropGroup(id)
		m.metrics.sessionClosed()

		m.log.Info().Str("room", id).Msg("room deleted (empty)")

		return true
	}

	m.relay.BroadcastRoomSnapshot(id, s.snapshotLocked())

	return false
}

// Chat relays a message to every member of the session, sender included.
// An empty sender name falls back to the name the sender joined with.
func (m *Manager) Chat(conn ConnID, req ChatRequest) error {
	if err := req.normalize(); err != nil {
		return err
	}

	s, ok := m.sessions.Get(req.RoomID)
	if !ok {
		return fmt.Errorf("chat %s: %w", req.RoomID, ErrRoomNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("chat %s: %w", req.RoomID, ErrRoomNotFound)
	}

	name, ok := s.participants[conn]
	if !ok {
		return fmt.Errorf("chat %s: %w", req.RoomID, ErrNotAParticipant)
	}

	sender := req.SenderName
	if sender == "" {
		sender = name
	}

	s.lastActive = m.now()

	m.relay.BroadcastChatMessage(s.id, sender, req.Message)
	m.metrics.event(TypeChatMessage)

	m.log.Debug().Str("room", s.id).Str("sender", sender).Msg("chat message")

	return nil
}

// expire closes s if it has been idle since before cutoff, telling every
// member why.
func (m *Manager) expire(s *Session, cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.lastActive.Before(cutoff) {
		return false
	}
	s.closed = true

	for conn := range s.participants {
		m.relay.EmitError(conn, "Room closed due to inactivity.")
	}

	m.sessions.Delete(s.id)
	m.relay.DropGroup(s.id)

	m.metrics.participantsChanged(-len(s.participants))
	m.metrics.sessionClosed()
	m.metrics.sessionReaped()

	m.log.Info().Str("room", s.id).Time("last_active", s.lastActive).Msg("room closed (idle)")

	return true
}
