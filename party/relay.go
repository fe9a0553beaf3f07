/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Conn is the transport endpoint of one client. Send must not block: when
// the frame cannot be queued it returns an error and the frame is lost.
type Conn interface {
	ID() ConnID
	Send(msg any) error
}

// PublishResult reports how a fan-out went.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}

// Relay delivers frames to the connections subscribed to a session.
// It owns no session state and never calls back into the Registry.
type Relay struct {
	mu       sync.RWMutex
	conns    map[ConnID]Conn
	groups   map[string]map[ConnID]struct{}
	memberOf map[ConnID]map[string]struct{}

	log     zerolog.Logger
	metrics *Metrics
}

func NewRelay(log zerolog.Logger, metrics *Metrics) *Relay {
	return &Relay{
		conns:    make(map[ConnID]Conn),
		groups:   make(map[string]map[ConnID]struct{}),
		memberOf: make(map[ConnID]map[string]struct{}),
		log:      log.With().Str("module", "party.relay").Logger(),
		metrics:  metrics,
	}
}

// Attach makes c reachable for unicast and group delivery.
func (r *Relay) Attach(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

// Detach forgets the connection and removes it from the groups it is
// subscribed to. Other groups are not visited.
func (r *Relay) Detach(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, id)
	for sid := range r.memberOf[id] {
		r.unsubscribeLocked(sid, id)
	}
	delete(r.memberOf, id)
}

func (r *Relay) Subscribe(sessionID string, id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.groups[sessionID]
	if !ok {
		members = make(map[ConnID]struct{})
		r.groups[sessionID] = members
	}
	members[id] = struct{}{}

	joined, ok := r.memberOf[id]
	if !ok {
		joined = make(map[string]struct{}, 1)
		r.memberOf[id] = joined
	}
	joined[sessionID] = struct{}{}
}

func (r *Relay) Unsubscribe(sessionID string, id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribeLocked(sessionID, id)
}

func (r *Relay) unsubscribeLocked(sessionID string, id ConnID) {
	if members, ok := r.groups[sessionID]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.groups, sessionID)
		}
	}

	if joined, ok := r.memberOf[id]; ok {
		delete(joined, sessionID)
		if len(joined) == 0 {
			delete(r.memberOf, id)
		}
	}
}

// DropGroup forgets every subscription to sessionID.
func (r *Relay) DropGroup(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.groups[sessionID] {
		if joined, ok := r.memberOf[id]; ok {
			delete(joined, sessionID)
			if len(joined) == 0 {
				delete(r.memberOf, id)
			}
		}
	}
	delete(r.groups, sessionID)
}

// groupsOf returns the sessions id is subscribed to.
func (r *Relay) groupsOf(id ConnID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.memberOf[id]))
	for sid := range r.memberOf[id] {
		out = append(out, sid)
	}
	return out
}

// Members returns the connections subscribed to sessionID.
func (r *Relay) Members(sessionID string) []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ConnID, 0, len(r.groups[sessionID]))
	for id := range r.groups[sessionID] {
		out = append(out, id)
	}
	return out
}

// Connections returns the number of attached connections.
func (r *Relay) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Publish sends msg to every subscriber of sessionID except exclude.
// An empty exclude reaches everyone.
func (r *Relay) Publish(sessionID string, exclude ConnID, msg any) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := PublishResult{}
	for id := range r.groups[sessionID] {
		if id == exclude {
			continue
		}
		c, ok := r.conns[id]
		if !ok {
			continue
		}
		if err := c.Send(msg); err != nil {
			r.droppedLocked(id, err)
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}

	r.log.Debug().Str("room", sessionID).Str("exclude", string(exclude)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("publish")

	return res
}

// Unicast sends msg to a single connection.
func (r *Relay) Unicast(id ConnID, msg any) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return false
	}
	if err := c.Send(msg); err != nil {
		r.droppedLocked(id, err)
		return false
	}
	return true
}

func (r *Relay) droppedLocked(id ConnID, err error) {
	r.metrics.dropped()

	ev := r.log.Warn()
	if errors.Is(err, ErrConnClosed) {
		ev = r.log.Debug()
	}
	ev.Err(err).Str("conn", string(id)).Msg("frame dropped")
}

// BroadcastRoomSnapshot sends the full session view to every member.
func (r *Relay) BroadcastRoomSnapshot(sessionID string, snap RoomDataMessage) PublishResult {
	return r.Publish(sessionID, "", snap)
}

// BroadcastPlaybackEvent sends a playback change to every member but the sender.
func (r *Relay) BroadcastPlaybackEvent(sessionID string, exclude ConnID, eventType EventType, timestamp float64) PublishResult {
	return r.Publish(sessionID, exclude, SyncVideoMessage{
		Type:      TypeSyncVideo,
		EventType: eventType,
		Timestamp: timestamp,
	})
}

// BroadcastChatMessage sends a chat line to every member, sender included.
func (r *Relay) BroadcastChatMessage(sessionID, senderName, message string) PublishResult {
	return r.Publish(sessionID, "", NewMessageMessage{
		Type:       TypeNewMessage,
		SenderName: senderName,
		Message:    message,
	})
}

// EmitError sends a failure notice to a single connection.
func (r *Relay) EmitError(id ConnID, message string) bool {
	return r.Unicast(id, ErrorMessage{
		Type:    TypeError,
		Message: message,
	})
}
