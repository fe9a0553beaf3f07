/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"fmt"
)

// Apply returns the state after a playback event. The position always
// becomes the reported timestamp; only play and pause touch IsPlaying.
func (p PlaybackState) Apply(eventType EventType, timestamp float64) PlaybackState {
	p.Position = timestamp

	switch eventType {
	case EventPlay:
		p.IsPlaying = true
	case EventPause:
		p.IsPlaying = false
	case EventSeek:
	}

	return p
}

// ApplyPlayback updates the session's playback state from a member's event
// and relays the event to every other member. Events for a session that
// does not exist, or from a connection outside it, change nothing.
//
// Concurrent events are ordered only by who takes the session lock first;
// the last one applied wins.
func (m *Manager) ApplyPlayback(conn ConnID, ev VideoEvent) error {
	if err := ev.validate(); err != nil {
		return err
	}

	s, ok := m.sessions.Get(ev.RoomID)
	if !ok {
		return fmt.Errorf("video %s: %w", ev.RoomID, ErrRoomNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("video %s: %w", ev.RoomID, ErrRoomNotFound)
	}

	if _, ok := s.participants[conn]; !ok {
		return fmt.Errorf("video %s: %w", ev.RoomID, ErrNotAParticipant)
	}

	s.playback = s.playback.Apply(ev.EventType, ev.Timestamp)
	s.lastActive = m.now()

	m.relay.BroadcastPlaybackEvent(s.id, conn, ev.EventType, ev.Timestamp)
	m.metrics.event(TypeVideoEvent + ":" + string(ev.EventType))

	m.log.Debug().Str("room", s.id).Str("conn", string(conn)).Str("event", string(ev.EventType)).Float64("timestamp", ev.Timestamp).Msg("video event")

	return nil
}
