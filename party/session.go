/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package party keeps watch-party sessions in sync.
//
// One user hosts a session with a display name, a movie title and a video
// link. Up to two more join with the session ID. Every member's player
// follows a shared {position, isPlaying} pair that the members themselves
// move around with play, pause and seek events, and chat is fanned out to
// everyone in the room.
//
// Features:
//   - In-memory Registry of live sessions, indexed by connection
//   - Capacity of 3 participants per session, host included
//   - Last write wins playback state, no server-side clock extrapolation
//   - Playback events go to everyone but the sender; snapshots and chat
//     go to everyone
//   - Sessions are destroyed when their last participant leaves
//   - Optional idle reaper for sessions nobody has touched in a while
//
// All mutations of a session happen under that session's lock, and every
// broadcast caused by a mutation is published before the lock is released.
package party

import (
	"sync"
	"time"
)

// Capacity is the maximum number of participants in a session, host included.
const Capacity = 3

// ConnID identifies one live client connection.
type ConnID string

// PlaybackState is the shared player position. Position is whatever the
// last reporting client said; the server never advances it.
type PlaybackState struct {
	Position  float64
	IsPlaying bool
}

// Session is a single hosted watch party. Fields below mu are guarded by it.
type Session struct {
	id        string
	hostName  string
	movieName string
	videoLink string
	createdAt time.Time

	mu           sync.Mutex
	participants map[ConnID]string
	playback     PlaybackState
	lastActive   time.Time
	closed       bool
}

func newSession(id, hostName, movieName, videoLink string, now time.Time) *Session {
	return &Session{
		id:           id,
		hostName:     hostName,
		movieName:    movieName,
		videoLink:    videoLink,
		createdAt:    now,
		participants: make(map[ConnID]string, Capacity),
		lastActive:   now,
	}
}

func (s *Session) ID() string        { return s.id }
func (s *Session) HostName() string  { return s.hostName }
func (s *Session) MovieName() string { return s.movieName }
func (s *Session) VideoLink() string { return s.videoLink }

// Playback returns the current playback state.
func (s *Session) Playback() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback
}

// Len returns the number of participants.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// Participant reports the display name of conn within the session.
func (s *Session) Participant(conn ConnID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.participants[conn]
	return name, ok
}

// LastActive returns the time of the last request that touched the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// snapshotLocked assumes s.mu is held.
func (s *Session) snapshotLocked() RoomDataMessage {
	participants := make(map[ConnID]string, len(s.participants))
	for id, name := range s.participants {
		participants[id] = name
	}

	return RoomDataMessage{
		Type:         TypeRoomData,
		HostName:     s.hostName,
		MovieName:    s.movieName,
		VideoLink:    s.videoLink,
		CurrentTime:  s.playback.Position,
		IsPlaying:    s.playback.IsPlaying,
		Participants: participants,
	}
}

// Snapshot returns the full view of the session as sent in room-data.
func (s *Session) Snapshot() RoomDataMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}
