/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

// Inbound message types
const (
	TypeHostParty   = "host-party"
	TypeJoinParty   = "join-party"
	TypeRejoinParty = "rejoin-party"
	TypeLeaveParty  = "leave-party"
	TypeVideoEvent  = "video-event"
	TypeChatMessage = "chat-message"
	TypePing        = "ping"
)

// Outbound message types
const (
	TypeConnected   = "connected"
	TypePartyHosted = "party-hosted"
	TypePartyJoined = "party-joined"
	TypeRoomData    = "room-data"
	TypeSyncVideo   = "sync-video"
	TypeNewMessage  = "new-message"
	TypeError       = "error"
	TypeLeft        = "left"
	TypePong        = "pong"
)

// EventType is the kind of playback change a client reports.
type EventType string

const (
	EventPlay  EventType = "play"
	EventPause EventType = "pause"
	EventSeek  EventType = "seek"
)

func (e EventType) valid() bool {
	switch e {
	case EventPlay, EventPause, EventSeek:
		return true
	}
	return false
}

// ClientMessage is any frame a client sends. Only the fields relevant to
// Type are read.
type ClientMessage struct {
	Type            string    `json:"type"`
	HostName        string    `json:"hostName,omitempty"`        // host-party
	MovieName       string    `json:"movieName,omitempty"`       // host-party
	VideoLink       string    `json:"videoLink,omitempty"`       // host-party
	ParticipantName string    `json:"participantName,omitempty"` // join-party
	RoomID          string    `json:"roomId,omitempty"`          // join/rejoin/video/chat
	EventType       EventType `json:"eventType,omitempty"`       // video-event
	Timestamp       *float64  `json:"timestamp,omitempty"`       // video-event
	Message         string    `json:"message,omitempty"`         // chat-message
	SenderName      string    `json:"senderName,omitempty"`      // chat-message
}

type ConnectedMessage struct {
	Type         string `json:"type"` // "connected"
	ConnectionID ConnID `json:"connectionId"`
}

// RoomIDMessage answers host-party, join-party and leave-party.
type RoomIDMessage struct {
	Type   string `json:"type"` // "party-hosted", "party-joined", "left"
	RoomID string `json:"roomId"`
}

// RoomDataMessage is the full session view every member renders from.
type RoomDataMessage struct {
	Type         string            `json:"type"` // "room-data"
	HostName     string            `json:"hostName"`
	MovieName    string            `json:"movieName"`
	VideoLink    string            `json:"videoLink"`
	CurrentTime  float64           `json:"currentTime"`
	IsPlaying    bool              `json:"isPlaying"`
	Participants map[ConnID]string `json:"participants"`
}

type SyncVideoMessage struct {
	Type      string    `json:"type"` // "sync-video"
	EventType EventType `json:"eventType"`
	Timestamp float64   `json:"timestamp"`
}

type NewMessageMessage struct {
	Type       string `json:"type"` // "new-message"
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"` // "pong"
}
