/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLen    = 36
	MaxTitleLen   = 200
	MaxLinkLen    = 2048
	MaxMessageLen = 1000
)

type HostRequest struct {
	HostName  string
	MovieName string
	VideoLink string
}

func (r *HostRequest) normalize() error {
	r.HostName = strings.TrimSpace(r.HostName)
	r.MovieName = strings.TrimSpace(r.MovieName)
	r.VideoLink = strings.TrimSpace(r.VideoLink)

	if r.HostName == "" || r.MovieName == "" || r.VideoLink == "" {
		return validationError("Please fill in all fields.")
	}
	if utf8.RuneCountInString(r.HostName) > MaxNameLen {
		return validationError("Name is too long.")
	}
	if utf8.RuneCountInString(r.MovieName) > MaxTitleLen {
		return validationError("Movie name is too long.")
	}
	if len(r.VideoLink) > MaxLinkLen {
		return validationError("Video link is too long.")
	}
	return nil
}

type JoinRequest struct {
	RoomID          string
	ParticipantName string
}

func (r *JoinRequest) normalize() error {
	r.RoomID = strings.TrimSpace(r.RoomID)
	r.ParticipantName = strings.TrimSpace(r.ParticipantName)

	if r.RoomID == "" || r.ParticipantName == "" {
		return validationError("Please fill in all fields.")
	}
	if utf8.RuneCountInString(r.ParticipantName) > MaxNameLen {
		return validationError("Name is too long.")
	}
	return nil
}

type VideoEvent struct {
	RoomID    string
	EventType EventType
	Timestamp float64
}

func (e VideoEvent) validate() error {
	if e.RoomID == "" {
		return validationError("missing room")
	}
	if !e.EventType.valid() {
		return validationError("unknown event type")
	}
	if math.IsNaN(e.Timestamp) || math.IsInf(e.Timestamp, 0) || e.Timestamp < 0 {
		return validationError("invalid timestamp")
	}
	return nil
}

type ChatRequest struct {
	RoomID     string
	SenderName string
	Message    string
}

func (r *ChatRequest) normalize() error {
	r.SenderName = strings.TrimSpace(r.SenderName)

	if r.RoomID == "" || strings.TrimSpace(r.Message) == "" {
		return validationError("empty message")
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLen {
		return validationError("message too long")
	}
	if utf8.RuneCountInString(r.SenderName) > MaxNameLen {
		return validationError("name too long")
	}
	return nil
}
