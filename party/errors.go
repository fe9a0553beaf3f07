/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrNotAParticipant = errors.New("not a participant")
	ErrValidation      = errors.New("validation failed")

	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

// Op names the client request an error belongs to, since the same
// condition reads differently depending on what the client tried.
type Op string

const (
	OpHost   Op = "host"
	OpJoin   Op = "join"
	OpRejoin Op = "rejoin"
	OpVideo  Op = "video"
	OpChat   Op = "chat"
)

type validationErr struct {
	msg string
}

func (e *validationErr) Error() string { return ErrValidation.Error() + ": " + e.msg }
func (e *validationErr) Unwrap() error { return ErrValidation }

func validationError(msg string) error {
	return &validationErr{msg: msg}
}

// ValidationMessage returns the user-facing part of a validation error.
func ValidationMessage(err error) string {
	var v *validationErr
	if errors.As(err, &v) {
		return v.msg
	}
	return "Please fill in all fields."
}

// UserMessage maps a core error to the text shown to the requesting client.
func UserMessage(op Op, err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		if op == OpRejoin {
			return "Room no longer exists."
		}
		return "Room ID does not exist."
	case errors.Is(err, ErrRoomFull):
		return fmt.Sprintf("Room is full (max %d participants).", Capacity)
	case errors.Is(err, ErrNotAParticipant):
		return "You are not a participant in this room."
	case errors.Is(err, ErrValidation):
		return ValidationMessage(err)
	default:
		return "Something went wrong. Please try again."
	}
}
