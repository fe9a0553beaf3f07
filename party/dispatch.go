/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

// Dispatch routes one decoded client frame. Failures of host, join and
// rejoin are answered with an error frame to the sender only; malformed
// playback and chat frames are dropped, since clients treat any error
// received inside a room as the end of their session.
func (m *Manager) Dispatch(conn ConnID, msg ClientMessage) {
	switch msg.Type {
	case TypeHostParty:
		_, err := m.Host(conn, HostRequest{
			HostName:  msg.HostName,
			MovieName: msg.MovieName,
			VideoLink: msg.VideoLink,
		})
		if err != nil {
			m.relay.EmitError(conn, UserMessage(OpHost, err))
		}

	case TypeJoinParty:
		err := m.Join(conn, JoinRequest{
			RoomID:          msg.RoomID,
			ParticipantName: msg.ParticipantName,
		})
		if err != nil {
			m.relay.EmitError(conn, UserMessage(OpJoin, err))
		}

	case TypeRejoinParty:
		if err := m.Rejoin(conn, msg.RoomID); err != nil {
			m.relay.EmitError(conn, UserMessage(OpRejoin, err))
		}

	case TypeLeaveParty:
		if room, _ := m.Leave(conn); room != "" {
			m.relay.Unicast(conn, RoomIDMessage{Type: TypeLeft, RoomID: room})
		}

	case TypeVideoEvent:
		if msg.Timestamp == nil {
			m.log.Debug().Str("conn", string(conn)).Msg("video event without timestamp")
			return
		}
		err := m.ApplyPlayback(conn, VideoEvent{
			RoomID:    msg.RoomID,
			EventType: msg.EventType,
			Timestamp: *msg.Timestamp,
		})
		if err != nil {
			m.log.Debug().Err(err).Str("conn", string(conn)).Str("op", string(OpVideo)).Msg("event ignored")
		}

	case TypeChatMessage:
		err := m.Chat(conn, ChatRequest{
			RoomID:     msg.RoomID,
			SenderName: msg.SenderName,
			Message:    msg.Message,
		})
		if err != nil {
			m.log.Debug().Err(err).Str("conn", string(conn)).Str("op", string(OpChat)).Msg("event ignored")
		}

	case TypePing:
		m.relay.Unicast(conn, PongMessage{Type: TypePong})

	default:
		m.log.Warn().Str("conn", string(conn)).Str("type", msg.Type).Msg("unknown message type")
	}
}
