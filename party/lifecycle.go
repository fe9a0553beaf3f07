/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

// Connect makes a new transport connection reachable and tells the client
// the identity it will appear under in room-data participant maps.
func (m *Manager) Connect(c Conn) {
	m.relay.Attach(c)
	m.metrics.connectionsChanged(1)

	m.relay.Unicast(c.ID(), ConnectedMessage{
		Type:         TypeConnected,
		ConnectionID: c.ID(),
	})

	m.log.Debug().Str("conn", string(c.ID())).Msg("connected")
}

// Disconnect runs on every connection teardown, abrupt or graceful. The
// connection leaves its session, if any, and stops receiving frames.
func (m *Manager) Disconnect(id ConnID) {
	room, deleted := m.Leave(id)

	m.relay.Detach(id)
	m.metrics.connectionsChanged(-1)

	m.log.Debug().Str("conn", string(id)).Str("room", room).Bool("room_deleted", deleted).Msg("disconnected")
}
