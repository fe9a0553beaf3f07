/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type fakeConn struct {
	id       ConnID
	mu       sync.Mutex
	received []any
	sendErr  error
}

func (f *fakeConn) ID() ConnID { return f.id }

func (f *fakeConn) Send(msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.received = append(f.received, msg)
	return nil
}

func (f *fakeConn) messages() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.received))
	copy(out, f.received)
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = nil
}

// received returns every message of type T delivered to c, in order.
func received[T any](c *fakeConn) []T {
	var out []T
	for _, msg := range c.messages() {
		if v, ok := msg.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func last[T any](t *testing.T, c *fakeConn) T {
	t.Helper()
	all := received[T](c)
	if len(all) == 0 {
		var zero T
		t.Fatalf("connection %s received no %T", c.id, zero)
	}
	return all[len(all)-1]
}

type testEnv struct {
	manager  *Manager
	registry *Registry
	relay    *Relay
	metrics  *Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zerolog.Nop()
	metrics := NewMetrics(prometheus.NewRegistry())
	registry := NewRegistry(log)
	relay := NewRelay(log, metrics)

	return &testEnv{
		manager:  NewManager(registry, relay, metrics, log),
		registry: registry,
		relay:    relay,
		metrics:  metrics,
	}
}

// connect attaches a fresh fake connection and discards its greeting.
func (e *testEnv) connect(id string) *fakeConn {
	c := &fakeConn{id: ConnID(id)}
	e.manager.Connect(c)
	c.reset()
	return c
}

func (e *testEnv) host(t *testing.T, c *fakeConn, name string) string {
	t.Helper()
	id, err := e.manager.Host(c.id, HostRequest{
		HostName:  name,
		MovieName: "Movie",
		VideoLink: "https://drive.google.com/file/d/abc123/view",
	})
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	return id
}

func (e *testEnv) join(t *testing.T, c *fakeConn, room, name string) {
	t.Helper()
	if err := e.manager.Join(c.id, JoinRequest{RoomID: room, ParticipantName: name}); err != nil {
		t.Fatalf("join: %v", err)
	}
}
