package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
)

type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	failWrites bool
	closed     bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("write failed")
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events(t *testing.T) []Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	envs := make([]Envelope, 0, len(c.frames))
	for _, frame := range c.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		envs = append(envs, env)
	}
	return envs
}

func (c *fakeConn) eventsNamed(t *testing.T, name string) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range c.events(t) {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

func testMessage(chatID, content, sender string) models.Message {
	return models.Message{ID: 42, SessionID: chatID, Content: content, Sender: sender, CreatedAt: time.Now()}
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register(conn, ConnInfo{ConnID: "c1"})

	hub.Join("conv1", conn)
	hub.Join("conv1", conn)

	require.Equal(t, 1, hub.RoomSize("conv1"))

	hub.BroadcastMessage("conv1", testMessage("conv1", "hello", models.SenderServer))
	require.Len(t, conn.frames, 1)
}

func TestHubRoomIsolation(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{}
	b := &fakeConn{}
	hub.Register(a, ConnInfo{ConnID: "a"})
	hub.Register(b, ConnInfo{ConnID: "b"})
	hub.Join("conv1", a)
	hub.Join("conv2", b)

	hub.BroadcastMessage("conv1", testMessage("conv1", "hello", models.SenderServer))

	require.Len(t, a.eventsNamed(t, ChatMessageEvent("conv1")), 1)
	require.Empty(t, b.events(t))
}

func TestHubUnregisterClearsAllRooms(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register(conn, ConnInfo{ConnID: "c1"})
	hub.Join("conv1", conn)
	hub.Join("conv2", conn)

	hub.Unregister(conn)

	require.Equal(t, 0, hub.RoomSize("conv1"))
	require.Equal(t, 0, hub.RoomSize("conv2"))

	hub.BroadcastMessage("conv1", testMessage("conv1", "after", models.SenderServer))
	require.Empty(t, conn.events(t))

	// unregistering again must not panic
	hub.Unregister(conn)
}

func TestHubBroadcastEvictsDeadConnections(t *testing.T) {
	hub := NewHub()
	dead := &fakeConn{failWrites: true}
	alive := &fakeConn{}
	hub.Register(dead, ConnInfo{ConnID: "dead"})
	hub.Register(alive, ConnInfo{ConnID: "alive"})
	hub.Join("conv1", dead)
	hub.Join("conv1", alive)

	hub.BroadcastMessage("conv1", testMessage("conv1", "hello", models.SenderServer))

	require.Equal(t, 1, hub.RoomSize("conv1"))
	require.True(t, dead.closed)
	require.Len(t, alive.frames, 1)
}
