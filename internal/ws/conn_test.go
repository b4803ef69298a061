package ws

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
)

// overlapConn records whether two goroutines were ever inside WriteMessage
// at the same time, which gorilla/websocket forbids on a single connection.
type overlapConn struct {
	writes  atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
}

func (c *overlapConn) WriteMessage(messageType int, data []byte) error {
	if c.active.Add(1) > 1 {
		c.overlap.Store(true)
	}
	c.writes.Add(1)
	c.active.Add(-1)
	return nil
}

func (c *overlapConn) Close() error { return nil }

func TestLockedConnSerializesConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()
	raw := &overlapConn{}
	conn := newLockedConn(raw)
	hub.Register(conn, ConnInfo{ConnID: "c1"})
	hub.Join("conv1", conn)

	const broadcasts = 64
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastMessage("conv1", models.Message{
				ID:        1,
				SessionID: "conv1",
				Content:   "Echo: hi",
				Sender:    models.SenderServer,
			})
		}()
	}
	wg.Wait()

	require.False(t, raw.overlap.Load(), "concurrent writes reached the connection")
	require.EqualValues(t, broadcasts, raw.writes.Load())
}
