package ws

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Conn is the write side of a relay connection. *websocket.Conn satisfies it;
// tests substitute in-memory fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// lockedConn serializes writes to the underlying connection.
// gorilla/websocket permits at most one concurrent writer per connection,
// while broadcasts for different messages run on different goroutines.
type lockedConn struct {
	mu   sync.Mutex
	conn Conn
}

func newLockedConn(conn Conn) *lockedConn {
	return &lockedConn{conn: conn}
}

func (c *lockedConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *lockedConn) Close() error {
	return c.conn.Close()
}

// ConnInfo carries per-connection metadata captured at handshake time.
type ConnInfo struct {
	ConnID      string
	AccountID   int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
