package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"learnhub-chat/internal/auth"
)

// sendBuffer bounds how many undelivered frames a recipient may accumulate
// before it is treated as dead.
const sendBuffer = 64

// Session is one live websocket connection for one authenticated user in one
// room. Outbound frames go through a buffered channel drained by a single
// write pump, so a slow recipient never blocks a broadcasting connection.
type Session struct {
	ConnID      string
	RoomID      int64
	UserID      int64
	Username    string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewSession wraps an upgraded connection.
func NewSession(conn *websocket.Conn, roomID int64, identity auth.Identity) *Session {
	return &Session{
		ConnID:      newConnID(),
		RoomID:      roomID,
		UserID:      identity.UserID,
		Username:    identity.Username,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
	}
}

// WritePump drains the send channel onto the wire. It exits when the session
// is closed and then closes the underlying connection, which also unblocks
// the read loop.
func (s *Session) WritePump() {
	defer s.conn.Close()

	for payload := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Enqueue hands a payload to the write pump without blocking. It reports
// false when the session is closed or its buffer is full; the caller treats
// either as a transport failure for this recipient only.
func (s *Session) Enqueue(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the session down. Safe to call more than once and from any
// goroutine.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}
