package transport

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

const sendBuffer = 64

// session is one connected websocket client, identified by a generated
// session id. Writes go through a buffered channel so broadcasts never block
// on a slow client; when the buffer is full the event is dropped.
type session struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// enqueue queues an event for delivery. Returns false when the session is
// closed or its send buffer is full.
func (s *session) enqueue(event string, data any) bool {
	msg, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// writePump drains the send channel onto the connection. It exits when close
// shuts the channel.
func (s *session) writePump() {
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	s.conn.Close()
}

// close stops the write pump and closes the connection. Idempotent.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}
