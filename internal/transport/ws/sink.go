package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connSink delivers session events to one websocket peer as JSON text
// frames. The mutex serializes writers; gorilla connections allow only
// one concurrent writer.
type connSink struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func newConnSink(conn *websocket.Conn, writeTimeout time.Duration) *connSink {
	return &connSink{conn: conn, writeTimeout: writeTimeout}
}

func (s *connSink) Send(event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteJSON(event)
}

// close sends a normal close frame; best effort.
func (s *connSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
}
