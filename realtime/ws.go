package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WSTransport adapts a websocket connection to the Transport contract.
// Events go out as one newline-terminated JSON document per text
// message; heartbeats are websocket pings. gorilla allows a single
// concurrent writer, so all writes serialize on a mutex.
type WSTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSTransport(conn *websocket.Conn) *WSTransport {
	return &WSTransport{conn: conn}
}

func (t *WSTransport) WriteEvent(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, append(data, '\n'))
}

func (t *WSTransport) WriteHeartbeat() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *WSTransport) Close() error {
	return t.conn.Close()
}
