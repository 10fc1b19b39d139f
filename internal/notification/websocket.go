package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsWriteTimeout bounds a single subscriber write so one stalled
// connection cannot hold up a broadcast indefinitely.
const wsWriteTimeout = 10 * time.Second

// WSSubscriber adapts a gorilla/websocket connection to the Subscriber
// interface. The Service serializes Send calls per subscriber, which
// also satisfies gorilla's single-writer requirement.
type WSSubscriber struct {
	id   string
	conn *websocket.Conn
}

// NewWSSubscriber wraps an upgraded WebSocket connection.
func NewWSSubscriber(conn *websocket.Conn) *WSSubscriber {
	return &WSSubscriber{
		id:   uuid.NewString(),
		conn: conn,
	}
}

// ID returns the subscriber's connection id.
func (w *WSSubscriber) ID() string { return w.id }

// Send writes one text message to the connection.
func (w *WSSubscriber) Send(payload []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying connection.
func (w *WSSubscriber) Close() error {
	return w.conn.Close()
}
