package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

type wsConn struct {
	conn          *websocket.Conn
	participantID string
	sendMu        chan struct{}
	closed        chan struct{}
}

func newWsConn(c *websocket.Conn, participantID string) *wsConn {
	return &wsConn{
		conn:          c,
		participantID: participantID,
		sendMu:        make(chan struct{}, 1),
		closed:        make(chan struct{}),
	}
}

// Send сериализует записи в сокет; таймаут записи защищает остальных
// участников от медленного потребителя.
func (c *wsConn) Send(frame []byte) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ParticipantID() string { return c.participantID }
