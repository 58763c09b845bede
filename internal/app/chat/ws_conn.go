package chat

import (
	"bytes"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// closeGrace bounds the close frame write when a WebSocket session is released.
const closeGrace = time.Second

// wsConn carries protocol lines over WebSocket text frames, one line per frame.
type wsConn struct {
	conn       *websocket.Conn
	remoteAddr string
}

// NewWSConn wraps an upgraded WebSocket connection. Frames larger than maxLineBytes
// terminate the connection. remoteAddr is the client address as seen by the HTTP layer
// (after proxy headers were applied); when empty the socket peer address is used.
func NewWSConn(conn *websocket.Conn, remoteAddr string, maxLineBytes int) Conn {
	conn.SetReadLimit(int64(maxLineBytes))
	if remoteAddr == "" {
		remoteAddr = conn.RemoteAddr().String()
	}
	return &wsConn{conn: conn, remoteAddr: remoteAddr}
}

func (c *wsConn) ReadLine() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return nil, ErrLineTooLong
		}
		return nil, err
	}
	return bytes.TrimRight(data, "\r\n"), nil
}

func (c *wsConn) WriteLine(line []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, bytes.TrimRight(line, "\n"))
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.conn.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *wsConn) RemoteAddr() string                 { return c.remoteAddr }

func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return c.conn.Close()
}
