package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConn speaks the line protocol over text frames. One inbound
// frame may hold several lines; each outbound line is sent as one frame.
type WebSocketConn struct {
	conn    *websocket.Conn
	pending []string

	writeMu      sync.Mutex
	writeTimeout time.Duration
}

// DialWebSocket connects to a referee endpoint.
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WebSocketConn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocketConn(conn), nil
}

// NewWebSocketConn wraps an established connection, e.g. one accepted by a
// server-side upgrader.
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn, writeTimeout: 5 * time.Second}
}

// ReadLine returns io.EOF once the peer closes the connection normally.
func (c *WebSocketConn) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		mt, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", fmt.Errorf("websocket read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		text := strings.TrimSuffix(strings.ReplaceAll(string(msg), "\r\n", "\n"), "\n")
		c.pending = strings.Split(text, "\n")
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

func (c *WebSocketConn) WriteLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Close sends a normal close frame and releases the connection.
func (c *WebSocketConn) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
