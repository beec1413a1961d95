package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// closeGracePeriod bounds the write of our own close frame.
const closeGracePeriod = time.Second

// GorillaDialer dials with github.com/gorilla/websocket.
type GorillaDialer struct {
	// HandshakeTimeout bounds the opening handshake. Zero leaves it to ctx.
	HandshakeTimeout time.Duration
	// Header is sent with the handshake request.
	Header http.Header
	// MaxMessageSize bounds one reassembled message. Zero means unbounded.
	MaxMessageSize int64
}

// Dial implements Dialer. http and https targets are dialed as ws and wss.
func (d *GorillaDialer) Dial(ctx context.Context, target string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	c, resp, err := dialer.DialContext(ctx, wsURL(target), d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	if d.MaxMessageSize > 0 {
		c.SetReadLimit(d.MaxMessageSize)
	}
	return &gorillaConn{conn: c}, nil
}

func wsURL(target string) string {
	if rest, ok := strings.CutPrefix(target, "http://"); ok {
		return "ws://" + rest
	}
	if rest, ok := strings.CutPrefix(target, "https://"); ok {
		return "wss://" + rest
	}
	return target
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (c *gorillaConn) ReadMessage(ctx context.Context) (MessageType, []byte, error) {
	// gorilla reads are not context aware; closing the socket unblocks them.
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	typ, r, err := c.conn.NextReader()
	var data []byte
	if err == nil {
		data, err = io.ReadAll(r)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, gorillaError(err)
	}

	if typ == websocket.BinaryMessage {
		return MessageBinary, data, nil
	}
	return MessageText, data, nil
}

func (c *gorillaConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	return c.conn.Close()
}

func gorillaError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: status %d %s", ErrRemoteClosed, ce.Code, ce.Text)
	}
	if errors.Is(err, websocket.ErrReadLimit) {
		return fmt.Errorf("%w: %w", ErrMessageTooLarge, err)
	}
	return err
}
