package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	ws "github.com/coder/websocket"
)

// CoderDialer dials with github.com/coder/websocket.
type CoderDialer struct {
	// HTTPClient performs the handshake. Nil uses http.DefaultClient.
	HTTPClient *http.Client
	// Header is sent with the handshake request.
	Header http.Header
	// MaxMessageSize bounds one reassembled message. Zero means unbounded.
	MaxMessageSize int64
}

// Dial implements Dialer.
func (d *CoderDialer) Dial(ctx context.Context, target string) (Conn, error) {
	c, _, err := ws.Dial(ctx, target, &ws.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: d.Header,
	})
	if err != nil {
		return nil, err
	}

	// The library default is 32 KiB. One byte over the bound lets us tell
	// an oversize message apart from a broken connection.
	if d.MaxMessageSize > 0 {
		c.SetReadLimit(d.MaxMessageSize + 1)
	} else {
		c.SetReadLimit(-1)
	}

	return &coderConn{conn: c, limit: d.MaxMessageSize}, nil
}

type coderConn struct {
	conn  *ws.Conn
	limit int64
}

func (c *coderConn) ReadMessage(ctx context.Context) (MessageType, []byte, error) {
	typ, r, err := c.conn.Reader(ctx)
	if err != nil {
		return 0, nil, coderError(err)
	}

	if c.limit > 0 {
		r = io.LimitReader(r, c.limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, coderError(err)
	}
	if c.limit > 0 && int64(len(data)) > c.limit {
		return 0, nil, fmt.Errorf("%w: exceeds %d bytes", ErrMessageTooLarge, c.limit)
	}

	if typ == ws.MessageBinary {
		return MessageBinary, data, nil
	}
	return MessageText, data, nil
}

func (c *coderConn) Close() error {
	return c.conn.CloseNow()
}

func coderError(err error) error {
	var ce ws.CloseError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: status %d %s", ErrRemoteClosed, ce.Code, ce.Reason)
	}
	return err
}
