package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errDialRefused = errors.New("dial refused")

type fakeMessage struct {
	typ  MessageType
	data string
}

func text(s string) fakeMessage { return fakeMessage{typ: MessageText, data: s} }

// fakeConn replays its messages, then returns end, or blocks until the
// context is cancelled when end is nil.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []fakeMessage
	end    error
	closed atomic.Bool
}

func (c *fakeConn) ReadMessage(ctx context.Context) (MessageType, []byte, error) {
	c.mu.Lock()
	if len(c.msgs) > 0 {
		m := c.msgs[0]
		c.msgs = c.msgs[1:]
		c.mu.Unlock()
		return m.typ, []byte(m.data), nil
	}
	c.mu.Unlock()

	if c.end != nil {
		return 0, nil, c.end
	}
	<-ctx.Done()
	return 0, nil, ctx.Err()
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// fakeDialer hands out conns in order. A nil entry is a failed dial; once
// the list runs out every dial fails.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials []time.Time
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials = append(d.dials, time.Now())
	if len(d.conns) == 0 {
		return nil, errDialRefused
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	if c == nil {
		return nil, errDialRefused
	}
	return c, nil
}

func (d *fakeDialer) dialTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.dials...)
}

// endlessConn produces text messages until the context is cancelled.
type endlessConn struct{}

func (endlessConn) ReadMessage(ctx context.Context) (MessageType, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	return MessageText, []byte("tick"), nil
}

func (endlessConn) Close() error { return nil }

type endlessDialer struct{}

func (endlessDialer) Dial(context.Context, string) (Conn, error) { return endlessConn{}, nil }
