package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverFrame is one message written by the test server. A CloseMessage
// frame ends the script.
type serverFrame struct {
	typ  int
	data string
}

// newScriptServer starts a server that plays script[n] to the n-th client
// connection (the last script repeats) and then keeps reading until the
// client goes away. A small write buffer forces gorilla to split each
// message into many frames.
func newScriptServer(t *testing.T, scripts ...[]serverFrame) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	upgrader := websocket.Upgrader{WriteBufferSize: 16}
	var conns atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		n := int(conns.Add(1)) - 1
		if n >= len(scripts) {
			n = len(scripts) - 1
		}
		for _, f := range scripts[n] {
			if f.typ == websocket.CloseMessage {
				_ = c.WriteControl(websocket.CloseMessage, []byte(f.data), time.Now().Add(time.Second))
				break
			}
			if err := c.WriteMessage(f.typ, []byte(f.data)); err != nil {
				return
			}
		}
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func wsTarget(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func closeFrame(code int, reason string) serverFrame {
	return serverFrame{typ: websocket.CloseMessage, data: string(websocket.FormatCloseMessage(code, reason))}
}

var transports = []string{TransportCoder, TransportGorilla}

func TestTransport_ReassemblesFragmentedMessages(t *testing.T) {
	big := strings.Repeat("0123456789abcdef", 40)
	srv, _ := newScriptServer(t, []serverFrame{
		{typ: websocket.TextMessage, data: big},
		{typ: websocket.TextMessage, data: "small"},
		closeFrame(websocket.CloseNormalClosure, "bye"),
	})

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			d, err := DialerFor(name, 0)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := d.Dial(ctx, wsTarget(srv))
			require.NoError(t, err)
			defer conn.Close()

			typ, data, err := conn.ReadMessage(ctx)
			require.NoError(t, err)
			assert.Equal(t, MessageText, typ)
			assert.Equal(t, big, string(data))

			_, data, err = conn.ReadMessage(ctx)
			require.NoError(t, err)
			assert.Equal(t, "small", string(data))

			_, _, err = conn.ReadMessage(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRemoteClosed)
			assert.Contains(t, err.Error(), "bye")
		})
	}
}

func TestTransport_LargeMessageUnbounded(t *testing.T) {
	// Larger than the coder library's default read limit.
	huge := strings.Repeat("x", 100_000)
	srv, _ := newScriptServer(t, []serverFrame{{typ: websocket.TextMessage, data: huge}})

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			d, err := DialerFor(name, 0)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := d.Dial(ctx, wsTarget(srv))
			require.NoError(t, err)
			defer conn.Close()

			_, data, err := conn.ReadMessage(ctx)
			require.NoError(t, err)
			assert.Len(t, data, len(huge))
		})
	}
}

func TestTransport_MaxMessageSize(t *testing.T) {
	srv, _ := newScriptServer(t, []serverFrame{
		{typ: websocket.TextMessage, data: strings.Repeat("y", 200)},
	})

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			d, err := DialerFor(name, 50)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := d.Dial(ctx, wsTarget(srv))
			require.NoError(t, err)
			defer conn.Close()

			_, _, err = conn.ReadMessage(ctx)
			assert.ErrorIs(t, err, ErrMessageTooLarge)
		})
	}
}

func TestTransport_BinaryMessage(t *testing.T) {
	srv, _ := newScriptServer(t, []serverFrame{{typ: websocket.BinaryMessage, data: "\x01\x02\x03"}})

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			d, err := DialerFor(name, 0)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := d.Dial(ctx, wsTarget(srv))
			require.NoError(t, err)
			defer conn.Close()

			typ, data, err := conn.ReadMessage(ctx)
			require.NoError(t, err)
			assert.Equal(t, MessageBinary, typ)
			assert.Equal(t, []byte{1, 2, 3}, data)
		})
	}
}

func TestTransport_CancelUnblocksRead(t *testing.T) {
	srv, _ := newScriptServer(t, []serverFrame{})

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			d, err := DialerFor(name, 0)
			require.NoError(t, err)

			conn, err := d.Dial(context.Background(), wsTarget(srv))
			require.NoError(t, err)
			defer conn.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, _, err = conn.ReadMessage(ctx)
			require.Error(t, err)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestTransport_HTTPSchemeTarget(t *testing.T) {
	srv, _ := newScriptServer(t, []serverFrame{{typ: websocket.TextMessage, data: "hi"}})

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			d, err := DialerFor(name, 0)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := d.Dial(ctx, srv.URL)
			require.NoError(t, err)
			defer conn.Close()

			_, data, err := conn.ReadMessage(ctx)
			require.NoError(t, err)
			assert.Equal(t, "hi", string(data))
		})
	}
}

func TestDialerFor(t *testing.T) {
	d, err := DialerFor("", 0)
	require.NoError(t, err)
	assert.IsType(t, &CoderDialer{}, d)

	d, err = DialerFor("Gorilla", 10)
	require.NoError(t, err)
	require.IsType(t, &GorillaDialer{}, d)
	assert.EqualValues(t, 10, d.(*GorillaDialer).MaxMessageSize)

	_, err = DialerFor("quic", 0)
	assert.ErrorIs(t, err, ErrUnknownTransport)
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://host/p", wsURL("http://host/p"))
	assert.Equal(t, "wss://host/p", wsURL("https://host/p"))
	assert.Equal(t, "wss://host/p", wsURL("wss://host/p"))
}

func TestTransport_InvalidUTF8FailsConnection(t *testing.T) {
	srv, conns := newScriptServer(t,
		[]serverFrame{
			{typ: websocket.TextMessage, data: "before"},
			{typ: websocket.TextMessage, data: "ok\xff\xfe"},
			{typ: websocket.TextMessage, data: "never queued"},
		},
		[]serverFrame{
			{typ: websocket.TextMessage, data: "after"},
		},
	)

	for _, name := range transports {
		t.Run(name, func(t *testing.T) {
			conns.Store(0)
			d, err := DialerFor(name, 0)
			require.NoError(t, err)
			metrics, err := NewMetrics(prometheus.NewRegistry())
			require.NoError(t, err)

			m := Start(context.Background(), wsTarget(srv),
				WithDialer(d),
				WithReconnectDelay(10*time.Millisecond),
				WithMetrics(metrics),
			)
			defer m.Stop()

			var got []string
			require.Eventually(t, func() bool {
				got = append(got, m.Drain()...)
				return len(got) >= 2
			}, 5*time.Second, 5*time.Millisecond)

			assert.Equal(t, []string{"before", "after"}, got)
			assert.GreaterOrEqual(t, conns.Load(), int32(2))
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.messagesDropped.WithLabelValues(DropInvalidUTF8)), 0)
		})
	}
}
