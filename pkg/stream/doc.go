// Package stream keeps a single WebSocket connection alive and buffers the
// text messages it receives until a consumer drains them.
//
// A Worker owns the connection. It dials, reads complete messages into a
// Queue and, when the transport fails or the peer closes, waits a fixed
// back-off before dialing again. A Manager runs one Worker in its own
// goroutine and is the handle callers keep:
//
//	m := stream.Start(ctx, "wss://api.example.org/live",
//		stream.WithReconnectDelay(2*time.Second),
//		stream.WithLogger(logger),
//	)
//	defer m.Stop()
//
//	for range ticker.C {
//		for _, msg := range m.Drain() {
//			handle(msg)
//		}
//	}
//
// Drain never blocks. Messages come out in the order they were received,
// across reconnects. The target must already be allowed; this package does
// not consult an allow list.
//
// Two transports are provided: CoderDialer (github.com/coder/websocket, the
// default) and GorillaDialer (github.com/gorilla/websocket).
package stream
