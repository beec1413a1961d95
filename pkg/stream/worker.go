package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Worker owns one connection to target and feeds its messages into a Queue.
// A Worker is run once.
type Worker struct {
	target string
	queue  *Queue
	cfg    config
	log    *slog.Logger

	state    atomic.Int32
	attempts atomic.Int64
}

// NewWorker creates a worker that pushes into queue. The target must be a
// canonical URL that has already passed the allow list.
func NewWorker(target string, queue *Queue, opts ...Option) *Worker {
	cfg := newConfig(opts)
	w := &Worker{
		target: target,
		queue:  queue,
		cfg:    cfg,
		log:    cfg.logger.With("target", target),
	}
	w.state.Store(int32(StateConnecting))
	return w
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Attempts returns the number of dials started so far.
func (w *Worker) Attempts() int64 {
	return w.attempts.Load()
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Run dials, reads and reconnects until ctx is cancelled, in which case it
// returns nil. Transport failures never escape Run; the only error it returns
// is ErrRetriesExhausted when WithMaxRetries is set.
func (w *Worker) Run(ctx context.Context) error {
	defer w.setState(StateStopped)

	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		w.setState(StateConnecting)
		attempt := w.attempts.Add(1)
		w.cfg.metrics.connectAttempt()

		conn, err := w.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			w.cfg.metrics.connectFailure()
			w.log.Warn("connection attempt failed", "attempt", attempt, "error", err)
			if w.cfg.maxRetries > 0 && failures >= w.cfg.maxRetries {
				return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, failures, err)
			}
		} else {
			failures = 0
			w.setState(StateOpen)
			w.cfg.metrics.connectionOpened()
			w.log.Info("connected", "attempt", attempt)

			err = w.receive(ctx, conn)
			_ = conn.Close()
			w.cfg.metrics.connectionClosed()

			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, ErrRemoteClosed):
				w.log.Info("connection closed by remote", "reason", err)
			case errors.Is(err, ErrInvalidUTF8):
				w.log.Warn("invalid text message, reconnecting", "error", err)
			case errors.Is(err, ErrMessageTooLarge):
				w.cfg.metrics.dropped(DropTooLarge)
				w.log.Warn("message too large, reconnecting", "limit", w.cfg.maxMessageSize)
			default:
				w.log.Warn("connection lost", "error", err)
			}
		}

		w.setState(StateReconnectWait)
		if !sleep(ctx, w.cfg.reconnectDelay) {
			return nil
		}
	}
}

func (w *Worker) dial(ctx context.Context) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, w.cfg.dialTimeout)
	defer cancel()
	return w.cfg.dialer.Dial(dialCtx, w.target)
}

// receive reads until the connection fails. It always returns a non-nil error.
func (w *Worker) receive(ctx context.Context, conn Conn) error {
	for {
		typ, data, err := conn.ReadMessage(ctx)
		if err != nil {
			return err
		}

		if typ != MessageText {
			w.cfg.metrics.dropped(DropBinary)
			w.log.Debug("skipping non-text message", "type", typ.String(), "size", len(data))
			continue
		}
		if limit := w.cfg.maxMessageSize; limit > 0 && int64(len(data)) > limit {
			return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
		}

		// A client must fail the connection on a text frame that is not UTF-8.
		if !utf8.Valid(data) {
			w.cfg.metrics.dropped(DropInvalidUTF8)
			return fmt.Errorf("%w: %d bytes", ErrInvalidUTF8, len(data))
		}

		if err := w.queue.Push(string(data)); err != nil {
			w.cfg.metrics.dropped(DropQueueFull)
			w.log.Warn("dropping message", "error", err, "size", len(data))
			continue
		}
		w.cfg.metrics.received(len(data))
		w.cfg.metrics.setQueueDepth(w.queue.Len())
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
