package stream

import (
	"context"
	"sync"
)

// Manager runs one Worker in the background and exposes its queue. The
// owner must call Stop when the connection is no longer wanted.
type Manager struct {
	worker  *Worker
	queue   *Queue
	metrics *Metrics
	cancel  context.CancelFunc
	done    chan struct{}
	err     error

	stopOnce sync.Once
}

// Start launches a worker for target and returns immediately. Cancelling ctx
// has the same effect as Stop, except that it does not wait.
func Start(ctx context.Context, target string, opts ...Option) *Manager {
	cfg := newConfig(opts)
	queue := NewQueue(WithMaxDepth(cfg.maxQueueDepth))

	ctx, cancel := context.WithCancel(ctx)
	m := &Manager{
		worker:  NewWorker(target, queue, opts...),
		queue:   queue,
		metrics: cfg.metrics,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(m.done)
		defer cancel()
		m.err = m.worker.Run(ctx)
	}()

	return m
}

// Drain returns every message received since the previous call, oldest
// first. It never blocks and is still usable after Stop.
func (m *Manager) Drain() []string {
	msgs := m.queue.DrainAll()
	if len(msgs) > 0 {
		m.metrics.setQueueDepth(m.queue.Len())
	}
	return msgs
}

// Stop cancels the worker, which closes its connection, and waits for it to
// exit. No message is queued after Stop returns. Stop is idempotent.
func (m *Manager) Stop() {
	m.stopOnce.Do(m.cancel)
	<-m.done
}

// Done is closed once the worker has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the worker's terminal error. It is nil while the worker runs
// and after a normal stop.
func (m *Manager) Err() error {
	select {
	case <-m.done:
		return m.err
	default:
		return nil
	}
}

// State returns the worker's lifecycle state.
func (m *Manager) State() State {
	return m.worker.State()
}

// Attempts returns the number of dials started so far.
func (m *Manager) Attempts() int64 {
	return m.worker.Attempts()
}
