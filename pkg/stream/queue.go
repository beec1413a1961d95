package stream

import "sync"

// Queue is a FIFO of complete text messages shared by one producer and one
// consumer. It is unbounded unless WithMaxDepth is given. Push never blocks
// on the consumer.
type Queue struct {
	mu       sync.Mutex
	items    []string
	maxDepth int
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithMaxDepth caps the number of undrained messages. Zero means unbounded.
func WithMaxDepth(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.maxDepth = n
		}
	}
}

// NewQueue creates an empty queue.
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends msg. It returns ErrQueueFull, dropping msg, only when a
// maximum depth is set and reached.
func (q *Queue) Push(msg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxDepth > 0 && len(q.items) >= q.maxDepth {
		return ErrQueueFull
	}
	q.items = append(q.items, msg)
	return nil
}

// DrainAll removes and returns everything queued, oldest first. It returns
// nil when the queue is empty.
func (q *Queue) DrainAll() []string {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len returns the number of undrained messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
