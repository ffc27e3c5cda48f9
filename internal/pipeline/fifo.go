package pipeline

import "sync"

// FIFO is an unbounded queue delivering items in strict arrival order.
// Producers never block; sustained overload manifests as queue growth, not
// backpressure. Close unblocks any waiting consumer.
type FIFO[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

// NewFIFO creates an empty FIFO queue.
func NewFIFO[T any]() *FIFO[T] {
	q := &FIFO[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item. Items pushed after Close are dropped.
func (q *FIFO[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
	q.cond.Signal()
}

// Pop blocks until an item is available or the queue is closed. The second
// return value is false once the queue is closed and drained.
func (q *FIFO[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Close marks the queue closed and wakes all waiting consumers. Items already
// queued are still delivered.
func (q *FIFO[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
