package pipeline

import (
	"container/heap"
	"sync"

	"github.com/nguyentantai21042004/meeting-flow/internal/models"
)

// Ordering is the global timestamp-ordered queue that reconciles
// out-of-order arrivals across concurrent producers. Pop always returns the
// utterance with the smallest (timestamp, meeting_id, user_id) key.
//
// The queue is shared across all meetings: an utterance from a sparse meeting
// can wait behind a lower-timestamp utterance from an unrelated busy meeting.
// That cross-meeting head-of-line blocking is a deliberate simplicity
// trade-off of the single global ordering primitive.
type Ordering struct {
	mu     sync.Mutex
	cond   *sync.Cond
	heap   utteranceHeap
	closed bool
}

// NewOrdering creates an empty ordering queue.
func NewOrdering() *Ordering {
	q := &Ordering{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues an utterance. Safe for concurrent producers; never blocks.
// Utterances pushed after Close are dropped.
func (q *Ordering) Push(u models.Utterance) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	heap.Push(&q.heap, u)
	q.cond.Signal()
}

// Pop blocks until an utterance is available or the queue is closed, then
// returns the globally smallest entry. The second return value is false once
// the queue is closed and drained.
func (q *Ordering) Pop() (models.Utterance, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.heap.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.heap.Len() == 0 {
		return models.Utterance{}, false
	}

	return heap.Pop(&q.heap).(models.Utterance), true
}

// Close marks the queue closed and wakes the consumer. Queued utterances are
// still delivered in order.
func (q *Ordering) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued utterances.
func (q *Ordering) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// utteranceHeap orders by timestamp, tie-breaking lexicographically on
// meeting_id then user_id for determinism.
type utteranceHeap []models.Utterance

func (h utteranceHeap) Len() int { return len(h) }

func (h utteranceHeap) Less(i, j int) bool {
	if h[i].Timestamp != h[j].Timestamp {
		return h[i].Timestamp < h[j].Timestamp
	}
	if h[i].MeetingID != h[j].MeetingID {
		return h[i].MeetingID < h[j].MeetingID
	}
	return h[i].UserID < h[j].UserID
}

func (h utteranceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *utteranceHeap) Push(x any) {
	*h = append(*h, x.(models.Utterance))
}

func (h *utteranceHeap) Pop() any {
	old := *h
	n := len(old)
	u := old[n-1]
	*h = old[:n-1]
	return u
}
