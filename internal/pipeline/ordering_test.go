package pipeline

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/models"
)

func TestOrderingNonDecreasing(t *testing.T) {
	q := NewOrdering()

	timestamps := []int64{50, 10, 40, 10, 30, 20, 60, 10}
	for _, ts := range timestamps {
		q.Push(models.Utterance{Timestamp: ts, MeetingID: "m", UserID: "u", Text: "x"})
	}

	var prev int64 = -1
	for range timestamps {
		u, ok := q.Pop()
		if !ok {
			t.Fatal("Pop returned closed before queue drained")
		}
		if u.Timestamp < prev {
			t.Errorf("dequeue sequence decreased: %d after %d", u.Timestamp, prev)
		}
		prev = u.Timestamp
	}
}

func TestOrderingTieBreak(t *testing.T) {
	q := NewOrdering()

	q.Push(models.Utterance{Timestamp: 5, MeetingID: "m2", UserID: "u1"})
	q.Push(models.Utterance{Timestamp: 5, MeetingID: "m1", UserID: "u2"})
	q.Push(models.Utterance{Timestamp: 5, MeetingID: "m1", UserID: "u1"})

	want := []struct{ meeting, user string }{
		{"m1", "u1"},
		{"m1", "u2"},
		{"m2", "u1"},
	}
	for i, w := range want {
		u, ok := q.Pop()
		if !ok {
			t.Fatal("unexpected close")
		}
		if u.MeetingID != w.meeting || u.UserID != w.user {
			t.Errorf("pop %d = (%s,%s), want (%s,%s)", i, u.MeetingID, u.UserID, w.meeting, w.user)
		}
	}
}

func TestOrderingConcurrentProducers(t *testing.T) {
	q := NewOrdering()
	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func(p int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(p)))
			for range perProducer {
				q.Push(models.Utterance{Timestamp: int64(r.Intn(1000)), MeetingID: "m", UserID: "u"})
			}
		}(p)
	}
	wg.Wait()

	var prev int64 = -1
	for range producers * perProducer {
		u, ok := q.Pop()
		if !ok {
			t.Fatal("queue closed early")
		}
		if u.Timestamp < prev {
			t.Fatalf("out of order: %d after %d", u.Timestamp, prev)
		}
		prev = u.Timestamp
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestOrderingBlockingPop(t *testing.T) {
	q := NewOrdering()
	done := make(chan models.Utterance, 1)

	go func() {
		u, ok := q.Pop()
		if ok {
			done <- u
		}
	}()

	// Give the consumer a chance to block first.
	time.Sleep(20 * time.Millisecond)
	q.Push(models.Utterance{Timestamp: 7})

	select {
	case u := <-done:
		if u.Timestamp != 7 {
			t.Errorf("Timestamp = %d, want 7", u.Timestamp)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestOrderingCloseUnblocks(t *testing.T) {
	q := NewOrdering()
	done := make(chan bool, 1)

	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop on closed empty queue must report closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Pop")
	}

	// Pushes after close are dropped.
	q.Push(models.Utterance{Timestamp: 1})
	if q.Len() != 0 {
		t.Errorf("Len after post-close push = %d, want 0", q.Len())
	}
}
