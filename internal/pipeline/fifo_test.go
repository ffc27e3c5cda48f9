package pipeline

import (
	"testing"
	"time"
)

func TestFIFOArrivalOrder(t *testing.T) {
	q := NewFIFO[int]()
	for i := range 10 {
		q.Push(i)
	}
	for i := range 10 {
		v, ok := q.Pop()
		if !ok {
			t.Fatal("queue closed early")
		}
		if v != i {
			t.Errorf("Pop = %d, want %d", v, i)
		}
	}
}

func TestFIFODrainsAfterClose(t *testing.T) {
	q := NewFIFO[string]()
	q.Push("a")
	q.Push("b")
	q.Close()

	if v, ok := q.Pop(); !ok || v != "a" {
		t.Errorf("Pop = (%q, %v), want (a, true)", v, ok)
	}
	if v, ok := q.Pop(); !ok || v != "b" {
		t.Errorf("Pop = (%q, %v), want (b, true)", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop after drain must report closed")
	}
}

func TestFIFOCloseUnblocksWaiter(t *testing.T) {
	q := NewFIFO[int]()
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
}
