package containers

import "testing"

func TestRingQueue(t *testing.T) {
	rq := NewRingQueue[string](2)

	if !rq.IsEmpty() {
		t.Fatal("new queue should be empty")
	}
	if _, err := rq.Dequeue(); err == nil {
		t.Fatal("dequeue on empty queue must fail")
	}

	if err := rq.Enqueue("a"); err != nil {
		t.Fatal(err)
	}
	if err := rq.Enqueue("b"); err != nil {
		t.Fatal(err)
	}
	if err := rq.Enqueue("c"); err == nil {
		t.Fatal("enqueue on full queue must fail")
	}
	if rq.Len() != 2 {
		t.Fatalf("expected 2 queued, got %d", rq.Len())
	}

	if v, err := rq.Peek(); err != nil || v != "a" {
		t.Fatalf("peek: %v %v", v, err)
	}
	if v, _ := rq.Dequeue(); v != "a" {
		t.Fatalf("dequeue order: %v", v)
	}

	// Wraps around the backing slice.
	if err := rq.Enqueue("c"); err != nil {
		t.Fatal(err)
	}
	if v, _ := rq.Dequeue(); v != "b" {
		t.Fatalf("dequeue order: %v", v)
	}
	if v, _ := rq.Dequeue(); v != "c" {
		t.Fatalf("dequeue order: %v", v)
	}
	if !rq.IsEmpty() {
		t.Fatal("queue should be empty again")
	}
}
