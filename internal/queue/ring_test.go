package queue

import (
	"testing"
)

func TestRingEmptyPop(t *testing.T) {
	r := newRing[int](5)
	if _, ok := r.pop(); ok {
		t.Error("expected no item from empty ring")
	}
	if got := r.snapshot(); got != nil {
		t.Errorf("expected nil snapshot from empty ring, got %v", got)
	}
}

func TestRingPushAndPop(t *testing.T) {
	r := newRing[int](10)
	for i := 0; i < 5; i++ {
		if !r.push(i) {
			t.Fatalf("push %d: ring reported full", i)
		}
	}

	for i := 0; i < 5; i++ {
		got, ok := r.pop()
		if !ok {
			t.Fatalf("pop %d: ring empty", i)
		}
		if got != i {
			t.Errorf("pop %d: expected %d, got %d", i, i, got)
		}
	}

	if r.len() != 0 {
		t.Errorf("expected len 0 after draining, got %d", r.len())
	}
}

func TestRingRejectsWhenFull(t *testing.T) {
	r := newRing[int](5)
	for i := 0; i < 5; i++ {
		r.push(i)
	}

	if r.push(99) {
		t.Fatal("push into full ring should fail")
	}

	// The rejected item must not disturb the pending ones.
	got := r.snapshot()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("item %d: expected %d, got %d", i, i, v)
		}
	}
}

func TestRingWrapsAround(t *testing.T) {
	r := newRing[int](3)

	// Advance head past the end of the backing array several times.
	next := 0
	for cycle := 0; cycle < 4; cycle++ {
		r.push(next)
		r.push(next + 1)
		for i := 0; i < 2; i++ {
			got, _ := r.pop()
			if got != next+i {
				t.Fatalf("cycle %d pop %d: expected %d, got %d", cycle, i, next+i, got)
			}
		}
		next += 2
	}

	r.push(100)
	r.push(101)
	r.push(102)
	got := r.snapshot()
	want := []int{100, 101, 102}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRingCap(t *testing.T) {
	r := newRing[int](7)
	if r.cap() != 7 {
		t.Errorf("expected cap 7, got %d", r.cap())
	}
}
