package logic

import (
	"math"
	"testing"
	"time"
)

func TestNewEdgeSource(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)
	if e.Window() != 200*time.Millisecond {
		t.Errorf("expected window 200ms, got %v", e.Window())
	}
	if e.State() {
		t.Error("new edge source should start OFF")
	}
	select {
	case <-e.Notify():
		t.Error("unexpected notification before any edge")
	default:
	}
}

func TestEdgeAcceptedAfterWindow(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)

	if !e.OnEdge(1000) {
		t.Fatal("first edge after the window should be accepted")
	}
	if !e.State() {
		t.Error("expected state ON after one accepted edge")
	}

	select {
	case <-e.Notify():
	default:
		t.Error("expected a notification after an accepted edge")
	}
}

func TestEdgeRejectedDuringStartupWindow(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)

	// The reference time starts at zero, so edges inside the first window are noise.
	if e.OnEdge(150) {
		t.Error("edge at 150ms should be rejected")
	}
	if e.OnEdge(200) {
		t.Error("edge at exactly the window should be rejected")
	}
	if !e.OnEdge(201) {
		t.Error("edge just past the window should be accepted")
	}
}

func TestBounceWithinWindowIsIgnored(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)
	e.OnEdge(1000)

	// A burst of bounces must not change the state.
	for _, ms := range []uint32{1001, 1005, 1050, 1100, 1199, 1200} {
		if e.OnEdge(ms) {
			t.Errorf("edge at %dms should be rejected as bounce", ms)
		}
		if !e.State() {
			t.Errorf("state changed on bounce at %dms", ms)
		}
	}

	stats := e.Stats()
	if stats.Accepted != 1 {
		t.Errorf("expected 1 accepted, got %d", stats.Accepted)
	}
	if stats.Rejected != 6 {
		t.Errorf("expected 6 rejected, got %d", stats.Rejected)
	}
}

func TestBounceMeasuredFromLastAcceptedEdge(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)
	e.OnEdge(1000)

	// Rejected edges do not move the reference time.
	e.OnEdge(1150)
	if !e.OnEdge(1201) {
		t.Error("edge 201ms after the last accepted edge should be accepted")
	}
}

func TestSpacedEdgesFlipOncePerEdge(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)

	want := false
	for i := 1; i <= 10; i++ {
		now := uint32(i * 300)
		if !e.OnEdge(now) {
			t.Fatalf("edge %d at %dms should be accepted", i, now)
		}
		want = !want
		if e.State() != want {
			t.Fatalf("edge %d: expected state %v, got %v", i, want, e.State())
		}
	}
}

func TestEdgeWraparound(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)

	nearWrap := uint32(math.MaxUint32 - 50)
	if !e.OnEdge(nearWrap) {
		t.Fatal("edge near wrap should be accepted")
	}

	// 100ms later, after the clock wrapped: still a bounce.
	if e.OnEdge(49) {
		t.Error("edge 100ms later across the wrap should be rejected")
	}

	// 250ms later, after the wrap: a real edge.
	if !e.OnEdge(199) {
		t.Error("edge 250ms later across the wrap should be accepted")
	}
	if e.State() {
		t.Error("expected state OFF after two accepted edges")
	}
}

func TestNotificationsCollapse(t *testing.T) {
	e := NewEdgeSource(200 * time.Millisecond)

	e.OnEdge(1000)
	e.OnEdge(2000)
	e.OnEdge(3000)

	<-e.Notify()
	select {
	case <-e.Notify():
		t.Error("pending notifications should collapse into one")
	default:
	}
	if !e.State() {
		t.Error("expected state ON after three accepted edges")
	}
}

func TestMillisSince(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if got := MillisSince(start, start.Add(1500*time.Millisecond)); got != 1500 {
		t.Errorf("expected 1500, got %d", got)
	}

	// 2^32 ms is roughly 49.7 days; the clock wraps past it.
	wrapped := start.Add(time.Duration(math.MaxUint32)*time.Millisecond + 11*time.Millisecond)
	if got := MillisSince(start, wrapped); got != 10 {
		t.Errorf("expected wrapped clock 10, got %d", got)
	}
}

func TestMillisFromDuration(t *testing.T) {
	if got := MillisFromDuration(2*time.Second + 999*time.Microsecond); got != 2000 {
		t.Errorf("expected 2000, got %d", got)
	}
}
