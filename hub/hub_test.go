package hub

import (
	"strings"
	"sync"
	"testing"
)

func TestBroadcastReachesRegisteredChannels(t *testing.T) {
	h := New()
	a := h.Register()
	b := h.Register()

	h.Broadcast("ev-1")

	for i, ch := range []chan string{a, b} {
		select {
		case got := <-ch:
			if got != "ev-1" {
				t.Fatalf("channel %d: expected ev-1, got %q", i, got)
			}
		default:
			t.Fatalf("channel %d: expected a pending event", i)
		}
	}
}

func TestBroadcastSkipsUnregisteredChannel(t *testing.T) {
	h := New()
	a := h.Register()
	b := h.Register()
	h.Unregister(b)

	h.Broadcast("ev-1")

	if len(a) != 1 {
		t.Fatalf("expected 1 pending event on a, got %d", len(a))
	}
	if len(b) != 0 {
		t.Fatalf("expected no events on unregistered channel, got %d", len(b))
	}
}

func TestBroadcastLateRegistrationMissesEvent(t *testing.T) {
	h := New()
	h.Broadcast("early")
	ch := h.Register()
	if len(ch) != 0 {
		t.Fatalf("expected no events for a channel registered after broadcast, got %d", len(ch))
	}
}

func TestUnregisterIsIdempotentAndDrains(t *testing.T) {
	h := New()
	ch := h.Register()
	h.Broadcast("ev-1")
	h.Broadcast("ev-2")

	h.Unregister(ch)
	if len(ch) != 0 {
		t.Fatalf("expected drained channel, got %d pending", len(ch))
	}
	// Second unregister of the same channel, and one for a channel the hub
	// never saw, must both be no-ops.
	h.Unregister(ch)
	h.Unregister(make(chan string, 1))
}

func TestBroadcastDropsWhenMailboxFull(t *testing.T) {
	h := New()
	ch := h.Register()

	for i := 0; i < mailboxSize+3; i++ {
		h.Broadcast("ev")
	}

	if len(ch) != mailboxSize {
		t.Fatalf("expected %d buffered events, got %d", mailboxSize, len(ch))
	}
}

func TestBroadcastPreservesPerChannelOrder(t *testing.T) {
	h := New()
	ch := h.Register()
	h.Broadcast("first")
	h.Broadcast("second")

	if got := <-ch; got != "first" {
		t.Fatalf("expected first, got %q", got)
	}
	if got := <-ch; got != "second" {
		t.Fatalf("expected second, got %q", got)
	}
}

func TestConcurrentMembershipAndBroadcast(t *testing.T) {
	h := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ch := h.Register()
				h.Unregister(ch)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Broadcast("ev")
			}
		}()
	}
	wg.Wait()

	h.mu.Lock()
	remaining := len(h.clients)
	h.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected empty subscriber set, got %d", remaining)
	}
}

func TestFormatEvent(t *testing.T) {
	if got := FormatEvent("tasks", "123"); got != "event: tasks\ndata: 123\n\n" {
		t.Fatalf("unexpected frame %q", got)
	}
	if got := FormatEvent("chat", "   "); got != "event: chat\ndata: noop\n\n" {
		t.Fatalf("expected noop substitution, got %q", got)
	}
}

func TestHeartbeatEvent(t *testing.T) {
	frame := HeartbeatEvent()
	if !strings.HasPrefix(frame, "event: heartbeat\ndata: ") || !strings.HasSuffix(frame, "\n\n") {
		t.Fatalf("malformed heartbeat frame %q", frame)
	}
	if strings.Contains(frame, "data: \n") {
		t.Fatalf("heartbeat carries an empty payload: %q", frame)
	}
}
