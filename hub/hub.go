// Package hub implements the in-process publish/subscribe broker behind the
// admin hub's live updates. Writers broadcast a topic event after each store
// mutation; every open stream connection holds one bounded channel and relays
// whatever arrives. Events are cues to re-fetch, never payloads, so a slow
// consumer that overflows its mailbox simply misses a cue and converges on
// the next one.
package hub

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Topics understood by stream consumers.
const (
	TopicChat  = "chat"
	TopicTasks = "tasks"

	eventHeartbeat = "heartbeat"
)

// mailboxSize bounds the number of undelivered events per connection.
// Overflow drops, it never blocks the broadcaster.
const mailboxSize = 4

// Hub fans events out to registered subscriber channels. The zero value is
// not usable; call New.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func New() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

// Register creates a bounded mailbox and adds it to the subscriber set.
func (h *Hub) Register() chan string {
	ch := make(chan string, mailboxSize)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unregister removes the channel from the subscriber set and drains anything
// still pending. Unregistering an unknown channel is a no-op.
func (h *Hub) Unregister(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// Broadcast delivers event to every channel registered at the moment of the
// call. Delivery happens against a snapshot so a slow receiver never holds up
// membership changes, and a full mailbox drops the event for that receiver.
func (h *Hub) Broadcast(event string) {
	h.mu.Lock()
	clients := make([]chan string, 0, len(h.clients))
	for ch := range h.clients {
		clients = append(clients, ch)
	}
	h.mu.Unlock()
	for _, ch := range clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// FormatEvent renders a single SSE frame. SSE forbids a frame with an empty
// data line from carrying meaning, so blank payloads become "noop".
func FormatEvent(eventType, data string) string {
	payload := data
	if strings.TrimSpace(payload) == "" {
		payload = "noop"
	}
	return "event: " + eventType + "\ndata: " + payload + "\n\n"
}

// TopicEvent builds the frame broadcast after a mutation. The payload is an
// opaque timestamp token; consumers only treat its arrival as a refresh cue.
func TopicEvent(topic string) string {
	return FormatEvent(topic, strconv.FormatInt(time.Now().UnixNano(), 10))
}

// HeartbeatEvent keeps idle connections alive through proxies.
func HeartbeatEvent() string {
	return FormatEvent(eventHeartbeat, strconv.FormatInt(time.Now().Unix(), 10))
}
