package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"victoweb/hub"
)

// runStream drives the SSE handler against a cancellable request and returns
// the recorded body once the handler exits.
func runStream(t *testing.T, events Hub, heartbeat time.Duration, during func()) (string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/admin/chat/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	done := make(chan error, 1)
	go func() {
		done <- streamEvents(events, log.New(), heartbeat)(c)
	}()

	// Give the handler time to register before the scenario runs.
	time.Sleep(100 * time.Millisecond)
	during()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream handler returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not exit after disconnect")
	}
	return rec.Body.String(), rec
}

func TestStreamHeaders(t *testing.T) {
	_, rec := runStream(t, hub.New(), time.Hour, func() {})

	if got := rec.Header().Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Fatalf("expected proxy buffering disabled, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStreamInitialHeartbeat(t *testing.T) {
	body, _ := runStream(t, hub.New(), time.Hour, func() {})

	if !strings.HasPrefix(body, "event: heartbeat\ndata: ") {
		t.Fatalf("expected an immediate heartbeat frame, got %q", body)
	}
	frame := strings.SplitN(body, "\n\n", 2)[0]
	payload := strings.TrimPrefix(strings.SplitN(frame, "\n", 2)[1], "data: ")
	if _, err := strconv.ParseInt(payload, 10, 64); err != nil {
		t.Fatalf("expected a numeric heartbeat payload, got %q", payload)
	}
}

func TestStreamRelaysBroadcasts(t *testing.T) {
	h := hub.New()
	body, _ := runStream(t, h, time.Hour, func() {
		h.Broadcast(hub.TopicEvent(hub.TopicChat))
		h.Broadcast(hub.TopicEvent(hub.TopicTasks))
		time.Sleep(100 * time.Millisecond)
	})

	if !strings.Contains(body, "event: chat\n") {
		t.Fatalf("expected a chat frame, got %q", body)
	}
	if !strings.Contains(body, "event: tasks\n") {
		t.Fatalf("expected a tasks frame, got %q", body)
	}
	if strings.Index(body, "event: chat\n") > strings.Index(body, "event: tasks\n") {
		t.Fatal("expected frames in broadcast order")
	}
}

func TestStreamPeriodicHeartbeat(t *testing.T) {
	body, _ := runStream(t, hub.New(), 20*time.Millisecond, func() {
		time.Sleep(150 * time.Millisecond)
	})

	if got := strings.Count(body, "event: heartbeat\n"); got < 3 {
		t.Fatalf("expected repeated heartbeats on an idle stream, got %d", got)
	}
}

func TestStreamQuietBetweenHeartbeats(t *testing.T) {
	// A long heartbeat and no broadcasts: only the initial frame goes out.
	body, _ := runStream(t, hub.New(), time.Hour, func() {
		time.Sleep(50 * time.Millisecond)
	})

	if got := strings.Count(body, "\n\n"); got != 1 {
		t.Fatalf("expected exactly one frame, got %d in %q", got, body)
	}
}
