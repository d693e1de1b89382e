package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"victoweb/hub"
)

// streamEvents is the SSE gateway. Each connection registers a mailbox on the
// hub and relays frames until the client goes away. A heartbeat frame goes out
// immediately and then whenever heartbeat elapses without a hub event, so
// proxies never see an idle connection.
func streamEvents(events Hub, logger *log.Logger, heartbeat time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		res := c.Response()
		flusher, ok := res.Writer.(http.Flusher)
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
		}

		res.Header().Set(echo.HeaderContentType, "text/event-stream")
		res.Header().Set(echo.HeaderCacheControl, "no-cache")
		res.Header().Set(echo.HeaderConnection, "keep-alive")
		res.Header().Set("X-Accel-Buffering", "no")
		res.WriteHeader(http.StatusOK)

		connID := uuid.NewString()
		viewer := viewerFrom(c)
		fields := log.Fields{"connection": connID, "viewer": viewer.ID}
		logger.WithFields(fields).Debug("stream connected")

		mailbox := events.Register()
		defer events.Unregister(mailbox)

		write := func(frame string) error {
			if _, err := res.Write([]byte(frame)); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		if err := write(hub.HeartbeatEvent()); err != nil {
			return nil
		}

		timer := time.NewTimer(heartbeat)
		defer timer.Stop()
		done := c.Request().Context().Done()

		for {
			select {
			case <-done:
				logger.WithFields(fields).Debug("stream disconnected")
				return nil
			case frame := <-mailbox:
				if err := write(frame); err != nil {
					logger.WithFields(fields).WithError(err).Debug("stream write failed")
					return nil
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(heartbeat)
			case <-timer.C:
				if err := write(hub.HeartbeatEvent()); err != nil {
					logger.WithFields(fields).WithError(err).Debug("stream write failed")
					return nil
				}
				timer.Reset(heartbeat)
			}
		}
	}
}
