package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const sseKeepAlive = 25 * time.Second

func openStream(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set(echo.HeaderConnection, "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx must not buffer the stream
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

func writeEvent(c echo.Context, name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", name, b); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

func writePing(c echo.Context) error {
	if _, err := fmt.Fprint(c.Response(), ": ping\n\n"); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

// stream copies events from ch to the client until either side goes away.
func stream[T any](c echo.Context, name string, ch <-chan T) error {
	openStream(c)
	ping := time.NewTicker(sseKeepAlive)
	defer ping.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeEvent(c, name, v); err != nil {
				return nil
			}
		case <-ping.C:
			if err := writePing(c); err != nil {
				return nil
			}
		}
	}
}
