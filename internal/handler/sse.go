package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const sseKeepAlive = 25 * time.Second

// sseEvent is one frame on a server-sent event stream.
type sseEvent struct {
	name string
	data interface{}
}

// latestOnly is a one-slot mailbox: a new event replaces an unsent one. Push
// must only be called from a single goroutine.
type latestOnly chan sseEvent

func (l latestOnly) Push(ev sseEvent) {
	select {
	case <-l:
	default:
	}
	l <- ev
}

// serveSSE streams events from ch until the client goes away. stop is called
// on return.
func serveSSE(c echo.Context, ch latestOnly, stop func()) error {
	defer stop()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	fmt.Fprint(res, ":\n\n")
	res.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()
	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ":\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev := <-ch:
			payload, err := json.Marshal(ev.data)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.name, payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
