package broadcast

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draftarena/backend/internal/session"
)

// keepAliveInterval is the cadence of the idle-connection keep-alive
// comment, independent of the timer ticker.
const keepAliveInterval = 25 * time.Second

// SessionLookup resolves a session id to its current shaped view, or
// reports that the id is unknown.
type SessionLookup func(sessionID string) (session.ShapedSession, bool)

// StreamHandler opens an SSE connection for a session. Headers, the
// http.Flusher use, the retry preamble, and the keep-alive comment are
// grounded on the reference handleSessionStream SSE handler; the event
// names (snapshot/update/timer/deleted/not_found) are this domain's.
func (h *Hub) StreamHandler(lookup SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.String(http.StatusInternalServerError, "streaming not supported")
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		fmt.Fprintf(c.Writer, "retry: 10000\n\n")
		flusher.Flush()

		shaped, ok := lookup(sessionID)
		if !ok {
			writeEvent(c.Writer, PushNotFound())
			flusher.Flush()
			return
		}

		ch, unsubscribe := h.Subscribe(sessionID, shaped)
		defer unsubscribe()
		writeEvent(c.Writer, newEvent("snapshot", shaped))
		flusher.Flush()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				fmt.Fprintf(c.Writer, ": keep-alive\n\n")
				flusher.Flush()
			case e, ok := <-ch:
				if !ok {
					return
				}
				writeEvent(c.Writer, e)
				flusher.Flush()
				if e.name == "deleted" || e.name == "not_found" {
					return
				}
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, e event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
}
