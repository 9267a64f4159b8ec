package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// Access is gated by the admin JWT middleware in front of this handler.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFeedHandler upgrades an authenticated admin request to the live feed.
func LiveFeedHandler(hub *SubmissionHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "realtime not available"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		cl := newClient(hub, conn)
		if !hub.join(cl) {
			conn.Close()
			return
		}

		go cl.writePump()
		cl.readPump()
	}
}
