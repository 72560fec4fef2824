package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens in the CORS layer; the feed carries only
	// tenant-scoped change notifications for an already authenticated user.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream upgrades the request and subscribes the client to its
// tenant's change feed. The connection lives until the client goes away;
// the read loop exists only to notice that.
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger := requestLogger(c, s.log)
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := s.hub.Subscribe(tenantID(c), conn)
	logger := requestLogger(c, s.log)
	logger.Debug().Str("tenant_id", tenantID(c)).Msg("feed client subscribed")

	go func() {
		defer s.hub.Unsubscribe(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
