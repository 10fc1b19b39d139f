package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/moneshrallapalli/sentinel/internal/logger"
	"github.com/moneshrallapalli/sentinel/internal/notification"
)

// maxInboundMessageBytes caps what a streaming client may send; the
// channels are broadcast-only, inbound frames are drained and ignored.
const maxInboundMessageBytes = 4096

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Subscribers carry no credentials and receive broadcast data only.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamChannel upgrades the connection and subscribes it to one
// notification channel. The read loop exists only to detect disconnects.
func (c *Controller) StreamChannel(ctx echo.Context) error {
	channel := ctx.Param("channel")
	if !notification.ValidChannel(channel) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Unknown channel"})
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		c.log.Warn("websocket upgrade failed",
			logger.String("channel", channel),
			logger.Error(err))
		return nil
	}

	sub := notification.NewWSSubscriber(conn)
	if err := c.notifier.Connect(channel, sub); err != nil {
		_ = conn.Close()
		return nil
	}

	conn.SetReadLimit(maxInboundMessageBytes)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	c.notifier.Disconnect(channel, sub.ID())
	return nil
}
