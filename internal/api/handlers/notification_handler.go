package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oreforge/oreforge-server/internal/core/services"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// NotificationHandler bridges a wallet's notifier subscription onto a
// websocket so connected UI clients see transitions as they commit.
type NotificationHandler struct {
	notifier *services.NotifierService
	upgrader websocket.Upgrader
}

func NewNotificationHandler(notifier *services.NotifierService) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *NotificationHandler) Subscribe(c *gin.Context) {
	log := logger.WithComponent("notification_handler")
	wallet := c.Param("wallet")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Msg("Websocket upgrade failed")
		return
	}

	events, cancel := h.notifier.Subscribe(wallet)
	defer cancel()
	defer func() {
		_ = conn.Close()
	}()

	log.Info().Str("wallet", wallet).Msg("Notification socket opened")

	// Reader goroutine exists only to observe the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Str("wallet", wallet).Msg("Notification socket write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Info().Str("wallet", wallet).Msg("Notification socket closed by client")
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
