package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"msgboard/internal/notify"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

type Subscriber interface {
	Subscribe() (*notify.Subscription, error)
}

// SocketHandler streams notification events to websocket listeners. Listeners
// only receive events published after they connect.
type SocketHandler struct {
	hub        Subscriber
	upgrader   websocket.Upgrader
	log        logrus.FieldLogger
	pingPeriod time.Duration
}

func NewSocketHandler(hub Subscriber, log logrus.FieldLogger) *SocketHandler {
	return &SocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:        log.WithField("component", "socket_handler"),
		pingPeriod: pingPeriod,
	}
}

func (h *SocketHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub, err := h.hub.Subscribe()
	if err != nil {
		h.log.WithError(err).Warn("subscribe listener failed")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return
	}
	defer sub.Close()

	log := h.log.WithField("remote", c.ClientIP())
	log.Debug("listener connected")
	defer log.Debug("listener disconnected")

	gone := make(chan struct{})
	go h.readPump(conn, gone)

	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case event, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.WithError(err).Debug("write event failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames and keeps the read deadline fresh on pong.
// It closes gone once the peer disconnects or stops answering pings.
func (h *SocketHandler) readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
