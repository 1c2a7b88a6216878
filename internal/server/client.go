package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/services"
	"pulse-chat/internal/transport/httpdto"
	"pulse-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is one websocket connection for one user. The write pump forwards
// hub envelopes; the read pump accepts typing pulses and presence
// heartbeats, so an open socket doubles as the presence source.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   ids.UserID
	send     chan []byte
	typing   *services.TypingService
	presence *services.PresenceService
	log      *logger.Logger
}

// clientFrame is what the browser sends upstream.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		// slow consumer, drop the frame; queries re-derive missed state
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		// Only the user's last socket closing means they actually left.
		if !c.hub.HasConnections(c.userID) {
			_ = c.presence.SetOffline(context.Background(), c.userID)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "typing":
			convID, err := ids.ParseConversationID(frame.ConversationID)
			if err != nil {
				continue
			}
			_ = c.typing.SetTyping(ctx, convID, c.userID)
		case "heartbeat":
			_ = c.presence.Heartbeat(ctx, c.userID)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WSHandler upgrades authenticated requests into hub clients.
type WSHandler struct {
	hub      *Hub
	typing   *services.TypingService
	presence *services.PresenceService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, typing *services.TypingService, presence *services.PresenceService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		typing:   typing,
		presence: presence,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Serve(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Warnf("ws upgrade failed: %v", err)
		}
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		userID:   userID,
		send:     make(chan []byte, 64),
		typing:   h.typing,
		presence: h.presence,
		log:      h.log,
	}
	h.hub.register <- client

	// Connecting counts as a beat.
	_ = h.presence.Heartbeat(c.Request.Context(), userID)

	go client.writePump()
	go client.readPump(context.Background())
}
