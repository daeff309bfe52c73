package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 * 1024
)

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Handler upgrades authenticated requests to relay connections.
type Handler struct {
	relay    *Relay
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler accepts upgrades from the given origins. A "*" entry, or a
// request without an Origin header, is always accepted.
func NewHandler(relay *Relay, origins []string, log *zap.Logger) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		relay: relay,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Connect expects the auth middleware to have set userID.
func (h *Handler) Connect(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized to access this route"})
		return
	}
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("relay: upgrade failed", zap.Error(err))
		return
	}
	ws.SetReadLimit(maxFrameSize)

	client := NewClient(uuid.New().String(), userID)
	h.relay.hub.Register(client)
	h.log.Debug("relay: client connected", zap.String("client", client.ID), zap.String("user", userID))

	go writePump(client, ws)
	h.readPump(context.Background(), client, ws)
}

func (h *Handler) readPump(ctx context.Context, client *Client, conn Conn) {
	defer func() {
		h.relay.hub.Unregister(client)
		h.log.Debug("relay: client disconnected", zap.String("client", client.ID))
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.relay.Handle(ctx, client, message)
	}
}

func writePump(client *Client, ws *websocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
