package relay

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

// Frame events.
const (
	EventJoinRoom       = "join_room"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

const persistTimeout = 5 * time.Second

// Frame is the unit exchanged over a relay connection.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendPayload is the data of a send_message frame. It is forwarded to the
// room unchanged.
type SendPayload struct {
	Room     string `json:"room"`
	Author   string `json:"author"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
	Time     string `json:"time"`
}

// Persister stores a relayed message.
type Persister interface {
	Send(ctx context.Context, senderID, receiverID, content string, sentAt time.Time) (*models.Message, error)
}

// Relay applies the room rules to frames read from clients.
type Relay struct {
	hub    *Hub
	broker Broker
	store  Persister
	log    *zap.Logger
}

func New(hub *Hub, broker Broker, store Persister, log *zap.Logger) *Relay {
	if broker == nil {
		broker = NewLocalBroker(hub)
	}
	return &Relay{hub: hub, broker: broker, store: store, log: log}
}

func (r *Relay) Hub() *Hub { return r.hub }

// Handle processes one raw frame from c. Rule violations are reported to c
// as error frames and never close the connection.
func (r *Relay) Handle(ctx context.Context, c *Client, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		r.reject(c, "malformed frame")
		return
	}
	switch f.Event {
	case EventJoinRoom:
		r.join(c, f.Data)
	case EventSendMessage:
		r.send(ctx, c, f.Data)
	default:
		r.reject(c, "unknown event "+f.Event)
	}
}

func (r *Relay) join(c *Client, data json.RawMessage) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil {
		r.reject(c, "join_room expects a room id")
		return
	}
	if !models.ConversationID(room).Includes(c.UserID) {
		r.reject(c, "cannot join this room")
		return
	}
	r.hub.Join(c, room)
}

func (r *Relay) send(ctx context.Context, c *Client, data json.RawMessage) {
	var p SendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		r.reject(c, "send_message expects a message payload")
		return
	}
	switch {
	case p.Author != c.UserID:
		r.reject(c, "author does not match the connection")
		return
	case p.Receiver == "" || p.Room != string(models.NewConversationID(p.Author, p.Receiver)):
		r.reject(c, "room does not match author and receiver")
		return
	case strings.TrimSpace(p.Message) == "":
		r.reject(c, "message cannot be empty")
		return
	}

	// Persisting and broadcasting are independent: a storage failure must
	// not hold back live delivery.
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	if _, err := r.store.Send(pctx, p.Author, p.Receiver, p.Message, time.Time{}); err != nil {
		r.log.Error("relay: persist message failed",
			zap.String("room", p.Room), zap.String("author", p.Author), zap.Error(err))
	}
	cancel()

	out, err := json.Marshal(Frame{Event: EventReceiveMessage, Data: data})
	if err != nil {
		r.log.Error("relay: encode frame", zap.Error(err))
		return
	}
	if err := r.broker.Publish(ctx, Envelope{Room: p.Room, Origin: c.ID, Frame: out}); err != nil {
		r.log.Error("relay: publish failed", zap.String("room", p.Room), zap.Error(err))
	}
}

func (r *Relay) reject(c *Client, msg string) {
	data, _ := json.Marshal(msg)
	out, _ := json.Marshal(Frame{Event: EventError, Data: data})
	select {
	case c.Send <- out:
	default:
	}
}
