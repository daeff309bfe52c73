package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

type fakeStore struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeStore) Send(_ context.Context, senderID, receiverID, content string, _ time.Time) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, senderID+"->"+receiverID+":"+content)
	return &models.Message{Content: content}, nil
}

const (
	alice = "64b7f0c2a1b2c3d4e5f60001"
	bob   = "64b7f0c2a1b2c3d4e5f60002"
	carol = "64b7f0c2a1b2c3d4e5f60003"
)

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func readFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("bad frame %s: %v", raw, err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
	return Frame{}
}

type setup struct {
	relay *Relay
	store *fakeStore
	a, b  *Client
	room  string
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	hub := NewHub()
	s := &setup{
		store: &fakeStore{},
		a:     NewClient("ca", alice),
		b:     NewClient("cb", bob),
		room:  string(models.NewConversationID(bob, alice)),
	}
	s.relay = New(hub, nil, s.store, zap.NewNop())
	hub.Register(s.a)
	hub.Register(s.b)
	ctx := context.Background()
	s.relay.Handle(ctx, s.a, frame(t, EventJoinRoom, s.room))
	s.relay.Handle(ctx, s.b, frame(t, EventJoinRoom, s.room))
	if hub.RoomCount(s.room) != 2 {
		t.Fatalf("expected both clients in the room, got %d", hub.RoomCount(s.room))
	}
	return s
}

func TestRelay_SendReachesPeerOnly(t *testing.T) {
	s := newSetup(t)
	payload := SendPayload{Room: s.room, Author: alice, Receiver: bob, Message: "hello", Time: "10:30"}
	s.relay.Handle(context.Background(), s.a, frame(t, EventSendMessage, payload))

	f := readFrame(t, s.b)
	if f.Event != EventReceiveMessage {
		t.Fatalf("unexpected event %q", f.Event)
	}
	var got SendPayload
	if err := json.Unmarshal(f.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got != payload {
		t.Errorf("payload changed in transit: %+v", got)
	}
	if len(s.a.Send) != 0 {
		t.Error("sender received its own message")
	}
	if len(s.store.sent) != 1 || s.store.sent[0] != alice+"->"+bob+":hello" {
		t.Errorf("unexpected persisted messages: %v", s.store.sent)
	}
}

func TestRelay_PersistFailureStillBroadcasts(t *testing.T) {
	s := newSetup(t)
	s.store.err = errors.New("db down")
	payload := SendPayload{Room: s.room, Author: bob, Receiver: alice, Message: "still here"}
	s.relay.Handle(context.Background(), s.b, frame(t, EventSendMessage, payload))

	if f := readFrame(t, s.a); f.Event != EventReceiveMessage {
		t.Fatalf("expected the broadcast despite the storage error, got %q", f.Event)
	}
}

func TestRelay_RejectsJoinOfForeignRoom(t *testing.T) {
	s := newSetup(t)
	foreign := string(models.NewConversationID(bob, carol))
	s.relay.Handle(context.Background(), s.a, frame(t, EventJoinRoom, foreign))

	if f := readFrame(t, s.a); f.Event != EventError {
		t.Fatalf("expected an error frame, got %q", f.Event)
	}
	if s.relay.Hub().RoomCount(foreign) != 0 {
		t.Error("client joined a room it is not part of")
	}
}

func TestRelay_RejectsJoinOfUnsortedRoom(t *testing.T) {
	s := newSetup(t)
	reversed := bob + "_" + alice
	s.relay.Handle(context.Background(), s.a, frame(t, EventJoinRoom, reversed))

	if f := readFrame(t, s.a); f.Event != EventError {
		t.Fatalf("expected an error frame, got %q", f.Event)
	}
	if s.relay.Hub().RoomCount(reversed) != 0 {
		t.Error("client joined a room no message is ever sent to")
	}
}

func TestRelay_RejectsInvalidSends(t *testing.T) {
	tests := []struct {
		name    string
		payload SendPayload
	}{
		{"impersonated author", SendPayload{Author: bob, Receiver: alice, Message: "x"}},
		{"room mismatch", SendPayload{Author: alice, Receiver: carol, Message: "x"}},
		{"empty message", SendPayload{Author: alice, Receiver: bob, Message: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSetup(t)
			tt.payload.Room = s.room
			s.relay.Handle(context.Background(), s.a, frame(t, EventSendMessage, tt.payload))

			if f := readFrame(t, s.a); f.Event != EventError {
				t.Fatalf("expected an error frame, got %q", f.Event)
			}
			if len(s.b.Send) != 0 || len(s.store.sent) != 0 {
				t.Error("invalid message was relayed or stored")
			}
		})
	}
}

func TestRelay_MalformedAndUnknownFrames(t *testing.T) {
	s := newSetup(t)
	s.relay.Handle(context.Background(), s.a, []byte("{not json"))
	if f := readFrame(t, s.a); f.Event != EventError {
		t.Fatalf("expected an error frame, got %q", f.Event)
	}
	s.relay.Handle(context.Background(), s.a, frame(t, "typing", "x"))
	if f := readFrame(t, s.a); f.Event != EventError {
		t.Fatalf("expected an error frame, got %q", f.Event)
	}
}
