package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// loopbackRedis records published payloads and feeds them back the way a
// subscription on the same channel would.
type loopbackRedis struct {
	channel string
	msgs    chan *redis.Message
}

func (l *loopbackRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	payload, ok := message.([]byte)
	if !ok {
		return redis.NewIntResult(0, nil)
	}
	l.channel = channel
	l.msgs <- &redis.Message{Channel: channel, Payload: string(payload)}
	return redis.NewIntResult(1, nil)
}

func newLoopbackBroker(hub *Hub) (*RedisBroker, *loopbackRedis) {
	fake := &loopbackRedis{msgs: make(chan *redis.Message, 8)}
	b := &RedisBroker{
		client:  fake,
		channel: "portal:chat",
		hub:     hub,
		log:     zap.NewNop(),
		done:    make(chan struct{}),
	}
	go b.consume(fake.msgs)
	return b, fake
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	return nil
}

func TestRedisBroker_EnvelopeRoundTrip(t *testing.T) {
	hub := NewHub()
	sender := NewClient("s", alice)
	peer := NewClient("p", bob)
	room := alice + "_" + bob
	for _, c := range []*Client{sender, peer} {
		hub.Register(c)
		hub.Join(c, room)
	}
	b, fake := newLoopbackBroker(hub)

	frame := json.RawMessage(`{"event":"receive_message","data":{"message":"hi"}}`)
	if err := b.Publish(context.Background(), Envelope{Room: room, Origin: sender.ID, Frame: frame}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fake.channel != "portal:chat" {
		t.Errorf("published on %q", fake.channel)
	}

	got := receive(t, peer)
	if string(got) != string(frame) {
		t.Errorf("frame changed in transit: %s", got)
	}
	select {
	case msg := <-sender.Send:
		t.Errorf("origin received its own frame: %s", msg)
	default:
	}

	close(fake.msgs)
	<-b.done
}

func TestRedisBroker_DropsMalformedEnvelopes(t *testing.T) {
	hub := NewHub()
	peer := NewClient("p", bob)
	hub.Register(peer)
	hub.Join(peer, "room")
	b, fake := newLoopbackBroker(hub)

	fake.msgs <- &redis.Message{Payload: "not json"}
	fake.msgs <- &redis.Message{Payload: `{"room":"room","origin":"x","frame":{"event":"ok"}}`}

	if got := receive(t, peer); string(got) != `{"event":"ok"}` {
		t.Errorf("unexpected frame %s", got)
	}
	close(fake.msgs)
	<-b.done
}
