package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Envelope is a frame addressed to a room. Origin is the sending client's
// id, excluded from delivery.
type Envelope struct {
	Room   string          `json:"room"`
	Origin string          `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

// Broker fans envelopes out to room members, possibly across instances.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// LocalBroker delivers straight to the in-process hub.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.hub.Deliver(env.Room, env.Frame, env.Origin)
	return nil
}

func (b *LocalBroker) Close() error { return nil }

// redisPublisher is the part of *redis.Client the broker publishes with.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisBroker carries envelopes over a Redis pub/sub channel. Every
// instance, the publishing one included, delivers what it receives to its
// own hub.
type RedisBroker struct {
	client  redisPublisher
	channel string
	pubsub  *redis.PubSub
	hub     *Hub
	log     *zap.Logger
	done    chan struct{}
}

// NewRedisBroker subscribes to channel and starts delivering. It returns
// once the subscription is confirmed.
func NewRedisBroker(ctx context.Context, client *redis.Client, channel string, hub *Hub, log *zap.Logger) (*RedisBroker, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	b := &RedisBroker{
		client:  client,
		channel: channel,
		pubsub:  pubsub,
		hub:     hub,
		log:     log,
		done:    make(chan struct{}),
	}
	go b.consume(pubsub.Channel())
	return b, nil
}

// consume delivers every envelope read from msgs until it is closed.
func (b *RedisBroker) consume(msgs <-chan *redis.Message) {
	defer close(b.done)
	for msg := range msgs {
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.log.Warn("relay: dropping malformed envelope", zap.Error(err))
			continue
		}
		b.hub.Deliver(env.Room, env.Frame, env.Origin)
	}
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Close ends the subscription and waits for the consumer to stop.
func (b *RedisBroker) Close() error {
	err := b.pubsub.Close()
	<-b.done
	return err
}
