package events

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus broadcasts over one Redis pub/sub channel. Redis pub/sub has no
// queueing or persistence, which is exactly the contract Bus promises.
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb, channel: Channel}
}

var _ Bus = (*RedisBus)(nil)

func (b *RedisBus) Publish(ctx context.Context) error {
	return b.rdb.Publish(ctx, b.channel, Marker).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (Subscription, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)

	// Force the SUBSCRIBE round trip so a dead Redis surfaces here, not as
	// a silent stream that never delivers.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps:   ps,
		out:  make(chan string),
		done: make(chan struct{}),
	}
	go sub.forward()
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	out       chan string
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) forward() {
	defer close(s.out)
	for {
		select {
		case msg, ok := <-s.ps.Channel():
			if !ok {
				return
			}
			select {
			case s.out <- msg.Payload:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Events() <-chan string {
	return s.out
}

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.ps.Close()
}
