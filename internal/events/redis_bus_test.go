package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestBus(t *testing.T) *RedisBus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBus(rdb)
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	if err := bus.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case marker := <-sub.Events():
		if marker != Marker {
			t.Fatalf("marker = %q, want %q", marker, Marker)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no marker received")
	}
}

func TestPublishWithoutSubscriberIsLost(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	// Published before anyone listens: no replay.
	if err := bus.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}

	sub, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case marker := <-sub.Events():
		t.Fatalf("unexpected replayed marker %q", marker)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseEndsEventsChannel(t *testing.T) {
	bus := newTestBus(t)

	sub, err := bus.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel did not close")
	}

	// Double close must be safe.
	_ = sub.Close()
}

func TestTwoSubscribersBothReceive(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()

	first, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe first: %v", err)
	}
	defer first.Close()
	second, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe second: %v", err)
	}
	defer second.Close()

	if err := bus.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for i, sub := range []Subscription{first, second} {
		select {
		case <-sub.Events():
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d missed the marker", i)
		}
	}
}
