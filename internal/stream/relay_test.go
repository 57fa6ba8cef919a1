package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"contest-voting/internal/events"
)

type fakeSubscription struct {
	ch        chan string
	closeOnce sync.Once
	closed    chan struct{}
}

func (s *fakeSubscription) Events() <-chan string { return s.ch }

func (s *fakeSubscription) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

type fakeBus struct {
	mu      sync.Mutex
	subs    []*fakeSubscription
	failSub bool
}

func (b *fakeBus) Publish(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		select {
		case s.ch <- events.Marker:
		default:
		}
	}
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context) (events.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSub {
		return nil, errors.New("bus down")
	}
	s := &fakeSubscription{ch: make(chan string, 8), closed: make(chan struct{})}
	b.subs = append(b.subs, s)
	return s, nil
}

// syncWriter lets the test read the buffer while the relay writes it.
type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func waitFor(t *testing.T, w *syncWriter, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(w.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("output never contained %q, got:\n%s", substr, w.String())
}

func TestRelayWritesPreambleAndForwardsMarkers(t *testing.T) {
	bus := &fakeBus{}
	relay := NewRelay(bus, 10*time.Millisecond, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &syncWriter{}
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, w, nil) }()

	waitFor(t, w, "retry: 3000\n\n")
	waitFor(t, w, "event: message\ndata: init\n\n")

	if err := bus.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitFor(t, w, "event: message\ndata: changed\n\n")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("clean disconnect should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop on cancellation")
	}

	// The subscription must not leak past teardown.
	select {
	case <-bus.subs[0].closed:
	default:
		t.Fatal("subscription left open after relay stopped")
	}
}

func TestRelayEmitsKeepaliveWhenIdle(t *testing.T) {
	bus := &fakeBus{}
	relay := NewRelay(bus, 5*time.Millisecond, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &syncWriter{}
	go func() { _ = relay.Run(ctx, w, nil) }()

	waitFor(t, w, ": keepalive\n\n")
}

func TestRelayNoKeepaliveWhileTrafficFlows(t *testing.T) {
	bus := &fakeBus{}
	relay := NewRelay(bus, 5*time.Millisecond, 80*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	w := &syncWriter{}
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, w, nil) }()
	waitFor(t, w, "data: init")

	// Publish faster than the keepalive interval for a while.
	for i := 0; i < 6; i++ {
		time.Sleep(20 * time.Millisecond)
		_ = bus.Publish(ctx)
	}
	cancel()
	<-done

	if strings.Contains(w.String(), "keepalive") {
		t.Fatalf("keepalive emitted despite steady traffic:\n%s", w.String())
	}
}

func TestRelaySubscribeFailure(t *testing.T) {
	bus := &fakeBus{failSub: true}
	relay := NewRelay(bus, 0, 0)

	w := &syncWriter{}
	err := relay.Run(context.Background(), w, nil)
	if err == nil {
		t.Fatal("expected subscribe error")
	}
	if !strings.Contains(w.String(), "event: error\ndata: subscribe:") {
		t.Fatalf("terminal error event missing:\n%s", w.String())
	}
}

func TestRelayBusClosureIsTerminalError(t *testing.T) {
	bus := &fakeBus{}
	relay := NewRelay(bus, 10*time.Millisecond, time.Hour)
	ctx := context.Background()

	w := &syncWriter{}
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, w, nil) }()
	waitFor(t, w, "data: init")

	close(bus.subs[0].ch)

	select {
	case err := <-done:
		if !errors.Is(err, ErrBusClosed) {
			t.Fatalf("err = %v, want ErrBusClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop on bus closure")
	}
	if !strings.Contains(w.String(), "event: error\ndata: bus:") {
		t.Fatalf("terminal error event missing:\n%s", w.String())
	}
}

type failingWriter struct {
	writes int
	after  int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.after {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

func TestRelayStopsOnWriteFailure(t *testing.T) {
	bus := &fakeBus{}
	relay := NewRelay(bus, 10*time.Millisecond, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Preamble (retry + init) succeeds, the first forwarded marker fails.
	w := &failingWriter{after: 2}
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, w, nil) }()

	time.Sleep(20 * time.Millisecond)
	_ = bus.Publish(ctx)

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected write error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop on write failure")
	}
}

func TestManyConcurrentRelays(t *testing.T) {
	bus := &fakeBus{}
	relay := NewRelay(bus, 10*time.Millisecond, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const listeners = 8
	writers := make([]*syncWriter, listeners)
	for i := range writers {
		writers[i] = &syncWriter{}
		go func(w *syncWriter) { _ = relay.Run(ctx, w, nil) }(writers[i])
	}
	for _, w := range writers {
		waitFor(t, w, "data: init")
	}

	_ = bus.Publish(ctx)
	for _, w := range writers {
		waitFor(t, w, "data: changed")
	}
}
