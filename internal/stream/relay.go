// Package stream relays bus notifications to one remote listener over a
// line-based event protocol (SSE framing). Each connection runs its own
// relay; relays share nothing but the bus.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"contest-voting/internal/events"
)

type state int

const (
	stateConnecting state = iota
	stateSubscribed
	stateStreaming
	stateClosed
)

// ErrBusClosed reports that the subscription died under a live connection.
var ErrBusClosed = errors.New("event bus subscription closed")

const (
	defaultPoll      = time.Second
	defaultKeepalive = 10 * time.Second
	retryMillis      = 3000
)

type Relay struct {
	bus       events.Bus
	poll      time.Duration
	keepalive time.Duration
}

// NewRelay builds a relay with the given bounded-wait and keepalive
// intervals; zero values select the defaults (1s poll, 10s keepalive).
func NewRelay(bus events.Bus, poll, keepalive time.Duration) *Relay {
	if poll <= 0 {
		poll = defaultPoll
	}
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	return &Relay{bus: bus, poll: poll, keepalive: keepalive}
}

// Run drives one connection from subscribe to teardown. It returns nil on
// clean disconnect (context cancellation) and an error when the bus or the
// writer fails. flush may be nil for unbuffered writers.
func (r *Relay) Run(ctx context.Context, w io.Writer, flush func()) error {
	if flush == nil {
		flush = func() {}
	}

	var (
		st        = stateConnecting
		sub       events.Subscription
		lastWrite time.Time
		retErr    error
	)
	defer func() {
		if sub != nil {
			_ = sub.Close()
		}
	}()

	for {
		switch st {
		case stateConnecting:
			var err error
			sub, err = r.bus.Subscribe(ctx)
			if err != nil {
				r.writeError(w, flush, "subscribe", err)
				return err
			}
			st = stateSubscribed

		case stateSubscribed:
			// Retry directive plus a synthetic init notification, so the
			// listener sees a live transport before any real vote happens.
			if _, err := fmt.Fprintf(w, "retry: %d\n\n", retryMillis); err != nil {
				return err
			}
			if err := r.writeMessage(w, flush, "init"); err != nil {
				return err
			}
			lastWrite = time.Now()
			st = stateStreaming

		case stateStreaming:
			timer := time.NewTimer(r.poll)
			select {
			case <-ctx.Done():
				timer.Stop()
				st = stateClosed

			case marker, ok := <-sub.Events():
				timer.Stop()
				if !ok {
					r.writeError(w, flush, "bus", ErrBusClosed)
					retErr = ErrBusClosed
					st = stateClosed
					break
				}
				if err := r.writeMessage(w, flush, marker); err != nil {
					// Listener gone; nothing left to tell it.
					retErr = err
					st = stateClosed
					break
				}
				lastWrite = time.Now()

			case <-timer.C:
				if time.Since(lastWrite) < r.keepalive {
					break
				}
				if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
					retErr = err
					st = stateClosed
					break
				}
				flush()
				lastWrite = time.Now()
			}

		case stateClosed:
			return retErr
		}
	}
}

func (r *Relay) writeMessage(w io.Writer, flush func(), marker string) error {
	if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", marker); err != nil {
		return err
	}
	flush()
	return nil
}

// writeError is best effort: the writer may already be dead.
func (r *Relay) writeError(w io.Writer, flush func(), kind string, err error) {
	if _, werr := fmt.Fprintf(w, "event: error\ndata: %s: %v\n\n", kind, err); werr != nil {
		return
	}
	flush()
}
