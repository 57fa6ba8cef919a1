// Package events carries the payload-free change notification between the
// vote synchronizer and any number of live stream connections. Delivery is
// at-most-once: a marker published while nobody listens is simply lost.
package events

import "context"

// Marker is the only payload ever published. Listeners treat any message as
// "the aggregate vote state changed" and refetch what they care about.
const Marker = "changed"

// Channel is the broadcast channel name.
const Channel = "votes.changed"

type Subscription interface {
	// Events yields published markers. The channel closes when the
	// subscription dies, whether by Close or by a transport failure.
	Events() <-chan string
	Close() error
}

type Bus interface {
	Publish(ctx context.Context) error
	Subscribe(ctx context.Context) (Subscription, error)
}
