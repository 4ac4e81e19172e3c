package ble

import (
	"context"
	"sync"
	"time"
)

// NotificationHistory is how many notifications the buffer retains.
const NotificationHistory = 10

// Notification is one payload delivered by the appliance.
type Notification struct {
	Channel string
	Payload []byte
	Seq     uint64 // arrival order, starting at 1
	At      time.Time
}

// Notifications is a fixed-size ring of the most recent notifications. It
// decouples the driver's asynchronous delivery from the session's synchronous
// write-then-read exchange. Safe for concurrent use.
type Notifications struct {
	mu      sync.Mutex
	ring    [NotificationHistory]Notification
	seq     uint64
	arrived chan struct{} // closed and replaced on every Record
}

// NewNotifications returns an empty buffer.
func NewNotifications() *Notifications {
	return &Notifications{arrived: make(chan struct{})}
}

// Record stores a copy of payload, evicting the oldest entry once full.
func (n *Notifications) Record(channel string, payload []byte) {
	cp := make([]byte, len(payload))
	copy(cp, payload)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	n.ring[(n.seq-1)%NotificationHistory] = Notification{
		Channel: channel,
		Payload: cp,
		Seq:     n.seq,
		At:      time.Now(),
	}
	close(n.arrived)
	n.arrived = make(chan struct{})
}

// MostRecent returns the notification with the highest arrival order.
func (n *Notifications) MostRecent() (Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seq == 0 {
		return Notification{}, ErrEmptyBuffer
	}
	return n.ring[(n.seq-1)%NotificationHistory], nil
}

// Records returns the retained notifications, oldest first.
func (n *Notifications) Records() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := min(n.seq, NotificationHistory)
	out := make([]Notification, 0, count)
	for s := n.seq - count + 1; s <= n.seq; s++ {
		out = append(out, n.ring[(s-1)%NotificationHistory])
	}
	return out
}

// Seq returns the arrival order of the most recent notification, 0 if none.
func (n *Notifications) Seq() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq
}

// WaitAfter blocks until a notification newer than seq has been recorded or
// ctx is done.
func (n *Notifications) WaitAfter(ctx context.Context, seq uint64) error {
	for {
		n.mu.Lock()
		if n.seq > seq {
			n.mu.Unlock()
			return nil
		}
		arrived := n.arrived
		n.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-arrived:
		}
	}
}
