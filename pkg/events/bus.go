package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Channel names exposed to consumers. RoomChannel and GameChannel derive
// the per-entity channel names from an entity id.
const (
	ChannelRooms = "rooms"
)

// RoomChannel returns the channel name for updates to a single room.
func RoomChannel(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

// GameChannel returns the channel name for updates to a room's game state.
func GameChannel(roomID string) string {
	return fmt.Sprintf("game:%s", roomID)
}

// Callback is invoked synchronously with the published payload.
type Callback func(payload interface{})

// Subscription identifies a single registration on a channel. Function
// values are not comparable in Go, so unsubscription goes through the
// handle returned by Subscribe. Subscribing the same callback twice
// yields two independent subscriptions and two invocations per publish.
type Subscription struct {
	ID      string
	Channel string
	fn      Callback
}

// Bus is a named publish/subscribe registry. Publish delivers to every
// registered callback for a channel synchronously, in registration
// order, on the caller's goroutine. Delivery does not survive process
// restart and subscriptions are retained until explicitly removed.
type Bus struct {
	lock     sync.RWMutex
	channels map[string][]*Subscription
}

func NewBus() *Bus {
	return &Bus{
		channels: make(map[string][]*Subscription),
	}
}

// Subscribe registers a callback on a channel and returns its handle.
func (b *Bus) Subscribe(channel string, fn Callback) *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()
	sub := &Subscription{
		ID:      uuid.New().String(),
		Channel: channel,
		fn:      fn,
	}
	b.channels[channel] = append(b.channels[channel], sub)
	return sub
}

// Unsubscribe removes the subscription from its channel. Unknown or
// already-removed subscriptions are ignored.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	subs := b.channels[sub.Channel]
	for i, s := range subs {
		if s.ID == sub.ID {
			b.channels[sub.Channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.channels[sub.Channel]) == 0 {
		delete(b.channels, sub.Channel)
	}
}

// Publish invokes every callback currently registered on the channel.
// Callbacks run on the caller's goroutine; the subscriber list is
// snapshotted first so a callback may subscribe or unsubscribe without
// affecting the in-flight delivery.
func (b *Bus) Publish(channel string, payload interface{}) {
	b.lock.RLock()
	subs := make([]*Subscription, len(b.channels[channel]))
	for i, s := range b.channels[channel] {
		subs[i] = s
	}
	b.lock.RUnlock()

	for _, sub := range subs {
		sub.fn(payload)
	}
}

// Clear removes all subscriptions from all channels.
func (b *Bus) Clear() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.channels = make(map[string][]*Subscription)
}
